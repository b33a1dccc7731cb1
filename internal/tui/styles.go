package tui

import "github.com/charmbracelet/lipgloss"

// Colors are replaced by applyTheme.
var (
	colorLine    lipgloss.Color
	colorText    lipgloss.Color
	colorSubtext lipgloss.Color
	colorDim     lipgloss.Color
	colorSurface lipgloss.Color
	colorAccent  lipgloss.Color

	colorOK   lipgloss.Color
	colorWarn lipgloss.Color
	colorCrit lipgloss.Color
)

var (
	headerStyle        lipgloss.Style
	sectionHeaderStyle lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	dimStyle           lipgloss.Style
	helpStyle          lipgloss.Style
	helpKeyStyle       lipgloss.Style
	gaugeTrackStyle    lipgloss.Style
	chartStyle         lipgloss.Style
	panelStyle         lipgloss.Style
	errorStyle         lipgloss.Style
)

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent)

	sectionHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorLine)

	labelStyle = lipgloss.NewStyle().
		Foreground(colorSubtext)

	valueStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	dimStyle = lipgloss.NewStyle().
		Foreground(colorDim)

	helpStyle = lipgloss.NewStyle().
		Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	gaugeTrackStyle = lipgloss.NewStyle().
		Foreground(colorSurface)

	chartStyle = lipgloss.NewStyle().
		Foreground(colorLine)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSurface).
		Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorCrit)
}
