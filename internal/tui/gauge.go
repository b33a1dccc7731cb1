package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// Used percentages at which the gauge turns warn / crit.
	warnUsedPercent = 70.0
	critUsedPercent = 90.0
)

// RenderUsageGauge fills left to right as usage increases (0=empty, 100=full).
// A negative percent renders a dimmed track with "N/A".
func RenderUsageGauge(usedPercent float64, width int) string {
	if width < 5 {
		width = 5
	}

	if usedPercent < 0 {
		return gaugeTrackStyle.Render(strings.Repeat("─", width)) + dimStyle.Render(" N/A")
	}
	if usedPercent > 100 {
		usedPercent = 100
	}

	filled := int(usedPercent / 100 * float64(width))
	empty := width - filled

	color := gaugeColor(usedPercent)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("━", filled)) +
		gaugeTrackStyle.Render(strings.Repeat("━", empty))

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return fmt.Sprintf("%s %s", bar, pctStyle.Render(fmt.Sprintf("%5.1f%%", usedPercent)))
}

func gaugeColor(usedPercent float64) lipgloss.Color {
	switch {
	case usedPercent >= critUsedPercent:
		return colorCrit
	case usedPercent >= warnUsedPercent:
		return colorWarn
	default:
		return colorOK
	}
}
