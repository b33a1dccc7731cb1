package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color set used by the dashboard.
type Theme struct {
	Name string

	Line    lipgloss.Color // chart
	Text    lipgloss.Color
	Subtext lipgloss.Color
	Dim     lipgloss.Color
	Surface lipgloss.Color // gauge track, separators
	Accent  lipgloss.Color // titles

	OK   lipgloss.Color
	Warn lipgloss.Color
	Crit lipgloss.Color
}

const defaultThemeName = "default"

var (
	themeMu        sync.RWMutex
	themes         []Theme
	activeThemeIdx int
)

func init() {
	themes = builtinThemes()
	activeThemeIdx = defaultThemeIndex(themes)
	applyTheme(themes[activeThemeIdx])
}

func builtinThemes() []Theme {
	return []Theme{
		{
			Name: "default",
			Line: "#89DCEB", Text: "#CDD6F4", Subtext: "#A6ADC8", Dim: "#585B70",
			Surface: "#45475A", Accent: "#CBA6F7",
			OK: "#A6E3A1", Warn: "#F9E2AF", Crit: "#F38BA8",
		},
		{
			Name: "mono",
			Line: "#FFFFFF", Text: "#FFFFFF", Subtext: "#BDBDBD", Dim: "#7A7A7A",
			Surface: "#4A4A4A", Accent: "#FFFFFF",
			OK: "#FFFFFF", Warn: "#DADADA", Crit: "#FFFFFF",
		},
		{
			Name: "solarized",
			Line: "#B58900", Text: "#EEE8D5", Subtext: "#93A1A1", Dim: "#586E75",
			Surface: "#073642", Accent: "#2AA198",
			OK: "#859900", Warn: "#B58900", Crit: "#DC322F",
		},
	}
}

func defaultThemeIndex(all []Theme) int {
	for i, t := range all {
		if strings.EqualFold(t.Name, defaultThemeName) {
			return i
		}
	}
	return 0
}

// applyTheme must be called with themeMu held (or during init).
func applyTheme(t Theme) {
	colorLine = t.Line
	colorText = t.Text
	colorSubtext = t.Subtext
	colorDim = t.Dim
	colorSurface = t.Surface
	colorAccent = t.Accent
	colorOK = t.OK
	colorWarn = t.Warn
	colorCrit = t.Crit
	rebuildStyles()
}

func CycleTheme() string {
	themeMu.Lock()
	defer themeMu.Unlock()

	activeThemeIdx = (activeThemeIdx + 1) % len(themes)
	applyTheme(themes[activeThemeIdx])
	return themes[activeThemeIdx].Name
}

// SetThemeByName activates the named theme (case-insensitive) and reports
// whether it exists.
func SetThemeByName(name string) bool {
	themeMu.Lock()
	defer themeMu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	for i, t := range themes {
		if t.Name == needle {
			activeThemeIdx = i
			applyTheme(t)
			return true
		}
	}
	return false
}

func ActiveTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return themes[activeThemeIdx]
}

func ThemeNames() []string {
	themeMu.RLock()
	defer themeMu.RUnlock()

	out := make([]string, len(themes))
	for i, t := range themes {
		out[i] = t.Name
	}
	return out
}
