// Package tui is the live terminal dashboard.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/reports"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// DashboardMsg carries a freshly rebuilt dashboard.
type DashboardMsg core.Dashboard

// ErrMsg reports a failure the dashboard should show instead of data.
type ErrMsg struct{ Err error }

type themePersistedMsg struct {
	err error
}

type Model struct {
	dash    core.Dashboard
	hasData bool
	err     error

	width  int
	height int
	now    time.Time

	modeLabel string
	status    string

	onRefresh     func()
	onThemeChange func(name string) error
}

// NewModel creates the dashboard. modeLabel describes the live strategy
// ("watch" or "poll") in the footer.
func NewModel(modeLabel string) Model {
	return Model{modeLabel: modeLabel, now: time.Now()}
}

func (m *Model) SetOnRefresh(fn func()) {
	m.onRefresh = fn
}

// SetOnThemeChange registers a callback that persists the selected theme.
func (m *Model) SetOnThemeChange(fn func(name string) error) {
	m.onThemeChange = fn
}

func (m Model) persistThemeCmd(name string) tea.Cmd {
	if m.onThemeChange == nil {
		return nil
	}
	fn := m.onThemeChange
	return func() tea.Msg {
		return themePersistedMsg{err: fn(name)}
	}
}

func (m Model) Init() tea.Cmd { return tickCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case DashboardMsg:
		m.dash = core.Dashboard(msg)
		m.hasData = true
		m.err = nil
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, nil

	case themePersistedMsg:
		if msg.err != nil {
			m.status = "theme save failed"
		} else {
			m.status = "theme saved"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "t":
		name := CycleTheme()
		m.status = "theme: " + name
		return m, m.persistThemeCmd(name)
	case "r":
		if m.onRefresh != nil {
			m.onRefresh()
			m.status = "refreshing"
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.width < 30 || m.height < 8 {
		return dimStyle.Render("\n  Terminal too small. Resize to at least 30×8.")
	}
	if m.err != nil && !m.hasData {
		return "\n  " + errorStyle.Render(m.err.Error()) + "\n\n  " + helpStyle.Render("q quit")
	}
	if !m.hasData {
		return "\n  " + dimStyle.Render("Waiting for data…")
	}
	return m.renderDashboard()
}

func (m Model) renderDashboard() string {
	w, h := m.width, m.height

	header := m.renderHeader(w)
	block := m.renderBlockPanel(w)
	summary := m.renderSummary(w)
	footer := m.renderFooter(w)

	used := lipgloss.Height(header) + lipgloss.Height(block) + lipgloss.Height(summary) + lipgloss.Height(footer) + 1
	chartH := max(3, h-used)
	chart := sectionHeaderStyle.Render(" Estimated tokens / minute") + "\n" +
		RenderMinuteChart(m.dash.Snapshot, w, chartH-1)

	return padToSize(strings.Join([]string{header, chart, block, summary, footer}, "\n"), w, h)
}

func (m Model) renderHeader(w int) string {
	snap := m.dash.Snapshot
	title := headerStyle.Render(" Codex Usage · Live")
	line := fmt.Sprintf(" %s %s  %s %s  %s %s",
		labelStyle.Render("tokens (est)"), valueStyle.Render(formatInt(snap.TotalTokens)),
		labelStyle.Render("messages"), valueStyle.Render(formatInt(snap.TotalMessages)),
		labelStyle.Render("now"), valueStyle.Render(m.now.Format("15:04:05")),
	)
	return title + "\n" + ansi.Truncate(line, w, "…")
}

func (m Model) renderBlockPanel(w int) string {
	b := m.dash.Block
	inner := max(10, w-4)

	var lines []string
	lines = append(lines, sectionHeaderStyle.Render(fmt.Sprintf("Block · %dh · %s", b.Window.WindowHours, b.Window.Anchor.Label())))

	if b.PercentOfLimit != nil {
		lines = append(lines, RenderUsageGauge(*b.PercentOfLimit, max(5, inner-8)))
	} else {
		lines = append(lines, RenderUsageGauge(-1, max(5, inner-5)))
	}

	stats := []string{
		kv("tokens", formatInt(b.TokensInBlock)),
		kv("burn", fmt.Sprintf("%d/m", int(math.Round(b.Burn.TokensPerMinute)))),
		kv("remaining", reports.FormatMinutes(b.RemainingMs/60000)),
	}
	if b.TokenLimit != nil {
		stats = append(stats, kv("cap", formatInt(*b.TokenLimit)))
	}
	if b.EtaMinutesToLimit != nil {
		stats = append(stats, kv("eta", fmt.Sprintf("%dm", int(math.Floor(*b.EtaMinutesToLimit)))))
	}
	if b.ExplicitReset != nil {
		stats = append(stats, kv("reset", b.ExplicitReset.Local().Format("15:04")))
	}
	lines = append(lines, ansi.Truncate(strings.Join(stats, "  "), inner, "…"))
	lines = append(lines, RenderBurnSeries(b.BurnSeries, inner))

	return panelStyle.Width(max(10, w-2)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderSummary(w int) string {
	snap := m.dash.Snapshot
	window := min(len(snap.Points), maxChartMinutes)
	rows := [][3]string{
		{"Total tokens (est)", formatInt(snap.TotalTokens), "approx 4 chars/token"},
		{"Messages", formatInt(snap.TotalMessages), "parsed from JSONL"},
		{"Active minutes", fmt.Sprintf("%d", window), fmt.Sprintf("last %d shown", maxChartMinutes)},
		{"Files", formatInt(snap.Files), "session logs read"},
	}
	var out []string
	for _, r := range rows {
		line := " " + labelStyle.Render(padRight(r[0], 20)) + valueStyle.Render(padRight(r[1], 14)) + dimStyle.Render(r[2])
		out = append(out, ansi.Truncate(line, w, "…"))
	}
	return strings.Join(out, "\n")
}

func (m Model) renderFooter(w int) string {
	sep := gaugeTrackStyle.Render(strings.Repeat("━", w))
	keys := []string{
		helpKeyStyle.Render("q") + helpStyle.Render(" quit"),
		helpKeyStyle.Render("t") + helpStyle.Render(" theme"),
		helpKeyStyle.Render("r") + helpStyle.Render(" refresh"),
	}
	line := " " + strings.Join(keys, "  ") + "  " + dimStyle.Render(m.modeLabel)
	if !m.dash.Snapshot.GeneratedAt.IsZero() {
		line += dimStyle.Render(" · updated " + m.dash.Snapshot.GeneratedAt.Local().Format("15:04:05"))
	}
	if m.err != nil {
		line += "  " + errorStyle.Render(m.err.Error())
	} else if m.status != "" {
		line += "  " + dimStyle.Render(m.status)
	}
	return sep + "\n" + ansi.Truncate(line, w, "…")
}

func kv(label, value string) string {
	return labelStyle.Render(label+" ") + valueStyle.Render(value)
}

func padRight(s string, w int) string {
	if n := ansi.StringWidth(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

// formatInt renders n with thousands separators.
func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func padToSize(content string, w, h int) string {
	lines := strings.Split(content, "\n")
	for len(lines) < h {
		lines = append(lines, "")
	}
	if len(lines) > h {
		lines = lines[:h]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, w, "")
	}
	return strings.Join(lines, "\n")
}
