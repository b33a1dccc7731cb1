package tui

import (
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/x/ansi"

	"github.com/janekbaraniewski/codexusage/internal/analytics"
	"github.com/janekbaraniewski/codexusage/internal/core"
)

// maxChartMinutes caps how much of the timeline the chart shows.
const maxChartMinutes = 120

// RenderMinuteChart draws tokens per minute for the most recent buckets as a
// sparkline of the given size. Minutes without events are drawn as zero.
func RenderMinuteChart(snap core.Snapshot, w, h int) string {
	if w < 1 || h < 1 {
		return ""
	}
	n := min(w, maxChartMinutes)
	// n minutes hold at most n buckets.
	_, points := analytics.Tail(snap, n)
	values := minuteValues(points, n)

	sl := sparkline.New(w, h, sparkline.WithStyle(chartStyle))
	sl.PushAll(values)
	sl.Draw()
	return sl.View()
}

// minuteValues expands sparse buckets into one value per minute, ending at
// the newest bucket and covering at most n minutes.
func minuteValues(points []core.TimeBucket, n int) []float64 {
	if len(points) == 0 || n <= 0 {
		return nil
	}
	last, err := time.Parse(core.MinuteKeyLayout, points[len(points)-1].MinuteKey)
	if err != nil {
		return nil
	}
	first := last.Add(-time.Duration(n-1) * time.Minute)

	values := make([]float64, n)
	for _, p := range points {
		t, err := time.Parse(core.MinuteKeyLayout, p.MinuteKey)
		if err != nil || t.Before(first) {
			continue
		}
		values[int(t.Sub(first)/time.Minute)] += float64(p.Tokens)
	}
	return values
}

func seriesValues(series []core.TimeBucket) []float64 {
	out := make([]float64, len(series))
	for i, b := range series {
		out[i] = float64(b.Tokens)
	}
	return out
}

// RenderBurnSeries draws the trailing-hour burn series on a single row.
func RenderBurnSeries(series []core.TimeBucket, w int) string {
	if w < 1 || len(series) == 0 {
		return ""
	}
	values := seriesValues(series)
	if len(values) > w {
		values = values[len(values)-w:]
	}
	sl := sparkline.New(len(values), 1, sparkline.WithStyle(chartStyle))
	sl.PushAll(values)
	sl.Draw()
	return ansi.Truncate(sl.View(), w, "")
}
