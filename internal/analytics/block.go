package analytics

import (
	"math"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/estimate"
)

// ResolveWindow returns the active block window. A reset instant strictly
// inside (now, now+windowHours) overrides the anchor and becomes the end.
func ResolveWindow(now time.Time, windowHours int, anchor core.Anchor, reset *time.Time) core.BlockWindow {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	length := time.Duration(windowHours) * time.Hour
	w := core.BlockWindow{WindowHours: windowHours, Anchor: core.ParseAnchor(string(anchor))}

	if reset != nil && reset.After(now) && reset.Before(now.Add(length)) {
		w.End = *reset
		w.Start = w.End.Add(-length)
		return w
	}

	switch anchor {
	case core.AnchorEpoch:
		lengthMs := length.Milliseconds()
		startMs := floorDiv(now.UnixMilli(), lengthMs) * lengthMs
		w.Start = time.UnixMilli(startMs).In(now.Location())
		w.End = w.Start.Add(length)
	default:
		w.End = now
		w.Start = now.Add(-length)
	}
	return w
}

// ComputeBlock measures usage inside the resolved window plus the burn rate
// over the trailing burn window.
func ComputeBlock(events []core.Event, opts Options, now time.Time, reset *time.Time) core.BlockStats {
	opts = opts.normalized()
	window := ResolveWindow(now, opts.WindowHours, opts.Anchor, reset)

	burnWindow := time.Duration(opts.BurnWindowMinutes) * time.Minute
	burnStart := now.Add(-burnWindow)
	if window.Start.After(burnStart) {
		burnStart = window.Start
	}

	seriesEnd := now.UTC().Truncate(time.Minute)
	seriesStart := seriesEnd.Add(-(BurnSeriesMinutes - 1) * time.Minute)
	series := make([]core.TimeBucket, BurnSeriesMinutes)
	for i := range series {
		series[i].MinuteKey = core.MinuteKey(seriesStart.Add(time.Duration(i) * time.Minute))
	}

	var tokensInBlock, tokensInBurn int
	for _, ev := range events {
		tokens := estimate.Tokens(ev)
		if tokens == 0 {
			continue
		}
		ts := ev.Timestamp
		if window.Contains(ts) {
			tokensInBlock += tokens
		}
		if !ts.Before(burnStart) && !ts.After(now) {
			tokensInBurn += tokens
		}
		if m := ts.UTC().Truncate(time.Minute); !m.Before(seriesStart) && !m.After(seriesEnd) {
			idx := int(m.Sub(seriesStart) / time.Minute)
			series[idx].Tokens += tokens
			series[idx].Messages++
		}
	}

	elapsed := now.Sub(burnStart).Minutes()
	stats := core.BlockStats{
		Window:        window,
		TokensInBlock: tokensInBlock,
		RemainingMs:   window.Remaining(now).Milliseconds(),
		Burn: core.Burn{
			TokensPerMinute: float64(tokensInBurn) / math.Max(1, elapsed),
			WindowMinutes:   opts.BurnWindowMinutes,
		},
		BurnSeries: series,
	}
	if reset != nil {
		r := *reset
		stats.ExplicitReset = &r
	}

	if opts.TokenLimit > 0 {
		limit := opts.TokenLimit
		pct := math.Min(100, 100*float64(tokensInBlock)/float64(limit))
		stats.TokenLimit = &limit
		stats.PercentOfLimit = &pct
		if rate := stats.Burn.TokensPerMinute; rate > 0 {
			eta := math.Max(0, float64(limit-tokensInBlock)/rate)
			stats.EtaMinutesToLimit = &eta
		}
	}
	return stats
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
