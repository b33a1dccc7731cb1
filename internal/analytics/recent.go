package analytics

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/estimate"
)

// RecentTail returns the token-bearing events of the trailing window, oldest
// first, keeping the newest max entries. Events sharing a timestamp keep
// their corpus order.
func RecentTail(events []core.Event, now time.Time, withinMinutes, max int) []core.RecentEvent {
	if withinMinutes <= 0 {
		withinMinutes = DefaultTailMinutes
	}
	if max <= 0 {
		max = DefaultTailMax
	}
	since := now.Add(-time.Duration(withinMinutes) * time.Minute)

	var out []core.RecentEvent
	for _, ev := range events {
		if ev.Timestamp.Before(since) || ev.Timestamp.After(now) {
			continue
		}
		tokens := estimate.Tokens(ev)
		if tokens == 0 {
			continue
		}
		out = append(out, core.RecentEvent{
			Time:   ev.Timestamp,
			Tokens: tokens,
			Kind:   ev.Kind,
			File:   filepath.Base(ev.SourceFile),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

// Sessions summarizes the most recent n session files. files is in discovery
// order (oldest first); the result keeps that order.
func Sessions(events []core.Event, files []string, n int) []core.SessionRow {
	if n <= 0 {
		n = DefaultSessionRows
	}
	if len(files) > n {
		files = files[len(files)-n:]
	}

	byFile := lo.GroupBy(events, func(ev core.Event) string { return ev.SourceFile })
	return lo.Map(files, func(path string, _ int) core.SessionRow {
		evs := byFile[path]
		row := core.SessionRow{
			Path:    path,
			File:    sessionLabel(path),
			Entries: len(evs),
			Tokens:  lo.SumBy(evs, estimate.Tokens),
		}
		if first, ok := lo.Find(evs, func(ev core.Event) bool {
			return ev.TimestampSource == core.TimestampExplicit
		}); ok {
			row.Started = first.Timestamp
		}
		return row
	})
}

// sessionLabel keeps the last four path segments (YYYY/MM/DD/file).
func sessionLabel(path string) string {
	segs := strings.Split(filepath.ToSlash(path), "/")
	if len(segs) > 4 {
		segs = segs[len(segs)-4:]
	}
	return strings.Join(segs, "/")
}
