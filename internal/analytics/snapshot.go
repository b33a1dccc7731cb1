// Package analytics folds normalized events into timeline, daily, block and
// tail views. Every fold starts from scratch on each call.
package analytics

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/estimate"
)

// BuildSnapshot buckets events per minute. Only events with a nonzero
// estimate count as messages.
func BuildSnapshot(events []core.Event, generatedAt time.Time) core.Snapshot {
	snap := core.Snapshot{
		GeneratedAt: generatedAt,
		Timeline:    []string{},
		Points:      []core.TimeBucket{},
	}

	byMinute := make(map[string]*core.TimeBucket)
	for _, ev := range events {
		tokens := estimate.Tokens(ev)
		key := core.MinuteKey(ev.Timestamp)
		b, ok := byMinute[key]
		if !ok {
			b = &core.TimeBucket{MinuteKey: key}
			byMinute[key] = b
		}
		b.Tokens += tokens
		snap.TotalTokens += tokens
		if tokens > 0 {
			b.Messages++
			snap.TotalMessages++
		}
	}

	keys := lo.Keys(byMinute)
	sort.Strings(keys)
	snap.Timeline = append(snap.Timeline, keys...)
	snap.Points = lo.Map(keys, func(k string, _ int) core.TimeBucket {
		return *byMinute[k]
	})
	return snap
}

// Tail returns the last n points of the snapshot timeline.
func Tail(snap core.Snapshot, n int) ([]string, []core.TimeBucket) {
	if n <= 0 || n >= len(snap.Points) {
		return snap.Timeline, snap.Points
	}
	from := len(snap.Points) - n
	return snap.Timeline[from:], snap.Points[from:]
}
