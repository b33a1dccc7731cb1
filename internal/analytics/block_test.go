package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

func usageEvent(ts time.Time, tokens int64) core.Event {
	return core.Event{
		SourceFile: "/tmp/sessions/2025/01/15/rollout-a.jsonl",
		Timestamp:  ts,
		Kind:       core.KindMessage,
		Payload:    core.MessagePayload{Role: "assistant"},
		Usage:      &core.Usage{InputTokens: tokens},
	}
}

func TestResolveWindowRolling(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 34, 56, 0, time.UTC)
	w := ResolveWindow(now, 5, core.AnchorRolling, nil)

	if !w.Start.Equal(now.Add(-5 * time.Hour)) {
		t.Errorf("Start = %v, want %v", w.Start, now.Add(-5*time.Hour))
	}
	if !w.End.Equal(now) {
		t.Errorf("End = %v, want %v", w.End, now)
	}
	if w.Remaining(now) != 0 {
		t.Errorf("Remaining = %v, want 0 for rolling window", w.Remaining(now))
	}
}

func TestResolveWindowEpoch(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 34, 56, 0, time.UTC)
	w := ResolveWindow(now, 5, core.AnchorEpoch, nil)

	length := 5 * time.Hour
	if w.Start.UnixMilli()%length.Milliseconds() != 0 {
		t.Errorf("Start %v is not a multiple of the window length", w.Start)
	}
	if w.Start.After(now) || !w.End.After(now) {
		t.Errorf("window [%v, %v) does not contain now %v", w.Start, w.End, now)
	}
	if w.End.Sub(w.Start) != length {
		t.Errorf("window length = %v, want %v", w.End.Sub(w.Start), length)
	}
	if w.Anchor != core.AnchorEpoch || w.Anchor.Label() != "Epoch-aligned" {
		t.Errorf("Anchor = %q, want epoch", w.Anchor)
	}
	want := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	if !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
}

func TestResolveWindowResetOverride(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		reset    time.Time
		override bool
	}{
		{"inside window", now.Add(2 * time.Hour), true},
		{"in the past", now.Add(-time.Minute), false},
		{"equal to now", now, false},
		{"beyond window", now.Add(5 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset := tt.reset
			w := ResolveWindow(now, 5, core.AnchorRolling, &reset)
			if tt.override {
				if !w.End.Equal(reset) || !w.Start.Equal(reset.Add(-5*time.Hour)) {
					t.Errorf("window = [%v, %v), want ending at %v", w.Start, w.End, reset)
				}
				if w.Remaining(now) != 2*time.Hour {
					t.Errorf("Remaining = %v, want 2h", w.Remaining(now))
				}
				return
			}
			if !w.End.Equal(now) {
				t.Errorf("End = %v, want rolling end %v", w.End, now)
			}
		})
	}
}

func TestComputeBlockBurnAndEta(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	events := []core.Event{
		usageEvent(now.Add(-3*time.Hour), 280),
		usageEvent(now.Add(-5*time.Minute), 70),
		usageEvent(now.Add(-2*time.Minute), 50),
		usageEvent(now.Add(-6*time.Hour), 999), // outside the block
	}
	opts := DefaultOptions()
	opts.TokenLimit = 1000

	stats := ComputeBlock(events, opts, now, nil)

	if stats.TokensInBlock != 400 {
		t.Errorf("TokensInBlock = %d, want 400", stats.TokensInBlock)
	}
	if stats.Burn.TokensPerMinute != 12 {
		t.Errorf("TokensPerMinute = %v, want 12", stats.Burn.TokensPerMinute)
	}
	if stats.Burn.WindowMinutes != 10 {
		t.Errorf("WindowMinutes = %d, want 10", stats.Burn.WindowMinutes)
	}
	if stats.TokenLimit == nil || *stats.TokenLimit != 1000 {
		t.Errorf("TokenLimit = %v, want 1000", stats.TokenLimit)
	}
	if stats.PercentOfLimit == nil || *stats.PercentOfLimit != 40 {
		t.Errorf("PercentOfLimit = %v, want 40", stats.PercentOfLimit)
	}
	if stats.EtaMinutesToLimit == nil || math.Abs(*stats.EtaMinutesToLimit-50) > 1e-9 {
		t.Errorf("EtaMinutesToLimit = %v, want 50", stats.EtaMinutesToLimit)
	}
	if stats.ExplicitReset != nil {
		t.Errorf("ExplicitReset = %v, want nil", stats.ExplicitReset)
	}
}

func TestComputeBlockWithoutLimit(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	stats := ComputeBlock([]core.Event{usageEvent(now.Add(-time.Minute), 30)}, DefaultOptions(), now, nil)

	if stats.TokenLimit != nil || stats.PercentOfLimit != nil || stats.EtaMinutesToLimit != nil {
		t.Errorf("limit fields should be absent without a cap: %+v", stats)
	}
	if stats.Burn.TokensPerMinute != 3 {
		t.Errorf("TokensPerMinute = %v, want 3", stats.Burn.TokensPerMinute)
	}
}

func TestComputeBlockLimitClampsAndIdleEta(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	opts := DefaultOptions()
	opts.TokenLimit = 100

	stats := ComputeBlock([]core.Event{usageEvent(now.Add(-2*time.Hour), 250)}, opts, now, nil)

	if *stats.PercentOfLimit != 100 {
		t.Errorf("PercentOfLimit = %v, want clamped to 100", *stats.PercentOfLimit)
	}
	if stats.EtaMinutesToLimit != nil {
		t.Errorf("EtaMinutesToLimit = %v, want nil when burn is zero", *stats.EtaMinutesToLimit)
	}

	stats = ComputeBlock([]core.Event{
		usageEvent(now.Add(-2*time.Hour), 250),
		usageEvent(now.Add(-time.Minute), 10),
	}, opts, now, nil)
	if stats.EtaMinutesToLimit == nil || *stats.EtaMinutesToLimit != 0 {
		t.Errorf("EtaMinutesToLimit = %v, want 0 once over the cap", stats.EtaMinutesToLimit)
	}
}

func TestComputeBlockBurnWindowClippedToBlockStart(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 30, 0, time.UTC)
	reset := now.Add(5*time.Hour - 4*time.Minute) // window started 4 minutes ago
	opts := DefaultOptions()

	stats := ComputeBlock([]core.Event{usageEvent(now.Add(-time.Minute), 40)}, opts, now, &reset)

	if stats.ExplicitReset == nil || !stats.ExplicitReset.Equal(reset) {
		t.Errorf("ExplicitReset = %v, want %v", stats.ExplicitReset, reset)
	}
	if stats.Burn.TokensPerMinute != 10 {
		t.Errorf("TokensPerMinute = %v, want 10 over the 4 elapsed minutes", stats.Burn.TokensPerMinute)
	}
}

func TestComputeBlockBurnSeries(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 30, 0, time.UTC)
	events := []core.Event{
		usageEvent(now.Add(-10*time.Second), 5),
		usageEvent(now.Add(-20*time.Second), 7),
		usageEvent(now.Add(-59*time.Minute), 3),
		usageEvent(now.Add(-61*time.Minute), 100),
	}

	stats := ComputeBlock(events, DefaultOptions(), now, nil)
	series := stats.BurnSeries

	if len(series) != BurnSeriesMinutes {
		t.Fatalf("len(BurnSeries) = %d, want %d", len(series), BurnSeriesMinutes)
	}
	last := series[len(series)-1]
	if last.MinuteKey != "2025-01-15T12:00:00.000Z" || last.Tokens != 12 || last.Messages != 2 {
		t.Errorf("last bucket = %+v", last)
	}
	if series[0].MinuteKey != "2025-01-15T11:01:00.000Z" || series[0].Tokens != 3 {
		t.Errorf("first bucket = %+v", series[0])
	}
	total := 0
	for _, b := range series {
		total += b.Tokens
	}
	if total != 15 {
		t.Errorf("series total = %d, want 15", total)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int64 }{
		{7, 5, 1},
		{10, 5, 2},
		{-1, 5, -1},
		{-5, 5, -1},
		{-6, 5, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
