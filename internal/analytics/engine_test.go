package analytics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

func writeSession(t *testing.T, root, day, name string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(root, "sessions", day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testEngine(t *testing.T, roots []string, now time.Time) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Roots = roots
	opts.TokenLimit = 1000
	opts.Location = time.UTC
	e := NewEngine(opts)
	e.SetClock(func() time.Time { return now })
	return e
}

func TestEngineDashboard(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	writeSession(t, root, "2025/01/15", "rollout-1.jsonl",
		`{"timestamp":"2025-01-15T09:00:00Z","usage":{"input_tokens":200,"output_tokens":80}}`,
		`{"timestamp":"2025-01-15T11:55:00Z","usage":{"input_tokens":100,"output_tokens":20}}`,
		`not json`,
		`{"timestamp":"2025-01-15T11:58:00Z","text":"abcdabcd"}`,
	)
	missing := filepath.Join(t.TempDir(), "nope")

	e := testEngine(t, []string{root, missing}, now)
	dash, err := e.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	snap := dash.Snapshot
	if snap.Files != 1 {
		t.Errorf("Files = %d, want 1", snap.Files)
	}
	if snap.TotalTokens != 402 {
		t.Errorf("TotalTokens = %d, want 402", snap.TotalTokens)
	}
	if snap.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d, want 3", snap.TotalMessages)
	}
	if len(snap.Timeline) != 3 {
		t.Errorf("Timeline = %v, want 3 minutes", snap.Timeline)
	}
	if !snap.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", snap.GeneratedAt, now)
	}

	block := dash.Block
	if block.TokensInBlock != 402 {
		t.Errorf("TokensInBlock = %d, want 402", block.TokensInBlock)
	}
	// 122 tokens in the trailing 10 minutes.
	if block.Burn.TokensPerMinute != 12.2 {
		t.Errorf("TokensPerMinute = %v, want 12.2", block.Burn.TokensPerMinute)
	}
	if block.PercentOfLimit == nil || *block.PercentOfLimit != 40.2 {
		t.Errorf("PercentOfLimit = %v, want 40.2", block.PercentOfLimit)
	}
}

func TestEngineReports(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	writeSession(t, root, "2025/01/15", "rollout-1.jsonl",
		`{"timestamp":"2025-01-15T09:00:00Z","text":"abcdabcd"}`,
	)
	writeSession(t, root, "2025/02/01", "rollout-2.jsonl",
		`{"timestamp":"2025-02-01T09:55:00Z","usage":{"input_tokens":10}}`,
		`{"timestamp":"2025-02-01T09:56:00Z","usage":{"input_tokens":5}}`,
	)
	e := testEngine(t, []string{root}, now)
	ctx := context.Background()

	days, err := e.Daily(ctx)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if len(days) != 2 || days[0].Date != "2025-01-15" || days[1].Tokens != 15 {
		t.Errorf("Daily() = %+v", days)
	}

	months, err := e.Monthly(ctx)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}
	if len(months) != 2 || months[1].Month != "2025-02" || months[1].Messages != 2 {
		t.Errorf("Monthly() = %+v", months)
	}

	sessions, err := e.Sessions(ctx, 0)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("Sessions() returned %d rows, want 2", len(sessions))
	}

	recent, err := e.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[1].Tokens != 5 {
		t.Errorf("Recent() = %+v", recent)
	}
}

func TestEngineBlockHonoursResetHint(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	// 1736946000 is 2025-01-15T13:00:00Z.
	writeSession(t, root, "2025/01/15", "rollout-1.jsonl",
		`{"timestamp":"2025-01-15T07:30:00Z","usage":{"input_tokens":50}}`,
		`{"timestamp":"2025-01-15T11:00:00Z","text":"usage limit reached, resets at 1736946000"}`,
	)
	e := testEngine(t, []string{root}, now)

	block, err := e.Block(context.Background())
	if err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	wantEnd := time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC)
	if block.ExplicitReset == nil || !block.ExplicitReset.Equal(wantEnd) {
		t.Fatalf("ExplicitReset = %v, want %v", block.ExplicitReset, wantEnd)
	}
	if !block.Window.End.Equal(wantEnd) {
		t.Errorf("Window.End = %v, want %v", block.Window.End, wantEnd)
	}
	if block.RemainingMs != time.Hour.Milliseconds() {
		t.Errorf("RemainingMs = %d, want one hour", block.RemainingMs)
	}
	// The 07:30 event falls before the 08:00 window start.
	if block.TokensInBlock >= 50 {
		t.Errorf("TokensInBlock = %d, want the 07:30 event excluded", block.TokensInBlock)
	}
}

func TestEngineEmptyCorpus(t *testing.T) {
	e := testEngine(t, []string{t.TempDir()}, time.Now())

	snap, err := e.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.TotalTokens != 0 || snap.TotalMessages != 0 || len(snap.Timeline) != 0 || len(snap.Points) != 0 {
		t.Errorf("Snapshot() = %+v, want empty", snap)
	}
	if !errors.Is(e.CheckRoots(), ErrNoSessionRoots) {
		t.Errorf("CheckRoots() = %v, want ErrNoSessionRoots", e.CheckRoots())
	}
}

func TestEngineCheckRoots(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sessions"), 0o755); err != nil {
		t.Fatal(err)
	}
	e := testEngine(t, []string{filepath.Join(t.TempDir(), "missing"), root}, time.Now())
	if err := e.CheckRoots(); err != nil {
		t.Errorf("CheckRoots() = %v, want nil", err)
	}

	if err := NewEngine(Options{}).CheckRoots(); !errors.Is(err, ErrNoSessionRoots) {
		t.Errorf("CheckRoots() without roots = %v, want ErrNoSessionRoots", err)
	}
}

func TestEngineLoadCancelled(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "2025/01/15", "rollout-1.jsonl", `{"text":"x"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testEngine(t, []string{root}, time.Now()).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestNormalizedOptions(t *testing.T) {
	opts := Options{TokenLimit: -5, Anchor: core.Anchor("weird")}.normalized()
	def := DefaultOptions()
	if opts.Limit != def.Limit || opts.WindowHours != def.WindowHours || opts.BurnWindowMinutes != def.BurnWindowMinutes {
		t.Errorf("normalized() = %+v, want defaults", opts)
	}
	if opts.TokenLimit != 0 {
		t.Errorf("TokenLimit = %d, want 0", opts.TokenLimit)
	}
	if opts.Anchor != core.AnchorRolling {
		t.Errorf("Anchor = %s, want rolling", opts.Anchor)
	}
	if opts.Location == nil {
		t.Error("Location is nil")
	}
}
