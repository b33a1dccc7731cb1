package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

func TestStoreInit_CreatesTables(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Init is repeatable.
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	for _, table := range []string{"export_runs", "daily_rows", "session_rows", "block_stats"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestStoreWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "usage.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()
	store.now = func() time.Time {
		return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	}

	limit := 1000
	pct := 40.0
	start := time.Date(2025, time.January, 15, 7, 0, 0, 0, time.UTC)
	report := Report{
		Roots:    []string{"/a", "/b"},
		Snapshot: core.Snapshot{GeneratedAt: start, Files: 2, TotalTokens: 400, TotalMessages: 3},
		Daily: []core.DayRow{
			{Date: "2025-01-14", Tokens: 100, Messages: 1},
			{Date: "2025-01-15", Tokens: 300, Messages: 2},
		},
		Sessions: []core.SessionRow{
			{Path: "/a/sessions/2025/01/15/rollout-a.jsonl", File: "2025/01/15/rollout-a.jsonl", Entries: 4, Tokens: 300, Started: start},
			{Path: "/a/sessions/2025/01/14/rollout-b.jsonl", File: "2025/01/14/rollout-b.jsonl", Entries: 1, Tokens: 100},
			{Path: "/b/sessions/2025/01/14/rollout-b.jsonl", File: "2025/01/14/rollout-b.jsonl", Entries: 2, Tokens: 7},
		},
		Block: core.BlockStats{
			Window:         core.BlockWindow{Start: start, End: start.Add(5 * time.Hour), WindowHours: 5},
			TokensInBlock:  400,
			TokenLimit:     &limit,
			PercentOfLimit: &pct,
			Burn:           core.Burn{TokensPerMinute: 12, WindowMinutes: 10},
		},
	}

	ctx := context.Background()
	runID, err := store.WriteReport(ctx, report)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	second, err := store.WriteReport(ctx, report)
	if err != nil {
		t.Fatalf("second WriteReport: %v", err)
	}
	if second <= runID {
		t.Errorf("run ids = %d, %d, want increasing", runID, second)
	}

	var roots string
	var total int
	if err := store.db.QueryRow(`SELECT roots, total_tokens FROM export_runs WHERE run_id = ?`, runID).Scan(&roots, &total); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if roots != "/a,/b" || total != 400 {
		t.Errorf("run = %s/%d, want /a,/b/400", roots, total)
	}

	var daySum int
	if err := store.db.QueryRow(`SELECT SUM(tokens) FROM daily_rows WHERE run_id = ?`, runID).Scan(&daySum); err != nil {
		t.Fatalf("query daily: %v", err)
	}
	if daySum != 400 {
		t.Errorf("daily sum = %d, want 400", daySum)
	}

	var sameLabel int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM session_rows WHERE run_id = ? AND file = ?`, runID, "2025/01/14/rollout-b.jsonl").Scan(&sameLabel); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sameLabel != 2 {
		t.Errorf("sessions sharing a label across roots = %d, want 2", sameLabel)
	}

	var started sql.NullString
	if err := store.db.QueryRow(`SELECT started_at FROM session_rows WHERE run_id = ? AND path = ?`, runID, "/a/sessions/2025/01/14/rollout-b.jsonl").Scan(&started); err != nil {
		t.Fatalf("query session: %v", err)
	}
	if started.Valid {
		t.Errorf("started_at = %q, want NULL", started.String)
	}

	var (
		gotLimit sql.NullInt64
		eta      sql.NullFloat64
		burn     float64
	)
	if err := store.db.QueryRow(`SELECT token_limit, eta_minutes_to_limit, burn_tokens_per_minute FROM block_stats WHERE run_id = ?`, runID).Scan(&gotLimit, &eta, &burn); err != nil {
		t.Fatalf("query block: %v", err)
	}
	if !gotLimit.Valid || gotLimit.Int64 != 1000 {
		t.Errorf("token_limit = %v, want 1000", gotLimit)
	}
	if eta.Valid {
		t.Errorf("eta = %v, want NULL", eta.Float64)
	}
	if burn != 12 {
		t.Errorf("burn = %v, want 12", burn)
	}
}

func TestOpenStoreUsesWAL(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "wal.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	var mode string
	if err := store.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestStoreCloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil store = %v", err)
	}
}
