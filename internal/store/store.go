// Package store writes computed usage reports to a SQLite file for external
// tooling. Nothing in codexusage reads the file back.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

// Report is one export run.
type Report struct {
	Roots    []string
	Snapshot core.Snapshot
	Daily    []core.DayRow
	Sessions []core.SessionRow
	Block    core.BlockStats
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// sqliteDSNParams enables WAL and waits on a locked file instead of failing.
const sqliteDSNParams = "?_journal_mode=WAL&_busy_timeout=5000"

func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating DB dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+sqliteDSNParams)
	if err != nil {
		return nil, fmt.Errorf("store: opening DB: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := NewStore(db)
	if err := store.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS export_runs (
			run_id INTEGER PRIMARY KEY AUTOINCREMENT,
			exported_at TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			roots TEXT NOT NULL,
			files INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			total_messages INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_rows (
			run_id INTEGER NOT NULL,
			day TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			messages INTEGER NOT NULL,
			PRIMARY KEY (run_id, day),
			FOREIGN KEY(run_id) REFERENCES export_runs(run_id)
		);`,
		`CREATE TABLE IF NOT EXISTS session_rows (
			run_id INTEGER NOT NULL,
			path TEXT NOT NULL,
			file TEXT NOT NULL,
			entries INTEGER NOT NULL,
			tokens INTEGER NOT NULL,
			started_at TEXT,
			PRIMARY KEY (run_id, path),
			FOREIGN KEY(run_id) REFERENCES export_runs(run_id)
		);`,
		`CREATE TABLE IF NOT EXISTS block_stats (
			run_id INTEGER PRIMARY KEY,
			window_start TEXT NOT NULL,
			window_end TEXT NOT NULL,
			window_hours INTEGER NOT NULL,
			explicit_reset TEXT,
			tokens_in_block INTEGER NOT NULL,
			token_limit INTEGER,
			percent_of_limit REAL,
			remaining_ms INTEGER NOT NULL,
			burn_tokens_per_minute REAL NOT NULL,
			burn_window_minutes INTEGER NOT NULL,
			eta_minutes_to_limit REAL,
			FOREIGN KEY(run_id) REFERENCES export_runs(run_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_rows_day ON daily_rows(day);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// WriteReport stores r in one transaction and returns its run id.
func (s *Store) WriteReport(ctx context.Context, r Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO export_runs (exported_at, generated_at, roots, files, total_tokens, total_messages)
		VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(s.now()), formatTime(r.Snapshot.GeneratedAt), strings.Join(r.Roots, ","),
		r.Snapshot.Files, r.Snapshot.TotalTokens, r.Snapshot.TotalMessages,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: run id: %w", err)
	}

	for _, row := range r.Daily {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_rows (run_id, day, tokens, messages) VALUES (?, ?, ?, ?)`,
			runID, row.Date, row.Tokens, row.Messages,
		); err != nil {
			return 0, fmt.Errorf("store: insert daily row %s: %w", row.Date, err)
		}
	}

	for _, row := range r.Sessions {
		var started any
		if !row.Started.IsZero() {
			started = formatTime(row.Started)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_rows (run_id, path, file, entries, tokens, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, row.Path, row.File, row.Entries, row.Tokens, started,
		); err != nil {
			return 0, fmt.Errorf("store: insert session row %s: %w", row.Path, err)
		}
	}

	if err := insertBlock(ctx, tx, runID, r.Block); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return runID, nil
}

func insertBlock(ctx context.Context, tx *sql.Tx, runID int64, b core.BlockStats) error {
	var reset any
	if b.ExplicitReset != nil {
		reset = formatTime(*b.ExplicitReset)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO block_stats (
			run_id, window_start, window_end, window_hours, explicit_reset, tokens_in_block,
			token_limit, percent_of_limit, remaining_ms, burn_tokens_per_minute,
			burn_window_minutes, eta_minutes_to_limit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, formatTime(b.Window.Start), formatTime(b.Window.End), b.Window.WindowHours, reset,
		b.TokensInBlock, nullable(b.TokenLimit), nullable(b.PercentOfLimit), b.RemainingMs,
		b.Burn.TokensPerMinute, b.Burn.WindowMinutes, nullable(b.EtaMinutesToLimit),
	)
	if err != nil {
		return fmt.Errorf("store: insert block stats: %w", err)
	}
	return nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
