package analytics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/discovery"
	"github.com/janekbaraniewski/codexusage/internal/parsers"
	"github.com/janekbaraniewski/codexusage/internal/resets"
)

// ErrNoSessionRoots is reported when none of the configured roots has an
// accessible sessions directory.
var ErrNoSessionRoots = errors.New("no accessible sessions directory")

// Corpus is one fresh read of every discovered session file.
type Corpus struct {
	Files        []discovery.File
	Events       []core.Event
	MissingRoots []string
}

func (c Corpus) Paths() []string {
	return discovery.Result{Files: c.Files}.Paths()
}

// Engine recomputes every view from the raw files on each call. It holds no
// state between calls besides its options.
type Engine struct {
	opts Options
	now  func() time.Time
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.normalized(), now: time.Now}
}

// SetClock replaces the wall clock used for block and tail windows.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

func (e *Engine) Options() Options { return e.opts }

// CheckRoots returns ErrNoSessionRoots when no root can be read.
func (e *Engine) CheckRoots() error {
	if len(e.opts.Roots) == 0 {
		return fmt.Errorf("%w: no roots configured", ErrNoSessionRoots)
	}
	for _, root := range e.opts.Roots {
		if st, err := os.Stat(discovery.SessionsDir(root)); err == nil && st.IsDir() {
			return nil
		}
	}
	return fmt.Errorf("%w under %s", ErrNoSessionRoots, strings.Join(e.opts.Roots, ", "))
}

// Load discovers and parses the whole corpus. Only context cancellation is
// returned as an error; unreadable roots, files and lines are skipped.
func (e *Engine) Load(ctx context.Context) (Corpus, error) {
	found, err := discovery.Discover(ctx, e.opts.Roots, e.opts.Limit)
	if err != nil {
		return Corpus{}, fmt.Errorf("discovering session files: %w", err)
	}
	for _, root := range found.MissingRoots {
		log.Printf("[analytics] skipping root without sessions dir: %s", root)
	}

	events, err := parsers.LoadEvents(ctx, found.Paths())
	if err != nil {
		return Corpus{}, fmt.Errorf("reading session files: %w", err)
	}
	return Corpus{Files: found.Files, Events: events, MissingRoots: found.MissingRoots}, nil
}

func (e *Engine) Snapshot(ctx context.Context) (core.Snapshot, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return e.snapshotOf(corpus), nil
}

func (e *Engine) Daily(ctx context.Context) ([]core.DayRow, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	return DailyRollup(corpus.Events, e.opts.Location), nil
}

func (e *Engine) Monthly(ctx context.Context) ([]core.MonthRow, error) {
	days, err := e.Daily(ctx)
	if err != nil {
		return nil, err
	}
	return MonthlyRollup(days), nil
}

func (e *Engine) Sessions(ctx context.Context, n int) ([]core.SessionRow, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Sessions(corpus.Events, corpus.Paths(), n), nil
}

func (e *Engine) Block(ctx context.Context) (core.BlockStats, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return core.BlockStats{}, err
	}
	return e.blockOf(corpus), nil
}

func (e *Engine) Recent(ctx context.Context) ([]core.RecentEvent, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	return RecentTail(corpus.Events, e.now(), e.opts.TailMinutes, e.opts.TailMax), nil
}

// Dashboard builds the snapshot and block stats from a single corpus read.
func (e *Engine) Dashboard(ctx context.Context) (core.Dashboard, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.Dashboard{
		Snapshot: e.snapshotOf(corpus),
		Block:    e.blockOf(corpus),
	}, nil
}

// Export is every view derived from one corpus read, for persisting.
type Export struct {
	Snapshot core.Snapshot
	Daily    []core.DayRow
	Sessions []core.SessionRow
	Block    core.BlockStats
}

// Export builds all views from a single read; Sessions covers every file.
func (e *Engine) Export(ctx context.Context) (Export, error) {
	corpus, err := e.Load(ctx)
	if err != nil {
		return Export{}, err
	}
	paths := corpus.Paths()
	return Export{
		Snapshot: e.snapshotOf(corpus),
		Daily:    DailyRollup(corpus.Events, e.opts.Location),
		Sessions: Sessions(corpus.Events, paths, max(len(paths), 1)),
		Block:    e.blockOf(corpus),
	}, nil
}

func (e *Engine) snapshotOf(corpus Corpus) core.Snapshot {
	snap := BuildSnapshot(corpus.Events, e.now())
	snap.Files = len(corpus.Files)
	return snap
}

func (e *Engine) blockOf(corpus Corpus) core.BlockStats {
	var reset *time.Time
	if t, ok := resets.Scan(corpus.Events); ok {
		reset = &t
	}
	return ComputeBlock(corpus.Events, e.opts, e.now(), reset)
}
