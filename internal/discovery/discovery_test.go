package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSession(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverSortsByModTimeAcrossRoots(t *testing.T) {
	base := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	rootA := t.TempDir()
	rootB := t.TempDir()

	newest := filepath.Join(rootA, "sessions", "2025", "02", "10", "rollout-c.jsonl")
	oldest := filepath.Join(rootB, "sessions", "2025", "02", "08", "rollout-a.jsonl")
	middle := filepath.Join(rootA, "sessions", "rollout-b.jsonl")
	writeSession(t, newest, base.Add(2*time.Hour))
	writeSession(t, oldest, base)
	writeSession(t, middle, base.Add(time.Hour))

	// Ignored: wrong extension and outside the sessions directory.
	writeSession(t, filepath.Join(rootA, "sessions", "notes.txt"), base)
	writeSession(t, filepath.Join(rootA, "history.jsonl"), base)

	res, err := Discover(context.Background(), []string{rootA, rootB}, 0)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	got := res.Paths()
	want := []string{oldest, middle, newest}
	if len(got) != len(want) {
		t.Fatalf("Discover() returned %d files, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if len(res.MissingRoots) != 0 {
		t.Errorf("MissingRoots = %v, want none", res.MissingRoots)
	}
}

func TestDiscoverKeepsNewestWithinLimit(t *testing.T) {
	base := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	root := t.TempDir()
	var paths []string
	for i, name := range []string{"a", "b", "c", "d"} {
		p := filepath.Join(root, "sessions", name+".jsonl")
		writeSession(t, p, base.Add(time.Duration(i)*time.Minute))
		paths = append(paths, p)
	}

	res, err := Discover(context.Background(), []string{root}, 2)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	got := res.Paths()
	if len(got) != 2 || got[0] != paths[2] || got[1] != paths[3] {
		t.Errorf("Discover(limit=2) = %v, want %v", got, paths[2:])
	}
}

func TestDiscoverMissingRootIsNotAnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	res, err := Discover(context.Background(), []string{missing}, 10)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v, want none", res.Files)
	}
	if len(res.MissingRoots) != 1 || res.MissingRoots[0] != missing {
		t.Errorf("MissingRoots = %v, want [%s]", res.MissingRoots, missing)
	}
}

func TestDiscoverCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeSession(t, filepath.Join(root, "sessions", "a.jsonl"), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Discover(ctx, []string{root}, 0); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestWatchDirs(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "sessions", "2025", "02", "10")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	dirs := WatchDirs([]string{root, filepath.Join(root, "missing")})
	if len(dirs) != 4 {
		t.Fatalf("WatchDirs() = %v, want 4 dirs", dirs)
	}
	if dirs[0] != filepath.Join(root, "sessions") {
		t.Errorf("first dir = %s, want sessions root", dirs[0])
	}
	if dirs[3] != deep {
		t.Errorf("last dir = %s, want %s", dirs[3], deep)
	}
}
