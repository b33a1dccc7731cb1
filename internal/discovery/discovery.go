// Package discovery enumerates Codex session logs under one or more base
// directories.
package discovery

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLimit keeps discovery effectively unbounded for normal use.
	DefaultLimit = 5000

	SessionsDirName = "sessions"
	LogExtension    = ".jsonl"

	sessionGlob     = "**/*" + LogExtension
	statConcurrency = 16
)

// File is one discovered session log.
type File struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Result lists discovered files oldest-first. MissingRoots holds the roots
// whose sessions directory could not be opened.
type Result struct {
	Files        []File
	MissingRoots []string
}

// Paths returns the file paths in discovery order.
func (r Result) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

// SessionsDir returns the directory holding session logs for a base root.
func SessionsDir(root string) string {
	return filepath.Join(root, SessionsDirName)
}

// Discover returns every *.jsonl file beneath <root>/sessions for each root,
// sorted ascending by modification time and truncated to the newest limit
// entries. A limit <= 0 means DefaultLimit.
func Discover(ctx context.Context, roots []string, limit int) (Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var result Result
	var paths []string
	for _, root := range roots {
		dir := SessionsDir(root)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			result.MissingRoots = append(result.MissingRoots, root)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(dir), sessionGlob, doublestar.WithFilesOnly())
		if err != nil {
			log.Printf("[discovery] glob %s: %v", dir, err)
			continue
		}
		for _, m := range matches {
			paths = append(paths, filepath.Join(dir, filepath.FromSlash(m)))
		}
	}

	files, err := statAll(ctx, paths)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	if len(files) > limit {
		files = files[len(files)-limit:]
	}
	result.Files = files
	return result, nil
}

// statAll stats paths concurrently. Results keep the input order; files that
// cannot be stat'ed are dropped.
func statAll(ctx context.Context, paths []string) ([]File, error) {
	stats := make([]*File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := os.Stat(p)
			if err != nil {
				if !os.IsNotExist(err) {
					log.Printf("[discovery] stat %s: %v", p, err)
				}
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			stats[i] = &File{Path: p, ModTime: info.ModTime(), Size: info.Size()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]File, 0, len(stats))
	for _, f := range stats {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

// WatchDirs returns every existing directory beneath each root's sessions
// directory, including the sessions directories themselves.
func WatchDirs(roots []string) []string {
	var dirs []string
	for _, root := range roots {
		dirs = append(dirs, SubDirs(SessionsDir(root))...)
	}
	return dirs
}

// SubDirs walks dir and returns it plus all of its subdirectories. A missing
// dir yields nil.
func SubDirs(dir string) []string {
	var dirs []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}
