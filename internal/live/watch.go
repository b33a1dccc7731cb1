package live

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/janekbaraniewski/codexusage/internal/discovery"
)

// Watch builds the initial value synchronously, then rebuilds after file
// changes under dirs. The first relevant notification arms a single timer of
// length debounce; notifications arriving while it is armed are absorbed and
// do not extend it.
func Watch[T any](ctx context.Context, dirs []string, debounce time.Duration, build BuildFunc[T]) (*Subscription[T], error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	for _, dir := range dirs {
		addTree(fsw, dir)
	}

	sub := newSubscription[T](ctx)
	sub.rebuild(build)
	go watchLoop(sub, fsw, debounce, build)
	return sub, nil
}

func watchLoop[T any](sub *Subscription[T], fsw *fsnotify.Watcher, debounce time.Duration, build BuildFunc[T]) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer sub.finish()
	defer fsw.Close()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-sub.ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !relevant(fsw, ev) {
				continue
			}
			if fire == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[live] watcher error: %v", err)
		case <-fire:
			timer, fire = nil, nil
			sub.rebuild(build)
		}
	}
}

// relevant reports whether ev should trigger a rebuild. Newly created
// directories are added to the watch set and count as a change, since files
// may already exist in them.
func relevant(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			addTree(fsw, ev.Name)
			return true
		}
	}
	if filepath.Ext(ev.Name) != discovery.LogExtension {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func addTree(fsw *fsnotify.Watcher, dir string) {
	for _, d := range discovery.SubDirs(dir) {
		if err := fsw.Add(d); err != nil {
			log.Printf("[live] cannot watch %s: %v", d, err)
		}
	}
}
