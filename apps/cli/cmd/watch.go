package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/fsnotify/fsnotify"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

// watch re-runs the corpus whenever a test file or the interpreter changes.
// It returns when ctx is cancelled.
func (sess *session) watch(ctx context.Context) error {
	s := sess.settings

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			warnf("failed to watch %s: %v", dir, err)
			return
		}
		watchedDirs[dir] = true
	}

	for _, p := range s.Paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			addDir(filepath.Dir(p))
			continue
		}
		_ = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				addDir(path)
			}
			return nil
		})
	}

	interpreter := interpreterPath(s.Interpreter)
	if filepath.IsAbs(interpreter) {
		addDir(filepath.Dir(interpreter))
	}

	fmt.Fprintf(sess.info, "\nWatching for changes... (press Ctrl+C to stop)\n")

	var mu sync.Mutex
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// new directories under a watched tree may hold new tests
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					addDir(event.Name)
					continue
				}
			}

			if !runner.HasTestExtension(event.Name, s.Extensions) && !sameFile(event.Name, interpreter) {
				continue
			}

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				if ctx.Err() != nil {
					return
				}

				fmt.Fprintf(sess.info, "\n\nFile changed: %s\nRe-running tests...\n\n", name)
				if _, err := sess.runOnce(ctx); err != nil {
					warnf("%v", err)
				}
				fmt.Fprintf(sess.info, "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warnf("watcher error: %v", err)
		}
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
