package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const debounceTime = 100 * time.Millisecond

// Watcher calls onChange after the git directory stops changing for
// debounceTime. It watches the git directory itself (HEAD, packed-refs) and
// every directory below refs/. onChange runs on the event loop, so Wait also
// waits for a call in progress.
type Watcher struct {
	gitDir   string
	onChange func()
	logger   *log.Logger
	debounce time.Duration
	wg       sync.WaitGroup
}

// NewWatcher returns a watcher for gitDir.
func NewWatcher(gitDir string, onChange func(), logger *log.Logger) *Watcher {
	return &Watcher{gitDir: gitDir, onChange: onChange, logger: logger, debounce: debounceTime}
}

// Start registers the watches and processes events in the background until
// ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(w.gitDir); err != nil {
		watcher.Close()
		return err
	}
	refsDir := filepath.Join(w.gitDir, "refs")
	err = filepath.WalkDir(refsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return err
	}

	w.wg.Add(1)
	go w.watchLoop(ctx, watcher)

	w.logger.Info("watching repository for changes", "gitDir", w.gitDir)
	return nil
}

// Wait blocks until the event loop, and any onChange it is running, has
// exited.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	var (
		debounceTimer *time.Timer
		debounceCh    <-chan time.Time
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-debounceCh:
			debounceCh = nil
			if ctx.Err() != nil {
				return
			}
			w.onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// New ref namespaces (refs/heads/feature/...) need their own watch
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					w.logger.Warn("cannot watch directory", "path", event.Name, "err", err)
				}
			}
			if shouldIgnoreEvent(event) {
				continue
			}

			w.logger.Debug("change detected", "path", filepath.Base(event.Name), "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	path := filepath.ToSlash(event.Name)

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return true
	}
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if strings.Contains(path, "/logs/") {
		return true
	}
	if base == "config" || base == "index" {
		return true
	}

	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
