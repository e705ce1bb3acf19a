package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce groups bursts of file events (editors, bundlers) into
// one callback.
const DefaultDebounce = 300 * time.Millisecond

// Watcher runs a callback when files under its paths change.
type Watcher struct {
	Paths    []string
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Run blocks until ctx is done, calling fn after each debounced batch of
// changes. Errors from fn are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, p := range w.Paths {
		if err := addRecursive(watcher, p); err != nil {
			return err
		}
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w.Logger.Info().
		Str("event", "watch.started").
		Strs("paths", w.Paths).
		Msg("watching for changes")

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.Logger.Info().Str("event", "watch.stopped").Msg("watcher stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isHidden(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, ev.Name); err != nil {
						w.Logger.Warn().Err(err).Str("path", ev.Name).Msg("failed to watch new directory")
					}
				}
			}
			w.Logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			trigger = timer.C

		case <-trigger:
			trigger = nil
			start := time.Now()
			if err := fn(); err != nil {
				w.Logger.Error().Err(err).Str("event", "watch.sync_failed").Msg("sync failed")
				continue
			}
			w.Logger.Info().
				Str("event", "watch.synced").
				Dur("took", time.Since(start)).
				Msg("synced")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// addRecursive watches path and, if it is a directory, every non-hidden
// directory below it. A single file is watched through its parent so
// atomic replaces are seen.
func addRecursive(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && isHidden(p) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
