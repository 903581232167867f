package runner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/buildwatch/internal/session"
)

// SessionFactory creates a fresh session for each observed build.
type SessionFactory func() (*session.Session, error)

// Watch attaches to builds run by another process. A write burst in the
// bundle output directory marks a build in progress; once writes quiesce
// for the settle window the build is considered complete and the session's
// completion checks run. The cycle repeats for every rebuild.
type Watch struct {
	root       string
	settle     time.Duration
	newSession SessionFactory
	logger     *slog.Logger
}

// NewWatch creates a watcher over the bundle output directory root.
func NewWatch(root string, settle time.Duration, factory SessionFactory, logger *slog.Logger) *Watch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watch{
		root:       root,
		settle:     settle,
		newSession: factory,
		logger:     logger,
	}
}

// Run watches until ctx is cancelled.
func (w *Watch) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := addRecursive(fsw, w.root); err != nil {
		return err
	}

	// Settle timer starts drained; it only runs while a build is in flight.
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var sess *session.Session

	for {
		select {
		case <-ctx.Done():
			if sess != nil {
				sess.Close()
			}
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if sess == nil {
				s, err := w.newSession()
				if err != nil {
					return fmt.Errorf("create session: %w", err)
				}
				sess = s
				if err := sess.Start(ctx); err != nil {
					w.logger.Warn("session start incomplete", slog.String("error", err.Error()))
				}
				w.logger.Debug("build detected", slog.String("path", ev.Name))
			}

			// New subdirectories join the watch as the bundler creates them
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = fsw.Add(ev.Name)
				}
			}

			resetTimer(timer, w.settle)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			if sess == nil {
				continue
			}
			if _, err := sess.Complete(ctx); err != nil {
				w.logger.Warn("completion checks incomplete", slog.String("error", err.Error()))
			}
			sess = nil
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watch root: %w", err)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
