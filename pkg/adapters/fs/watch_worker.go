package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/postbed/postbed/pkg/core"
)

// watchWorker drives an fsnotify watcher over the vault and forwards
// debounced post events to the channel handed out by Repository.Watch.
type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc

	// gitBusy is set while .git/index.lock exists; vault events observed
	// during a git operation are dropped and recovered by reconciliation.
	gitBusy bool
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.repo.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	// Watch .git itself so index.lock pauses event processing while git runs.
	_ = watcher.Add(filepath.Join(w.repo.Path, ".git"))

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// run owns the watcher for its whole lifetime. The debouncer shutdown is
// not deferred: it must finish before the caller closes the events channel.
func (w *watchWorker) run(ctx context.Context) error {
	defer func() {
		if recovered := recover(); recovered != nil {
			w.logPanic(ctx, recovered)
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err := w.loop(ctx)

	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case werr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			if w.repo.config.Logger != nil {
				w.repo.config.Logger.Error("fsnotify error", "error", werr)
			}
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(werr)
			}
		}
	}
}

func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	if w.gitLockTransition(ctx, event) {
		return
	}
	if w.gitBusy {
		return
	}

	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Debug("event received", "name", event.Name)
	}

	// New directories need to join the watch set before filtering:
	// shouldIgnore would drop them for lacking a supported extension.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			base := filepath.Base(event.Name)
			if base != ".git" && base != w.repo.config.SystemDir {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	}

	if w.repo.shouldIgnore(event, w.pattern) {
		return
	}

	etype := w.repo.mapEventType(event)
	if etype == "" {
		return
	}

	id, err := w.repo.resolveID(event.Name)
	if err != nil {
		if w.repo.config.ErrorHandler != nil {
			w.repo.config.ErrorHandler(fmt.Errorf("failed to resolve ID for %s: %w", event.Name, err))
		} else if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("resolveID failed", "path", event.Name, "err", err)
		}
		return
	}

	w.emit(ctx, core.Event{
		Type:      etype,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})
}

// gitLockTransition tracks .git/index.lock appearing and disappearing.
// Reports whether the event belonged to the lock file.
func (w *watchWorker) gitLockTransition(ctx context.Context, event fsnotify.Event) bool {
	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		w.gitBusy = true
		if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("git operations detected, pausing watcher")
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		wasBusy := w.gitBusy
		w.gitBusy = false
		if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("git operations finished, reconciling")
		}
		if wasBusy {
			w.reconcileAsync(ctx)
		}
	}
	return true
}

// reconcileAsync catches up on events swallowed while git held the lock.
func (w *watchWorker) reconcileAsync(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		missed, err := w.repo.Reconcile(ctx)
		if err != nil {
			if w.repo.config.Logger != nil {
				w.repo.config.Logger.Error("reconcile failed", "error", err)
			}
			return err
		}
		for _, e := range missed {
			w.emit(ctx, e)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if w.repo.config.ErrorHandler != nil {
			w.repo.config.ErrorHandler(fmt.Errorf("reconcile panic: %w", err))
		} else if w.repo.config.Logger != nil {
			w.repo.config.Logger.Error("reconcile panic", "error", err)
		}
	}))
}

// emit routes the event through the debouncer. The recover guards against
// the events channel closing mid-flight during shutdown.
func (w *watchWorker) emit(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) logPanic(ctx context.Context, recovered any) {
	if w.repo.config.Logger == nil {
		return
	}
	args := []any{"error", fmt.Errorf("watcher panic: %v", recovered)}
	if w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
		args = append(args, "stack", string(debug.Stack()))
	}
	w.repo.config.Logger.Error("watcher panic", args...)
}
