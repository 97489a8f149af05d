package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/postbed/postbed/pkg/core"
)

// Watch starts observing the vault for changes matching the glob pattern
// (doublestar syntax, matched against the vault-relative path; empty
// matches everything). The returned channel closes when ctx is cancelled.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	events := make(chan core.Event, r.config.EventBuffer)

	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
		close(events)
	}()

	return events, nil
}

// recursiveAdd registers every directory under the vault with the
// watcher, skipping .git and the system dir.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || d.Name() == r.config.SystemDir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// shouldIgnore filters out events the vault does not care about:
// system files, lock files, atomic-write temp files, unsupported
// extensions, and paths outside the subscription pattern.
func (r *Repository) shouldIgnore(event fsnotify.Event, pattern string) bool {
	base := filepath.Base(event.Name)

	if strings.HasPrefix(base, TempFilePrefix) {
		return true
	}
	if base == r.config.SystemDir+".lock" || base == ".gitignore" {
		return true
	}

	rel, err := filepath.Rel(r.Path, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	rel = filepath.ToSlash(rel)

	for _, part := range strings.Split(rel, "/") {
		if part == ".git" || part == r.config.SystemDir {
			return true
		}
	}

	ext := filepath.Ext(base)
	if _, ok := r.serializers[ext]; !ok {
		return true
	}

	if pattern != "" {
		match, err := doublestar.Match(pattern, rel)
		if err != nil || !match {
			return true
		}
	}

	return false
}

// mapEventType translates fsnotify ops into vault event types.
// Chmod-only events map to the empty string and are dropped.
func (r *Repository) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// resolveID maps an absolute file path back to a post ID.
func (r *Repository) resolveID(absPath string) (string, error) {
	rel, err := filepath.Rel(r.Path, absPath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)

	ext := filepath.Ext(rel)
	if ext == ".md" || ext == ".markdown" {
		rel = strings.TrimSuffix(rel, ext)
	}
	return rel, nil
}

// Reconcile rescans the vault and emits synthetic events for anything
// that changed while the watcher was paused (e.g. during git operations).
func (r *Repository) Reconcile(ctx context.Context) ([]core.Event, error) {
	var events []core.Event
	now := time.Now().Unix()
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == r.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(d.Name())
		if _, ok := r.serializers[ext]; !ok {
			return nil
		}
		if strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		rel, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		info, err := d.Info()
		if err != nil {
			return nil
		}

		id, err := r.resolveID(path)
		if err != nil {
			return nil
		}

		if _, hit := r.cache.Get(rel, info.ModTime()); hit {
			return nil // Unchanged
		}

		eType := core.EventModify
		if !r.cache.hasEntry(rel) {
			eType = core.EventCreate
		}

		events = append(events, core.Event{Type: eType, ID: id, Timestamp: now})

		r.cache.Set(rel, &indexEntry{ID: id, LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deletions: cache entries whose files are gone.
	var removed []string
	r.cache.Range(func(relPath string, entry *indexEntry) bool {
		if !seen[relPath] {
			events = append(events, core.Event{Type: core.EventDelete, ID: entry.ID, Timestamp: now})
			removed = append(removed, relPath)
		}
		return true
	})
	for _, relPath := range removed {
		r.cache.Delete(relPath)
	}

	r.recordReconcile()
	return events, nil
}
