package compat

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/dittodav/internal/logger"
)

// Watcher reloads file-backed documents when their files change.
type Watcher struct {
	fsw  *fsnotify.Watcher
	docs map[string][]*Document // cleaned path -> documents backed by it
}

// NewWatcher watches the files behind docs. Static documents are ignored.
// The parent directory is watched so atomic replace-by-rename is seen.
func NewWatcher(docs ...*Document) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, docs: make(map[string][]*Document)}
	dirs := make(map[string]bool)
	for _, d := range docs {
		if d == nil || d.Path() == "" {
			continue
		}
		p := filepath.Clean(d.Path())
		w.docs[p] = append(w.docs[p], d)

		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Len returns the number of watched files.
func (w *Watcher) Len() int {
	return len(w.docs)
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			for _, d := range w.docs[filepath.Clean(ev.Name)] {
				if err := d.Reload(); err != nil {
					logger.Warn("Keeping previous compat document", "file", ev.Name, logger.Err(err))
					continue
				}
				logger.Info("Reloaded compat document", "file", ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Compat document watcher error", logger.Err(err))
		}
	}
}
