package pdftext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

// Watcher evicts cached text when a file in the uploads dir is rewritten,
// renamed or removed.
type Watcher struct {
	log     *logger.Logger
	dir     string
	cache   Cache
	watcher *fsnotify.Watcher
}

func NewWatcher(log *logger.Logger, dir string, cache Cache) (*Watcher, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(abs); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	return &Watcher{
		log:     log.With("service", "UploadsWatcher"),
		dir:     abs,
		cache:   cache,
		watcher: w,
	}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !evicts(event) {
				continue
			}
			key := CacheKey(filepath.Clean(event.Name))
			if err := w.cache.Delete(ctx, key); err != nil {
				w.log.Warn("cache eviction failed", "file", event.Name, "error", err)
				continue
			}
			w.log.Debug("evicted cached text", "file", filepath.Base(event.Name), "op", event.Op.String())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("uploads watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func evicts(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Create)
}
