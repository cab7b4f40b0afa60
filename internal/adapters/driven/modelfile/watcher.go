package modelfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/vantera-labs/bimctx/internal/logger"
)

// reprocessInterval bounds how often file changes may trigger the
// callback. Editors and exporters often emit bursts of write events
// for a single save.
const reprocessInterval = 2 * time.Second

// Watcher observes a model snapshot file and invokes a callback when
// it changes. Change bursts are collapsed through a rate limiter.
type Watcher struct {
	source  *Source
	limiter *rate.Limiter
	onEvent func(ctx context.Context) error
}

// NewWatcher creates a watcher over the source's file. The callback
// runs on the watcher goroutine after each debounced change.
func NewWatcher(source *Source, onEvent func(ctx context.Context) error) *Watcher {
	return &Watcher{
		source:  source,
		limiter: rate.NewLimiter(rate.Every(reprocessInterval), 1),
		onEvent: onEvent,
	}
}

// Run watches until the context is cancelled. The parent directory is
// watched rather than the file itself so that atomic rename-based
// saves keep being observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.source.Path())
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(w.source.Path())
	logger.Info("Watching %s for changes", target)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.limiter.Allow() {
				logger.Debug("Change to %s suppressed by rate limit", target)
				continue
			}
			logger.Info("Model file changed, re-processing")
			if err := w.onEvent(ctx); err != nil {
				logger.Warn("Re-processing failed: %v", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
