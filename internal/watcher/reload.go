package watcher

import (
	"context"
	"log/slog"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/logger"
)

// ReloadFunc re-reads a watched document. It reports whether the in-memory
// state changed.
type ReloadFunc func(ctx context.Context) (bool, error)

// Reloader calls a ReloadFunc whenever the watched document settles.
type Reloader struct {
	watcher *Watcher
	reload  ReloadFunc
	logger  *slog.Logger
}

// NewReloader creates a Reloader consuming w's events.
func NewReloader(w *Watcher, reload ReloadFunc, log *slog.Logger) *Reloader {
	return &Reloader{
		watcher: w,
		reload:  reload,
		logger:  log,
	}
}

// Run consumes watcher events until ctx is cancelled or the watcher stops.
func (r *Reloader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.watcher.Events():
			if !ok {
				return
			}
			r.handle(ctx, event)
		case err := <-r.watcher.Errors():
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (r *Reloader) handle(ctx context.Context, event Event) {
	log := r.logger.With("path", event.Path, "event", event.Type.String())

	if event.Type == EventRemoved {
		log.Warn("watched document removed, keeping loaded tags")
		return
	}

	changed, err := r.reload(ctx)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeCorrupt {
			log.Error("document is corrupt, keeping loaded tags", "error", err)
			return
		}
		log.Error("failed to reload document", "error", err)
		return
	}

	if !changed {
		log.Debug("document unchanged")
		return
	}
	logger.Success(log, "reloaded document", "size", event.Size)
}
