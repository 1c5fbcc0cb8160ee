package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/config"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/store"
	"github.com/serousbot/serousbot/internal/watcher"
)

// FileWatcherHandle wraps the tag document watcher with shutdown capability.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideFileWatcher provides the tag document watcher. External edits to the
// document are reloaded into the store.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tagStore := do.MustInvoke[*store.Store](i)

	if !cfg.Storage.WatchTags {
		log.Info("Tag document watching disabled by configuration")
		return &FileWatcherHandle{}, nil
	}

	watchLog := log.Component("watcher").Logger
	w, err := watcher.New(watchLog, watcher.Options{})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(tagStore.Path()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()
	go watcher.NewReloader(w, tagStore.Reload, watchLog).Run(ctx)

	log.Info("Watching tag document", "path", tagStore.Path())

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
