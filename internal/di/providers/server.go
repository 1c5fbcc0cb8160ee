package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/api"
	"github.com/serousbot/serousbot/internal/config"
	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/ratelimit"
	"github.com/serousbot/serousbot/internal/store"
)

// apiRequestsPerMinute bounds admin API requests per client IP.
const apiRequestsPerMinute = 120

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	if h.Server == nil {
		return nil
	}
	defer h.limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the admin HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tagStore := do.MustInvoke[*store.Store](i)
	deletions := do.MustInvoke[*ledger.Ledger](i)

	if !cfg.Server.Enabled {
		log.Info("Admin API disabled by configuration")
		return &HTTPServerHandle{}, nil
	}

	limiter := ratelimit.PerMinute(apiRequestsPerMinute)
	handler := api.NewServer(tagStore, deletions, limiter, log.Component("api").Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, limiter: limiter}, nil
}
