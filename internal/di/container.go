// Package di provides dependency injection configuration for the bot.
package di

import (
	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/bot"
	"github.com/serousbot/serousbot/internal/config"
	"github.com/serousbot/serousbot/internal/di/providers"
	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/paste"
	"github.com/serousbot/serousbot/internal/service"
	"github.com/serousbot/serousbot/internal/store"
	"github.com/serousbot/serousbot/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideLedger)
	do.Provide(injector, providers.ProvideBotChannelService)

	// Gateway
	do.Provide(injector, providers.ProvideSession)
	do.Provide(injector, providers.ProvideDirectory)

	// Business services
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvidePasteLimiter)
	do.Provide(injector, providers.ProvidePasteClient)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideBot)

	return injector
}

// Bootstrap initializes all services and returns once the bot is connected.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*store.Store](injector)
	_ = do.MustInvoke[*ledger.Ledger](injector)
	_ = do.MustInvoke[*service.BotChannelService](injector)
	_ = do.MustInvoke[*providers.SessionHandle](injector)
	_ = do.MustInvoke[*bot.StateDirectory](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.Resolver](injector)
	_ = do.MustInvoke[*providers.PasteLimiterHandle](injector)
	_ = do.MustInvoke[*paste.Client](injector)

	// Workers
	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// The gateway connects last so every dependency is ready for the first event.
	if _, err := do.Invoke[*providers.BotHandle](injector); err != nil {
		return err
	}

	return nil
}
