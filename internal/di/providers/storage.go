package providers

import (
	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/config"
	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/service"
	"github.com/serousbot/serousbot/internal/store"
)

// ProvideStore provides the tag store. The document is read on first use.
func ProvideStore(i do.Injector) (*store.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s := store.New(cfg.Storage.TagsPath, log.Component("store").Logger)
	log.Info("Tag store configured", "path", cfg.Storage.TagsPath)

	return s, nil
}

// ProvideLedger provides the in-memory deletion ledger.
func ProvideLedger(i do.Injector) (*ledger.Ledger, error) {
	return ledger.New(), nil
}

// ProvideBotChannelService provides the per-guild announcement channel registry.
// Its file is loaded once the gateway reports which guilds are visible.
func ProvideBotChannelService(i do.Injector) (*service.BotChannelService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBotChannelService(
		cfg.Storage.BotChannelsPath,
		cfg.Bot.QuietStartup,
		log.Component("botchannels").Logger,
	), nil
}
