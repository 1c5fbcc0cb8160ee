package providers

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/bot"
	"github.com/serousbot/serousbot/internal/config"
	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/paste"
	"github.com/serousbot/serousbot/internal/service"
)

// SessionHandle wraps the Discord gateway session with Shutdownable.
type SessionHandle struct {
	*discordgo.Session
	log *logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *SessionHandle) Shutdown() error {
	h.log.Info("Closing Discord gateway session")
	return h.Close()
}

// ProvideSession provides an unopened Discord session. BotHandle opens it
// once handlers are registered.
func ProvideSession(i do.Injector) (*SessionHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = bot.Intents
	s.StateEnabled = true

	return &SessionHandle{Session: s, log: log}, nil
}

// ProvideDirectory provides guild and channel lookups backed by the gateway cache.
func ProvideDirectory(i do.Injector) (*bot.StateDirectory, error) {
	session := do.MustInvoke[*SessionHandle](i)
	return bot.NewStateDirectory(session.State, session.Session), nil
}

// BotHandle wraps the bot with its registered gateway handlers.
type BotHandle struct {
	*bot.Bot
	unregister func()
}

// Shutdown implements do.Shutdownable.
func (h *BotHandle) Shutdown() error {
	h.unregister()
	return nil
}

// ProvideBot provides the bot, registers its handlers and connects to the gateway.
func ProvideBot(i do.Injector) (*BotHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	session := do.MustInvoke[*SessionHandle](i)
	directory := do.MustInvoke[*bot.StateDirectory](i)
	tags := do.MustInvoke[*service.TagService](i)
	resolver := do.MustInvoke[*service.Resolver](i)
	deletions := do.MustInvoke[*ledger.Ledger](i)
	channels := do.MustInvoke[*service.BotChannelService](i)
	pastes := do.MustInvoke[*paste.Client](i)

	b := bot.New(
		session.Session,
		directory,
		tags,
		resolver,
		deletions,
		channels,
		pastes,
		cfg.Bot.PrefixRune(),
		log.Component("bot").Logger,
	)
	unregister := b.Register(session.Session)

	if err := session.Open(); err != nil {
		unregister()
		return nil, fmt.Errorf("open discord gateway: %w", err)
	}
	log.Info("Connected to Discord gateway", "prefix", cfg.Bot.Prefix)

	return &BotHandle{Bot: b, unregister: unregister}, nil
}
