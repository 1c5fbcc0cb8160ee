// Package bot connects the tag, paste and bot channel services to the Discord gateway.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/paste"
	"github.com/serousbot/serousbot/internal/service"
)

// handlerTimeout bounds the work done for a single gateway event.
const handlerTimeout = 30 * time.Second

// Intents the bot needs: guild text, reactions on its replies and message bodies.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// undoEmoji marks replies the requester can remove.
const undoEmoji = "❌"

// Session is the subset of *discordgo.Session the handlers use.
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

// Directory answers questions about guilds, channels and members.
type Directory interface {
	service.GuildDirectory
	service.ChannelLookup
	// HasTextChannel reports whether channelID is a text channel of guildID.
	// A failed lookup counts as absent.
	HasTextChannel(guildID, channelID string) bool
	// DisplayName returns a printable name for userID, or userID itself when unknown.
	DisplayName(guildID, userID string) string
}

// Bot routes gateway events to the services.
type Bot struct {
	session   Session
	directory Directory
	tags      *service.TagService
	resolver  *service.Resolver
	ledger    *ledger.Ledger
	channels  *service.BotChannelService
	pastes    *paste.Client
	prefix    rune
	logger    *slog.Logger

	selfID atomic.Value // string, set on Ready
}

// New creates a new bot.
func New(session Session, directory Directory, tags *service.TagService, resolver *service.Resolver, l *ledger.Ledger, channels *service.BotChannelService, pastes *paste.Client, prefix rune, logger *slog.Logger) *Bot {
	b := &Bot{
		session:   session,
		directory: directory,
		tags:      tags,
		resolver:  resolver,
		ledger:    l,
		channels:  channels,
		pastes:    pastes,
		prefix:    prefix,
		logger:    logger,
	}
	b.selfID.Store("")
	return b
}

// Register attaches the bot's handlers to s and returns a function that removes them.
func (b *Bot) Register(s *discordgo.Session) func() {
	removers := []func(){
		s.AddHandler(b.onReady),
		s.AddHandler(b.onMessageCreate),
		s.AddHandler(b.onReactionAdd),
		s.AddHandler(b.onInteractionCreate),
	}
	return func() {
		for _, remove := range removers {
			remove()
		}
	}
}

func (b *Bot) self() string {
	id, _ := b.selfID.Load().(string)
	return id
}

func (b *Bot) setSelf(id string) {
	b.selfID.Store(id)
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	b.handleReady(ctx, r)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	b.handleMessage(ctx, m.Message)
}

func (b *Bot) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	b.handleReaction(ctx, r.MessageReaction)
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Interaction == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	b.handleInteraction(ctx, i.Interaction)
}

// reply sends content to channelID and logs failures.
func (b *Bot) reply(log *slog.Logger, channelID, content string) (*discordgo.Message, bool) {
	msg, err := b.session.ChannelMessageSend(channelID, content)
	if err != nil {
		log.Error("failed to send reply", "channel_id", channelID, "error", err)
		return nil, false
	}
	return msg, true
}

// commandFailed reports a command that could not run.
func (b *Bot) commandFailed(log *slog.Logger, channelID, command, reason string) {
	log.Warn("command failed", "command", command, "reason", reason)
	b.reply(log, channelID, fmt.Sprintf("Something went wrong when executing the %q command:\n%s", command, reason))
}

// deliverTag posts a tag reply that the requester can undo, then removes the request.
func (b *Bot) deliverTag(log *slog.Logger, request *discordgo.Message, content string) {
	msg, ok := b.reply(log, request.ChannelID, content)
	if !ok {
		return
	}

	b.ledger.Register(msg.ID, request.Author.ID, request.ID)

	if err := b.session.MessageReactionAdd(request.ChannelID, msg.ID, undoEmoji); err != nil {
		log.Warn("failed to add undo reaction", "message_id", msg.ID, "error", err)
	}
	if err := b.session.ChannelMessageDelete(request.ChannelID, request.ID); err != nil {
		log.Warn("failed to delete tag request", "message_id", request.ID, "error", err)
	}
}

func displayUser(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.String()
}
