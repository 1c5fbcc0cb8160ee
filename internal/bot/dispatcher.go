package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/id"
	"github.com/serousbot/serousbot/internal/service"
)

// handleMessage runs text commands and auto-paste for one guild message.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.WebhookID != "" || m.GuildID == "" {
		return
	}
	if !b.directory.HasTextChannel(m.GuildID, m.ChannelID) {
		return
	}

	log := b.logger.With(
		"event_id", id.Event(id.PrefixMessage),
		"guild_id", m.GuildID,
		"channel_id", m.ChannelID,
		"user_id", m.Author.ID,
	)

	if body, ok := b.commandText(m.Content); ok {
		b.dispatch(ctx, log, m, body)
	}

	b.autoPaste(ctx, log, m)
}

// commandText strips the command prefix or a leading mention of the bot.
func (b *Bot) commandText(content string) (string, bool) {
	if r, size := utf8.DecodeRuneInString(content); size > 0 && r == b.prefix {
		return content[size:], true
	}

	self := b.self()
	if self == "" {
		return "", false
	}
	for _, mention := range []string{"<@" + self + ">", "<@!" + self + ">"} {
		if rest, ok := strings.CutPrefix(content, mention); ok {
			return strings.TrimLeftFunc(rest, unicode.IsSpace), true
		}
	}
	return "", false
}

// dispatch runs a known command, or treats the text as a tag name.
func (b *Bot) dispatch(ctx context.Context, log *slog.Logger, m *discordgo.Message, body string) {
	command, args := nextArg(body)

	switch command {
	case "":
		return
	case "hello":
		b.reply(log, m.ChannelID, "Hello world!")
		return
	case "tag":
		b.handleTagCommand(ctx, log, m, args)
		return
	case "bot":
		if sub, rest := nextArg(args); sub == "channel" {
			if action, target := nextArg(rest); action == "set" {
				b.handleBotChannelSet(ctx, log, m, strings.TrimSpace(target))
				return
			}
		}
	}

	b.resolveImplicit(ctx, log, m, body)
}

// resolveImplicit answers "?name" with the best matching tag.
func (b *Bot) resolveImplicit(ctx context.Context, log *slog.Logger, m *discordgo.Message, text string) {
	res, err := b.resolver.ResolveImplicit(ctx, m.GuildID, m.Author.ID, text)
	if err != nil {
		log.Error("tag resolution failed", "key", text, "error", err)
		if errors.CodeOf(err) == errors.CodeCorrupt {
			b.reply(log, m.ChannelID, "The tag list could not be read.")
		}
		return
	}

	switch res.Kind {
	case service.ResolveFound:
		var content string
		if res.ViaGlobal {
			content = b.formatOwnedTag(m.GuildID, res.Tag.Name, res.Tag.OwnerID, res.Tag.Text)
		} else {
			content = formatTag(res.Tag.Name, res.Tag.Text)
		}
		b.deliverTag(log, m, content)
		log.Info("tag sent", "name", res.Tag.Name, "owner_id", res.Tag.OwnerID, "global_search", res.ViaGlobal)
	case service.ResolveMultipleFound:
		b.reply(log, m.ChannelID, fmt.Sprintf("Multiple tags (%d) with that name were found.", res.Count))
	default:
		if res.KeyRejected {
			return
		}
		b.reply(log, m.ChannelID, "No tags with that name were found.")
	}
}

func formatTag(name, text string) string {
	return "**Tag: " + name + "**\n" + text
}

func (b *Bot) formatOwnedTag(guildID, name, ownerID, text string) string {
	owner := b.directory.DisplayName(guildID, ownerID)
	return "**Tag: " + name + " (Owner: " + owner + ")**\n" + text
}

// nextArg splits off the first whitespace separated word of s.
func nextArg(s string) (arg, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}
