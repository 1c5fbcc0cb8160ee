package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/service"
)

// Parse failures, worded the way users of text commands expect.
const (
	reasonTooFewParams = "The input text has too few parameters."
	reasonBadUser      = "Failed to parse User."
	reasonBadBool      = "Failed to parse Boolean."
)

// handleTagCommand runs "tag ..." commands:
//
//	tag add <name> <text>
//	tag edit [user] <name> <text>
//	tag global [user] <name> <true|false>
//	tag get <user> <name>
//	tag -g <user> <name>
//	tag [user] <name>
func (b *Bot) handleTagCommand(ctx context.Context, log *slog.Logger, m *discordgo.Message, args string) {
	sub, rest := nextArg(args)

	switch sub {
	case "":
		b.commandFailed(log, m.ChannelID, "tag", reasonTooFewParams)
	case "add":
		b.tagAdd(ctx, log, m, rest)
	case "edit":
		b.tagEdit(ctx, log, m, rest)
	case "global":
		b.tagGlobal(ctx, log, m, rest)
	case "get", "-g":
		userArg, rest := nextArg(rest)
		name, _ := nextArg(rest)
		if name == "" {
			b.commandFailed(log, m.ChannelID, "tag "+sub, reasonTooFewParams)
			return
		}
		owner, ok := parseUserArg(userArg)
		if !ok {
			b.commandFailed(log, m.ChannelID, "tag "+sub, reasonBadUser)
			return
		}
		b.tagGet(ctx, log, m, owner, name, sub == "-g")
	default:
		name, _ := nextArg(rest)
		if owner, ok := parseUserArg(sub); ok && name != "" {
			b.tagGet(ctx, log, m, owner, name, false)
			return
		}
		b.tagGet(ctx, log, m, m.Author.ID, sub, false)
	}
}

func (b *Bot) tagAdd(ctx context.Context, log *slog.Logger, m *discordgo.Message, args string) {
	name, text := nextArg(args)
	text = strings.TrimSpace(text)
	if name == "" {
		b.commandFailed(log, m.ChannelID, "tag add", reasonTooFewParams)
		return
	}
	if text == "" {
		return
	}

	_, err := b.tags.Add(ctx, m.GuildID, m.Author.ID, name, text)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeValidation:
			b.reply(log, m.ChannelID, b.invalidNameReply("add"))
		case errors.CodeAlreadyExists:
			b.reply(log, m.ChannelID, fmt.Sprintf(
				"Tag `%s` was added by user **%s** already.  Did you mean to use `%ctag edit %s` instead?",
				name, displayUser(m.Author), b.prefix, name))
		default:
			b.tagStoreFailed(log, m, "tag add", err)
		}
		return
	}

	b.reply(log, m.ChannelID, fmt.Sprintf("Tag `%s` was created successfully.", name))
}

func (b *Bot) tagEdit(ctx context.Context, log *slog.Logger, m *discordgo.Message, args string) {
	owner := m.Author.ID
	name, text := nextArg(args)

	// "edit <user> <name> <text>" when the first word names a user and text follows the name.
	if userID, ok := parseUserArg(name); ok {
		second, rest := nextArg(text)
		if second != "" && (isMention(name) || strings.TrimSpace(rest) != "") {
			owner, name, text = userID, second, rest
		}
	}

	text = strings.TrimSpace(text)
	if name == "" {
		b.commandFailed(log, m.ChannelID, "tag edit", reasonTooFewParams)
		return
	}
	if text == "" {
		return
	}

	_, err := b.tags.Edit(ctx, m.GuildID, m.Author.ID, owner, name, text)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeValidation:
			b.reply(log, m.ChannelID, b.invalidNameReply("edit"))
		case errors.CodeForbidden:
			b.reply(log, m.ChannelID, "You can only edit tags that you have created.")
		case errors.CodeNotFound:
			b.reply(log, m.ChannelID, fmt.Sprintf("Tag `%s` could not be found.", name))
		default:
			b.tagStoreFailed(log, m, "tag edit", err)
		}
		return
	}

	b.reply(log, m.ChannelID, fmt.Sprintf("Tag `%s` was updated.", name))
}

func (b *Bot) tagGlobal(ctx context.Context, log *slog.Logger, m *discordgo.Message, args string) {
	first, rest := nextArg(args)
	second, rest := nextArg(rest)
	third, _ := nextArg(rest)

	owner, name, value := m.Author.ID, first, second
	if third != "" {
		userID, ok := parseUserArg(first)
		if !ok {
			b.commandFailed(log, m.ChannelID, "tag global", reasonBadUser)
			return
		}
		owner, name, value = userID, second, third
	}
	if name == "" || value == "" {
		b.commandFailed(log, m.ChannelID, "tag global", reasonTooFewParams)
		return
	}

	global, err := strconv.ParseBool(value)
	if err != nil {
		b.commandFailed(log, m.ChannelID, "tag global", reasonBadBool)
		return
	}

	_, err = b.tags.SetGlobal(ctx, m.GuildID, m.Author.ID, owner, name, global)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeValidation:
			b.reply(log, m.ChannelID, b.invalidNameReply("global"))
		case errors.CodeForbidden:
			b.reply(log, m.ChannelID, "Only the server owner can change the global status of tags.")
		case errors.CodeNotFound:
			b.reply(log, m.ChannelID, "Tag could not be found.")
		default:
			b.tagStoreFailed(log, m, "tag global", err)
		}
		return
	}

	b.reply(log, m.ChannelID, fmt.Sprintf("Tag `%s` had its global status updated.", name))
}

// tagGet answers an explicit owner/name lookup.
func (b *Bot) tagGet(ctx context.Context, log *slog.Logger, m *discordgo.Message, ownerID, name string, global bool) {
	tag, err := b.resolver.ResolveExplicit(ctx, service.ExplicitQuery{
		GuildID:  m.GuildID,
		CallerID: m.Author.ID,
		OwnerID:  ownerID,
		Name:     name,
		Global:   global,
	})
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeNotFound:
			b.reply(log, m.ChannelID, fmt.Sprintf("Tag `%s` could not be found.", name))
		default:
			b.tagStoreFailed(log, m, "tag get", err)
		}
		return
	}

	b.deliverTag(log, m, b.formatOwnedTag(m.GuildID, tag.Name, tag.OwnerID, tag.Text))
	log.Info("tag sent", "name", tag.Name, "owner_id", tag.OwnerID, "global", global)
}

func (b *Bot) invalidNameReply(command string) string {
	return fmt.Sprintf("Command `%ctag %s` expects tag name to not contain spaces, symbols or control characters", b.prefix, command)
}

func (b *Bot) tagStoreFailed(log *slog.Logger, m *discordgo.Message, command string, err error) {
	log.Error("tag command failed", "command", command, "error", err)
	b.commandFailed(log, m.ChannelID, command, errors.MessageOf(err))
}

// parseUserArg accepts <@id>, <@!id> or a bare snowflake.
func parseUserArg(s string) (string, bool) {
	if isMention(s) {
		s = strings.TrimPrefix(strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">"), "!")
	}
	if !isSnowflake(s) {
		return "", false
	}
	return s, true
}

func isMention(s string) bool {
	return strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") && !strings.HasPrefix(s, "<@&")
}

// isSnowflake reports whether s looks like a Discord id.
func isSnowflake(s string) bool {
	if len(s) < 15 || len(s) > 20 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
