package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/logger"
)

const startupMessage = "Bot has successfully started up."

// handleReady records the bot's identity, installs slash commands, loads the
// bot channels and announces startup.
func (b *Bot) handleReady(ctx context.Context, r *discordgo.Ready) {
	if r.User != nil {
		b.setSelf(r.User.ID)
	}

	appID := b.self()
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	for _, g := range r.Guilds {
		b.installCommands(appID, g.ID)
	}

	if err := b.channels.Load(ctx, b.directory); err != nil {
		b.logger.Error("failed to load bot channels", "error", err)
		return
	}

	for _, ch := range b.channels.StartupAnnouncements() {
		b.reply(b.logger, ch.ChannelID, startupMessage)
	}

	logger.Success(b.logger, "bot ready", "user", displayUser(r.User), "guilds", len(r.Guilds))
}

// handleBotChannelSet runs "bot channel set <#channel>". Administrators only.
func (b *Bot) handleBotChannelSet(ctx context.Context, log *slog.Logger, m *discordgo.Message, target string) {
	const command = "bot channel set"

	perms, err := b.session.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		log.Error("failed to read permissions", "error", err)
		b.commandFailed(log, m.ChannelID, command, "Could not check your permissions.")
		return
	}
	if perms&discordgo.PermissionAdministrator == 0 {
		b.commandFailed(log, m.ChannelID, command, "User requires guild permission Administrator.")
		return
	}

	channelID, ok := parseChannelArg(target)
	if !ok {
		b.commandFailed(log, m.ChannelID, command, "Failed to parse Channel.")
		return
	}
	if !b.directory.HasTextChannel(m.GuildID, channelID) {
		b.reply(log, m.ChannelID, "The channel must be a text channel.")
		return
	}

	if err := b.channels.Set(ctx, m.GuildID, channelID); err != nil {
		log.Error("failed to set bot channel", "error", err)
		b.commandFailed(log, m.ChannelID, command, "The bot channel could not be saved.")
		return
	}

	b.reply(log, m.ChannelID, fmt.Sprintf("The bot channel has been set to <#%s>.", channelID))
}

// parseChannelArg accepts <#id> or a bare snowflake.
func parseChannelArg(s string) (string, bool) {
	if strings.HasPrefix(s, "<#") && strings.HasSuffix(s, ">") {
		s = s[2 : len(s)-1]
	}
	if !isSnowflake(s) {
		return "", false
	}
	return s, true
}
