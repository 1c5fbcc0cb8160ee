package bot

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/id"
	"github.com/serousbot/serousbot/internal/logger"
	"github.com/serousbot/serousbot/internal/paste"
)

const pasteCommandName = "paste"

var pasteCommand = &discordgo.ApplicationCommand{
	Name:        pasteCommandName,
	Description: "Attempts to paste a message's attachments to a pastebin.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message",
			Description: "The message ID to paste from.",
			Required:    true,
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "The channel which contains the message to paste from.",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	},
}

// installCommands registers the guild slash commands.
func (b *Bot) installCommands(appID, guildID string) {
	if _, err := b.session.ApplicationCommandCreate(appID, guildID, pasteCommand); err != nil {
		b.logger.Error("failed to install slash command", "command", pasteCommandName, "guild_id", guildID, "error", err)
		return
	}
	b.logger.Debug("slash command installed", "command", pasteCommandName, "guild_id", guildID)
}

// autoPaste uploads a lone text attachment or a code heavy message body.
// Failures are logged only; nobody asked for this paste.
func (b *Bot) autoPaste(ctx context.Context, log *slog.Logger, m *discordgo.Message) {
	var contents paste.Contents
	deleteSource := false

	if len(m.Attachments) == 1 {
		a := m.Attachments[0]
		c, err := b.pastes.Download(ctx, paste.Attachment{Filename: a.Filename, URL: a.URL, Size: int64(a.Size)})
		switch {
		case err == nil:
			contents = c
		case errors.Is(err, paste.ErrUnsupported):
		default:
			log.Warn("auto-paste download failed", "filename", a.Filename, "error", err)
		}
	}

	if contents.Text == "" && paste.IsCodeHeavy(m.Content) {
		log.Info("large code block detected, attempting auto-paste")
		contents = paste.Contents{Text: m.Content}
		deleteSource = true
	}
	if contents.Text == "" {
		return
	}
	contents.Text = paste.CleanupCodeBlock(contents.Text)

	url, err := b.pastes.Upload(ctx, m.Author.ID, contents)
	if err != nil {
		log.Warn("auto-paste failed", "error", err)
		return
	}

	b.reply(log, m.ChannelID, pasteReply("Automatic", displayUser(m.Author), contents.Filename, url))
	if deleteSource {
		if err := b.session.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			log.Warn("failed to delete pasted message", "message_id", m.ID, "error", err)
		}
	}
	logger.Success(log, "auto-paste uploaded", "url", url)
}

// handleInteraction runs slash commands.
func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != pasteCommandName {
		return
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	log := b.logger.With(
		"event_id", id.Event(id.PrefixInteraction),
		"guild_id", i.GuildID,
		"channel_id", i.ChannelID,
		"user_id", user.ID,
		"command", pasteCommandName,
	)
	b.manualPaste(ctx, log, i, user, data.Options)
}

// manualPaste answers /paste message:<id> [channel:<channel>].
func (b *Bot) manualPaste(ctx context.Context, log *slog.Logger, i *discordgo.Interaction, user *discordgo.User, options []*discordgo.ApplicationCommandInteractionDataOption) {
	messageID := ""
	channelID := i.ChannelID
	for _, opt := range options {
		value, _ := opt.Value.(string)
		switch opt.Name {
		case "message":
			messageID = value
		case "channel":
			channelID = value
		}
	}

	if !isSnowflake(messageID) {
		b.respond(log, i, "Invalid message ID.")
		return
	}
	if !b.directory.HasTextChannel(i.GuildID, channelID) {
		b.respond(log, i, "Channel is not a text channel.")
		return
	}

	msg, err := b.session.ChannelMessage(channelID, messageID)
	if err != nil || msg == nil {
		b.respond(log, i, "Message not found.")
		return
	}

	switch {
	case len(msg.Attachments) == 0:
		b.respond(log, i, paste.MsgNoAttachments)
		return
	case len(msg.Attachments) > 1:
		b.respond(log, i, paste.MsgTooMany)
		return
	}

	a := msg.Attachments[0]
	if !paste.IsSupportedAttachment(a.Filename) {
		b.respond(log, i, paste.MsgHandleFailed)
		return
	}

	// Downloads and uploads can outlast the interaction deadline.
	if err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error("failed to defer interaction", "error", err)
		return
	}

	log.Info("attempting to paste attachment", "filename", a.Filename)
	contents, err := b.pastes.Download(ctx, paste.Attachment{Filename: a.Filename, URL: a.URL, Size: int64(a.Size)})
	if err != nil {
		log.Error("attachment download failed", "filename", a.Filename, "error", err)
		b.editResponse(log, i, errors.MessageOf(err))
		return
	}

	url, err := b.pastes.Upload(ctx, user.ID, contents)
	if err != nil {
		log.Error("paste upload failed", "error", err)
		b.editResponse(log, i, errors.MessageOf(err))
		return
	}

	b.editResponse(log, i, pasteReply("Manual", displayUser(user), contents.Filename, url))
	logger.Success(log, "uploaded paste", "url", url)
}

func (b *Bot) respond(log *slog.Logger, i *discordgo.Interaction, content string) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Error("failed to respond to interaction", "error", err)
	}
}

func (b *Bot) editResponse(log *slog.Logger, i *discordgo.Interaction, content string) {
	if _, err := b.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}); err != nil {
		log.Error("failed to edit interaction response", "error", err)
	}
}

// pasteReply formats "<mode> Hastebin for <user> (`file`): <url>".
func pasteReply(mode, user, filename, url string) string {
	s := mode + " Hastebin for " + user
	if filename != "" {
		s += " (`" + filename + "`)"
	}
	return s + ": " + url
}
