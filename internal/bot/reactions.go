package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/id"
)

// handleReaction deletes a tag reply when its requester reacts with the undo emoji.
func (b *Bot) handleReaction(_ context.Context, r *discordgo.MessageReaction) {
	if r.Emoji.Name != undoEmoji || r.UserID == b.self() {
		return
	}
	if !b.ledger.TryAuthorizeDeletion(r.MessageID, r.UserID) {
		return
	}

	log := b.logger.With(
		"event_id", id.Event(id.PrefixReaction),
		"guild_id", r.GuildID,
		"channel_id", r.ChannelID,
		"user_id", r.UserID,
	)

	if err := b.session.ChannelMessageDelete(r.ChannelID, r.MessageID); err != nil {
		log.Warn("failed to delete tag reply", "message_id", r.MessageID, "error", err)
		return
	}
	log.Info("tag reply removed by requester", "message_id", r.MessageID)
}
