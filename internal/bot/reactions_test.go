package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reaction(userID, messageID, emoji string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{
		UserID:    userID,
		MessageID: messageID,
		ChannelID: testChannel,
		GuildID:   testGuild,
		Emoji:     discordgo.Emoji{Name: emoji},
	}
}

func TestReaction_RequesterRemovesReply(t *testing.T) {
	tb := newTestBot(t)
	tb.setSelf(botUserID)
	_, err := tb.store.Add(context.Background(), testGuild, aliceID, "readme", "Read the docs")
	require.NoError(t, err)

	req := tb.say(aliceID, "?readme")
	reply := tb.session.last()
	require.Equal(t, []string{req.ID}, tb.session.deleted)

	ctx := context.Background()

	// The bot's own reaction, other emoji and other users are ignored.
	tb.handleReaction(ctx, reaction(botUserID, reply.ID, undoEmoji))
	tb.handleReaction(ctx, reaction(aliceID, reply.ID, "👍"))
	tb.handleReaction(ctx, reaction(bobID, reply.ID, undoEmoji))
	assert.Equal(t, []string{req.ID}, tb.session.deleted)
	assert.Equal(t, 1, tb.ledger.Len())

	tb.handleReaction(ctx, reaction(aliceID, reply.ID, undoEmoji))
	assert.Equal(t, []string{req.ID, reply.ID}, tb.session.deleted)
	assert.Zero(t, tb.ledger.Len())

	// Consumed: a second reaction does nothing.
	tb.handleReaction(ctx, reaction(aliceID, reply.ID, undoEmoji))
	assert.Len(t, tb.session.deleted, 2)
}

func TestReaction_UntrackedMessage(t *testing.T) {
	tb := newTestBot(t)

	tb.handleReaction(context.Background(), reaction(aliceID, unknownMessage, undoEmoji))

	assert.Empty(t, tb.session.deleted)
}
