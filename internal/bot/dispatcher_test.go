package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHello(t *testing.T) {
	tb := newTestBot(t)

	tb.say(aliceID, "?hello")

	assert.Equal(t, []string{"Hello world!"}, tb.session.contents())
}

func TestHandleMessage_IgnoresBotsWebhooksAndDMs(t *testing.T) {
	tb := newTestBot(t)

	fromBot := message(aliceID, "?hello")
	fromBot.Author.Bot = true
	tb.handleMessage(context.Background(), fromBot)

	fromWebhook := message(aliceID, "?hello")
	fromWebhook.WebhookID = "600000000000000001"
	tb.handleMessage(context.Background(), fromWebhook)

	direct := message(aliceID, "?hello")
	direct.GuildID = ""
	tb.handleMessage(context.Background(), direct)

	assert.Empty(t, tb.session.contents())
}

func TestHandleMessage_IgnoresNonTextChannels(t *testing.T) {
	tb := newTestBot(t)

	inVoice := message(aliceID, "?hello")
	inVoice.ChannelID = voiceChannel
	tb.handleMessage(context.Background(), inVoice)

	elsewhere := message(aliceID, "?hello")
	elsewhere.GuildID = otherGuild
	tb.handleMessage(context.Background(), elsewhere)

	assert.Empty(t, tb.session.contents())

	tb.say(aliceID, "?hello")
	assert.Equal(t, []string{"Hello world!"}, tb.session.contents())
}

func TestHandleMessage_WithoutPrefixIsNotACommand(t *testing.T) {
	tb := newTestBot(t)

	tb.say(aliceID, "hello")
	tb.say(aliceID, "!hello")

	assert.Empty(t, tb.session.contents())
}

func TestHandleMessage_MentionPrefix(t *testing.T) {
	tb := newTestBot(t)
	tb.setSelf(botUserID)

	tb.say(aliceID, "<@"+botUserID+"> hello")
	tb.say(aliceID, "<@!"+botUserID+">hello")

	assert.Equal(t, []string{"Hello world!", "Hello world!"}, tb.session.contents())
}

func TestImplicit_FoundDeliversUndoableReply(t *testing.T) {
	tb := newTestBot(t)
	_, err := tb.store.Add(context.Background(), testGuild, aliceID, "readme", "Read the docs")
	require.NoError(t, err)

	req := tb.say(aliceID, "?README")

	reply := tb.session.last()
	assert.Equal(t, "**Tag: readme**\nRead the docs", reply.Content)
	assert.Equal(t, []string{reply.ID + " " + undoEmoji}, tb.session.reactions)
	assert.Equal(t, []string{req.ID}, tb.session.deleted)

	ticket, ok := tb.ledger.Lookup(reply.ID)
	require.True(t, ok)
	assert.Equal(t, aliceID, ticket.RequesterID)
	assert.Equal(t, req.ID, ticket.RequestMessageID)
}

func TestImplicit_PrivateTagOfAnotherUser(t *testing.T) {
	tb := newTestBot(t)
	_, err := tb.store.Add(context.Background(), testGuild, aliceID, "readme", "Read the docs")
	require.NoError(t, err)

	tb.say(bobID, "?readme")

	assert.Equal(t, []string{"No tags with that name were found."}, tb.session.contents())
	assert.Zero(t, tb.ledger.Len())
}

func TestImplicit_ViaGlobalSearchShowsOwner(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	_, err := tb.store.Add(ctx, otherGuild, aliceID, "install-guide", "Step one")
	require.NoError(t, err)
	_, err = tb.store.SetGlobal(ctx, otherGuild, aliceID, "install-guide", true)
	require.NoError(t, err)

	tb.say(bobID, "?install")

	assert.Equal(t, "**Tag: install-guide (Owner: alice)**\nStep one", tb.session.last().Content)
	assert.Equal(t, 1, tb.ledger.Len())
}

func TestImplicit_MultipleGlobalMatches(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	for _, owner := range []string{aliceID, bobID} {
		_, err := tb.store.Add(ctx, otherGuild, owner, "readme", "text")
		require.NoError(t, err)
		_, err = tb.store.SetGlobal(ctx, otherGuild, owner, "readme", true)
		require.NoError(t, err)
	}

	tb.say(guildOwnerID, "?read")

	assert.Equal(t, []string{"Multiple tags (2) with that name were found."}, tb.session.contents())
}

func TestImplicit_SanitizerRejectedTextIsSilent(t *testing.T) {
	tb := newTestBot(t)

	tb.say(aliceID, "?**bold**")
	tb.say(aliceID, "?")

	assert.Empty(t, tb.session.contents())
}

func TestCommandText(t *testing.T) {
	tb := newTestBot(t)
	tb.prefix = '€'
	tb.setSelf(botUserID)

	tests := []struct {
		content string
		want    string
		ok      bool
	}{
		{"€tag readme", "tag readme", true},
		{"<@" + botUserID + ">   hello", "hello", true},
		{"<@!" + botUserID + "> hello", "hello", true},
		{"<@123> hello", "", false},
		{"?hello", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := tb.commandText(tt.content)
		assert.Equal(t, tt.ok, ok, tt.content)
		assert.Equal(t, tt.want, got, tt.content)
	}
}

func TestNextArg(t *testing.T) {
	arg, rest := nextArg("  add readme  some text ")
	assert.Equal(t, "add", arg)
	assert.Equal(t, " readme  some text ", rest)

	arg, rest = nextArg("single")
	assert.Equal(t, "single", arg)
	assert.Empty(t, rest)

	arg, rest = nextArg("   ")
	assert.Empty(t, arg)
	assert.Empty(t, rest)
}

func TestReady_AnnouncesOnceAndInstallsCommands(t *testing.T) {
	tb := newTestBot(t)
	require.NoError(t, tb.channels.Set(context.Background(), testGuild, testChannel))

	ready := &discordgo.Ready{
		User:   &discordgo.User{ID: botUserID, Username: "serous", Discriminator: "0"},
		Guilds: []*discordgo.Guild{{ID: testGuild}, {ID: otherGuild}},
	}
	tb.handleReady(context.Background(), ready)

	assert.Equal(t, botUserID, tb.self())
	assert.ElementsMatch(t, []string{testGuild, otherGuild}, tb.session.commands)
	assert.Equal(t, []string{startupMessage}, tb.session.contents())
	assert.Equal(t, testChannel, tb.session.last().ChannelID)

	// Reconnects fire Ready again but stay quiet.
	tb.handleReady(context.Background(), ready)
	assert.Len(t, tb.session.contents(), 1)
}
