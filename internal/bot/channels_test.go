package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotChannelSet(t *testing.T) {
	tb := newTestBot(t)
	tb.session.perms = discordgo.PermissionAdministrator

	tb.say(aliceID, "?bot channel set <#"+otherChannel+">")

	assert.Equal(t, []string{"The bot channel has been set to <#" + otherChannel + ">."}, tb.session.contents())
	ch, ok := tb.channels.Channel(testGuild)
	require.True(t, ok)
	assert.Equal(t, otherChannel, ch)

	data, err := os.ReadFile(filepath.Join(tb.dataDir, "botchannels.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), testGuild+"-"+otherChannel)
}

func TestBotChannelSet_RequiresAdministrator(t *testing.T) {
	tb := newTestBot(t)
	tb.session.perms = discordgo.PermissionSendMessages

	tb.say(aliceID, "?bot channel set <#"+otherChannel+">")

	assert.Equal(t,
		[]string{"Something went wrong when executing the \"bot channel set\" command:\nUser requires guild permission Administrator."},
		tb.session.contents())
	_, ok := tb.channels.Channel(testGuild)
	assert.False(t, ok)
}

func TestBotChannelSet_RejectsNonTextChannel(t *testing.T) {
	tb := newTestBot(t)
	tb.session.perms = discordgo.PermissionAdministrator

	tb.say(aliceID, "?bot channel set <#"+voiceChannel+">")
	tb.say(aliceID, "?bot channel set general")

	assert.Equal(t, []string{
		"The channel must be a text channel.",
		"Something went wrong when executing the \"bot channel set\" command:\nFailed to parse Channel.",
	}, tb.session.contents())
}
