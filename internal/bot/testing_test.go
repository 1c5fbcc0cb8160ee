package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/paste"
	"github.com/serousbot/serousbot/internal/ratelimit"
	"github.com/serousbot/serousbot/internal/service"
	"github.com/serousbot/serousbot/internal/store"
	"github.com/serousbot/serousbot/internal/validation"
)

const (
	testGuild      = "200000000000000001"
	otherGuild     = "200000000000000002"
	testChannel    = "300000000000000001"
	otherChannel   = "300000000000000002"
	voiceChannel   = "300000000000000003"
	aliceID        = "100000000000000001"
	bobID          = "100000000000000002"
	guildOwnerID   = "100000000000000099"
	botUserID      = "100000000000000777"
	unknownMessage = "400000000000000404"
)

type sentMessage struct {
	ChannelID string
	ID        string
	Content   string
}

// fakeSession records what the handlers ask Discord to do.
type fakeSession struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	deleted   []string // message ids
	reactions []string // "messageID emoji"
	responses []*discordgo.InteractionResponse
	edits     []string
	commands  []string // guild ids
	messages  map[string]*discordgo.Message
	perms     int64
}

func newFakeSession() *fakeSession {
	return &fakeSession{messages: make(map[string]*discordgo.Message)}
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("9000000000000%05d", f.nextID)
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, ID: id, Content: content})
	return &discordgo.Message{ID: id, ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessage(_ string, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return nil, errors.NotFound("unknown message")
	}
	return m, nil
}

func (f *fakeSession) ChannelMessageDelete(_ string, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) MessageReactionAdd(_ string, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, messageID+" "+emojiID)
	return nil
}

func (f *fakeSession) UserChannelPermissions(_ string, _ string, _ ...discordgo.RequestOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, newresp *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, *newresp.Content)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ApplicationCommandCreate(_ string, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, guildID)
	return cmd, nil
}

// contents returns the text of every sent message in order.
func (f *fakeSession) contents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Content
	}
	return out
}

func (f *fakeSession) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

// fakeDirectory knows one guild owned by guildOwnerID with a text and a voice channel.
type fakeDirectory struct {
	owners   map[string]string // guild → owner
	channels map[string]string // text channel → guild
	names    map[string]string // user → display name
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		owners: map[string]string{
			testGuild:  guildOwnerID,
			otherGuild: guildOwnerID,
		},
		channels: map[string]string{
			testChannel:  testGuild,
			otherChannel: testGuild,
		},
		names: map[string]string{
			aliceID: "alice",
			bobID:   "bob",
		},
	}
}

func (d *fakeDirectory) GuildOwnerID(_ context.Context, guildID string) (string, error) {
	owner, ok := d.owners[guildID]
	if !ok {
		return "", errors.NotFoundf("guild %s not found", guildID)
	}
	return owner, nil
}

func (d *fakeDirectory) GuildExists(guildID string) (bool, error) {
	_, ok := d.owners[guildID]
	return ok, nil
}

func (d *fakeDirectory) TextChannelExists(guildID, channelID string) (bool, error) {
	return d.HasTextChannel(guildID, channelID), nil
}

func (d *fakeDirectory) HasTextChannel(guildID, channelID string) bool {
	return d.channels[channelID] == guildID
}

func (d *fakeDirectory) DisplayName(_, userID string) string {
	if name, ok := d.names[userID]; ok {
		return name
	}
	return userID
}

type testBot struct {
	*Bot
	session  *fakeSession
	store    *store.Store
	ledger   *ledger.Ledger
	channels *service.BotChannelService
	dataDir  string
	pasteURL string
}

// newTestBot wires a bot over real services, a temp data directory and a fake hastebin.
func newTestBot(t *testing.T) *testBot {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /documents", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"key":"abcdef"}`)
	})
	mux.HandleFunc("GET /files/{name}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "System.NullReferenceException: Object reference not set\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	limiter := ratelimit.PerMinute(6)
	t.Cleanup(limiter.Stop)

	tagStore := store.New(filepath.Join(dir, "Tags", "list.json"), logger)
	directory := newFakeDirectory()
	l := ledger.New()
	channels := service.NewBotChannelService(filepath.Join(dir, "botchannels.txt"), false, logger)
	session := newFakeSession()

	b := New(
		session,
		directory,
		service.NewTagService(tagStore, directory, validation.New(), logger),
		service.NewResolver(tagStore, logger),
		l,
		channels,
		paste.NewClient(paste.Config{BaseURL: srv.URL, MaxAttachmentSize: 400000}, limiter, logger),
		'?',
		logger,
	)

	return &testBot{
		Bot:      b,
		session:  session,
		store:    tagStore,
		ledger:   l,
		channels: channels,
		dataDir:  dir,
		pasteURL: srv.URL,
	}
}

var messageSeq int

// message builds a guild message from userID in testChannel.
func message(userID, content string) *discordgo.Message {
	messageSeq++
	name := map[string]string{aliceID: "alice", bobID: "bob", guildOwnerID: "owner"}[userID]
	return &discordgo.Message{
		ID:        fmt.Sprintf("5000000000000%05d", messageSeq),
		GuildID:   testGuild,
		ChannelID: testChannel,
		Content:   content,
		Author:    &discordgo.User{ID: userID, Username: name, Discriminator: "0"},
	}
}

// say delivers content from userID and returns the request message.
func (tb *testBot) say(userID, content string) *discordgo.Message {
	m := message(userID, content)
	tb.handleMessage(context.Background(), m)
	return m
}
