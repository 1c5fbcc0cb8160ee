package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/serousbot/serousbot/internal/domain"
	domainerrors "github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/util"
)

// ChannelLookup reports which guilds and text channels the bot can currently see.
// A false result with a nil error means Discord positively does not know the
// id; an error means the answer is unknown.
type ChannelLookup interface {
	GuildExists(guildID string) (bool, error)
	TextChannelExists(guildID, channelID string) (bool, error)
}

// BotChannelService keeps the per-guild announcement channel, persisted as
// "guildID-channelID" lines.
type BotChannelService struct {
	path   string
	quiet  bool
	logger *slog.Logger

	mu       sync.Mutex
	order    []string          // guild ids in the order they were first set
	channels map[string]string // guild id → channel id
	started  bool
}

// NewBotChannelService creates a service backed by the file at path.
// quietStartup suppresses the first startup announcement.
func NewBotChannelService(path string, quietStartup bool, logger *slog.Logger) *BotChannelService {
	return &BotChannelService{
		path:     path,
		quiet:    quietStartup,
		logger:   logger,
		channels: make(map[string]string),
	}
}

// Load replaces the in-memory channels with the valid lines of the file.
// Lines with a bad format or naming a guild or channel Discord does not know
// are logged and dropped, and the file is rewritten without them. A line whose
// lookup fails is kept as is.
func (s *BotChannelService) Load(ctx context.Context, lookup ChannelLookup) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodePersistence, "read %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	clear(s.channels)

	mismatch := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		guildID, channelID, problem, err := parseBotChannelLine(line, lookup)
		if err != nil {
			s.logger.Warn("could not verify bot channel line, keeping it",
				"line", lineNum, "guild_id", guildID, "channel_id", channelID, "path", s.path, "error", err)
			s.setLocked(guildID, channelID)
			continue
		}
		if problem != "" {
			s.logger.Error("dropping bot channel line", "line", lineNum, "problem", problem, "path", s.path)
			mismatch = true
			continue
		}
		s.setLocked(guildID, channelID)
	}
	if err := scanner.Err(); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodePersistence, "read %s", s.path)
	}

	if mismatch {
		return s.saveLocked()
	}
	return nil
}

// parseBotChannelLine returns the ids on line or a description of what is
// wrong with it. err is set, together with both ids, when a lookup failed.
func parseBotChannelLine(line string, lookup ChannelLookup) (guildID, channelID, problem string, err error) {
	parts := strings.Split(line, "-")
	if len(parts) != 2 {
		return "", "", "invalid format", nil
	}
	guildID, channelID = parts[0], parts[1]

	if _, err := strconv.ParseUint(guildID, 10, 64); err != nil {
		return "", "", "invalid guild ID", nil
	}
	if _, err := strconv.ParseUint(channelID, 10, 64); err != nil {
		return "", "", "invalid channel ID", nil
	}

	ok, err := lookup.GuildExists(guildID)
	if err != nil {
		return guildID, channelID, "", fmt.Errorf("guild %s: %w", guildID, err)
	}
	if !ok {
		return "", "", "guild does not exist", nil
	}
	ok, err = lookup.TextChannelExists(guildID, channelID)
	if err != nil {
		return guildID, channelID, "", fmt.Errorf("channel %s: %w", channelID, err)
	}
	if !ok {
		return "", "", "channel does not exist", nil
	}
	return guildID, channelID, "", nil
}

// Set makes channelID the announcement channel of guildID and rewrites the file.
func (s *BotChannelService) Set(ctx context.Context, guildID, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, had := s.channels[guildID]
	s.setLocked(guildID, channelID)
	if err := s.saveLocked(); err != nil {
		if had {
			s.channels[guildID] = previous
		} else {
			delete(s.channels, guildID)
			s.order = s.order[:len(s.order)-1]
		}
		return err
	}

	s.logger.Info("bot channel set", "guild_id", guildID, "channel_id", channelID)
	return nil
}

// Channel returns the announcement channel of guildID.
func (s *BotChannelService) Channel(guildID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.channels[guildID]
	return id, ok
}

// Channels returns every configured channel in the order guilds were first set.
func (s *BotChannelService) Channels() []domain.BotChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// StartupAnnouncements returns the channels that should hear "started up".
// Only the first call can return channels, and only when startup is not quiet;
// reconnects stay silent.
func (s *BotChannelService) StartupAnnouncements() []domain.BotChannel {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	if s.quiet {
		return nil
	}
	return s.listLocked()
}

func (s *BotChannelService) setLocked(guildID, channelID string) {
	if _, ok := s.channels[guildID]; !ok {
		s.order = append(s.order, guildID)
	}
	s.channels[guildID] = channelID
}

func (s *BotChannelService) listLocked() []domain.BotChannel {
	out := make([]domain.BotChannel, 0, len(s.order))
	for _, guildID := range s.order {
		out = append(out, domain.BotChannel{GuildID: guildID, ChannelID: s.channels[guildID]})
	}
	return out
}

func (s *BotChannelService) saveLocked() error {
	var buf bytes.Buffer
	for _, c := range s.listLocked() {
		fmt.Fprintf(&buf, "%s-%s\n", c.GuildID, c.ChannelID)
	}
	if err := util.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodePersistence, "write %s", s.path)
	}
	return nil
}
