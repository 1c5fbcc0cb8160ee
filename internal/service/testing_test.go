package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/store"
	"github.com/serousbot/serousbot/internal/validation"
)

// fakeGuilds maps guild ids to their owner ids.
type fakeGuilds map[string]string

func (f fakeGuilds) GuildOwnerID(_ context.Context, guildID string) (string, error) {
	owner, ok := f[guildID]
	if !ok {
		return "", errors.NotFoundf("guild %s not found", guildID)
	}
	return owner, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "Tags", "list.json"), slog.New(slog.DiscardHandler))
}

func newTestTagService(t *testing.T, guilds fakeGuilds) (*TagService, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewTagService(s, guilds, validation.New(), slog.New(slog.DiscardHandler)), s
}
