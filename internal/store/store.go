// Package store keeps the tag collection in memory and persists it as a single JSON document.
package store

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/serousbot/serousbot/internal/domain"
	"github.com/serousbot/serousbot/internal/util"
)

const documentPerm = 0o644

// Stats describes the loaded collection.
type Stats struct {
	Loaded bool `json:"loaded"`
	Guilds int  `json:"guilds"`
	Tags   int  `json:"tags"`
}

// Store owns the tag collection and its backing document.
//
// A single RWMutex guards both. Mutators hold the write lock from loading
// through the atomic replace of the document, so racing first writers cannot
// clobber each other. Readers share the read lock and briefly take the write
// lock only to perform the first load. Two editors racing on the same tag
// both succeed; the one that takes the lock last wins.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	tags *Collection // nil until first access
	// last document bytes read or written by this process
	lastDocument []byte
}

// New creates a store backed by the document at path. Nothing is read until first use.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// loadLocked reads the document into memory if that has not happened yet.
// A missing document yields an empty collection. Caller holds the write lock.
func (s *Store) loadLocked() error {
	if s.tags != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.tags = NewCollection()
		s.logger.Info("tag document not found, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		return errPersist("read", s.path, err)
	}

	tags, shadowed, err := decodeCollection(data)
	if err != nil {
		s.logger.Error("tag document is corrupt", "path", s.path, "error", err)
		return errCorrupt(s.path, err)
	}
	s.logShadowed(shadowed)

	s.tags = tags
	s.lastDocument = data
	s.logger.Info("tag document loaded", "path", s.path, "guilds", tags.Guilds(), "tags", tags.Len())
	return nil
}

// logShadowed reports tags hidden by a case-insensitive name clash. They stay
// in the document until the next write.
func (s *Store) logShadowed(shadowed []shadowedTag) {
	for _, t := range shadowed {
		s.logger.Warn("tag name clashes with another tag of the same owner, ignoring it",
			"path", s.path,
			"guild_id", t.GuildID,
			"owner_id", t.OwnerID,
			"name", t.Name,
			"kept", t.Kept,
		)
	}
}

// saveLocked rewrites the whole document. Caller holds the write lock.
func (s *Store) saveLocked() error {
	data, err := encodeCollection(s.tags)
	if err != nil {
		return errPersist("encode", s.path, err)
	}
	if err := util.WriteFileAtomic(s.path, data, documentPerm); err != nil {
		return errPersist("write", s.path, err)
	}
	s.lastDocument = data
	return nil
}

// view runs fn against the loaded collection under a lock that excludes writers.
func (s *Store) view(ctx context.Context, fn func(c *Collection)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	if s.tags != nil {
		fn(s.tags)
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	fn(s.tags)
	return nil
}

// update runs mutate under the write lock and persists the result. When
// mutate succeeds but the write fails, undo restores the in-memory state.
func (s *Store) update(ctx context.Context, mutate func(c *Collection) (undo func(), err error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	undo, err := mutate(s.tags)
	if err != nil {
		return err
	}

	if err := s.saveLocked(); err != nil {
		undo()
		s.logger.Error("tag document write failed, change rolled back", "path", s.path, "error", err)
		return err
	}
	return nil
}

// Add creates a private tag at (guild, owner, name).
// Returns ALREADY_EXISTS when the owner already has a tag with that name in the guild.
func (s *Store) Add(ctx context.Context, guildID, ownerID, name, text string) (domain.Tag, error) {
	var created domain.Tag
	err := s.update(ctx, func(c *Collection) (func(), error) {
		tag := &domain.Tag{OwnerID: ownerID, Name: name, Text: text}
		undo, ok := c.Insert(guildID, tag)
		if !ok {
			return nil, errTagExists(name)
		}
		created = *tag
		return undo, nil
	})
	if err != nil {
		return domain.Tag{}, err
	}

	s.logger.Debug("tag added", "guild_id", guildID, "owner_id", ownerID, "name", name)
	return created, nil
}

// Edit replaces the text of the tag at (guild, owner, name).
func (s *Store) Edit(ctx context.Context, guildID, ownerID, name, text string) (domain.Tag, error) {
	var updated domain.Tag
	err := s.update(ctx, func(c *Collection) (func(), error) {
		tag, ok := c.Get(guildID, ownerID, name)
		if !ok {
			return nil, errTagNotFound(name)
		}
		previous := tag.Text
		tag.Text = text
		updated = *tag
		return func() { tag.Text = previous }, nil
	})
	if err != nil {
		return domain.Tag{}, err
	}

	s.logger.Debug("tag edited", "guild_id", guildID, "owner_id", ownerID, "name", name)
	return updated, nil
}

// SetGlobal sets the visibility flag of the tag at (guild, owner, name).
func (s *Store) SetGlobal(ctx context.Context, guildID, ownerID, name string, global bool) (domain.Tag, error) {
	var updated domain.Tag
	err := s.update(ctx, func(c *Collection) (func(), error) {
		tag, ok := c.Get(guildID, ownerID, name)
		if !ok {
			return nil, errTagNotFound(name)
		}
		previous := tag.Global
		tag.Global = global
		updated = *tag
		return func() { tag.Global = previous }, nil
	})
	if err != nil {
		return domain.Tag{}, err
	}

	s.logger.Debug("tag visibility changed", "guild_id", guildID, "owner_id", ownerID, "name", name, "global", global)
	return updated, nil
}

// Lookup returns the tag at (guild, owner, name). Absence is not an error.
func (s *Store) Lookup(ctx context.Context, guildID, ownerID, name string) (domain.Tag, bool, error) {
	var (
		found domain.Tag
		ok    bool
	)
	err := s.view(ctx, func(c *Collection) {
		var tag *domain.Tag
		if tag, ok = c.Get(guildID, ownerID, name); ok {
			found = *tag
		}
	})
	return found, ok, err
}

// FindVisible returns the first tag in the guild named name (case-insensitively)
// that requesterID may see. Owners are scanned in the order their first tag was
// created, so among equal names the earliest owner wins.
func (s *Store) FindVisible(ctx context.Context, guildID, requesterID, name string, ignoreVisibility bool) (domain.Tag, bool, error) {
	var (
		found domain.Tag
		ok    bool
	)
	err := s.view(ctx, func(c *Collection) {
		var tag *domain.Tag
		if tag, ok = c.FindVisible(guildID, requesterID, name, ignoreVisibility); ok {
			found = *tag
		}
	})
	return found, ok, err
}

// FindGlobal returns the first global tag owned by ownerID and named name in any guild.
func (s *Store) FindGlobal(ctx context.Context, ownerID, name string) (GlobalMatch, bool, error) {
	var (
		match GlobalMatch
		ok    bool
	)
	err := s.view(ctx, func(c *Collection) {
		match, ok = c.FindGlobal(ownerID, name)
	})
	return match, ok, err
}

// SearchGlobal returns the global tags matching key across every guild.
// See Collection.SearchGlobal for the matching rules.
func (s *Store) SearchGlobal(ctx context.Context, key string) ([]GlobalMatch, error) {
	var matches []GlobalMatch
	err := s.view(ctx, func(c *Collection) {
		matches = c.SearchGlobal(key)
	})
	return matches, err
}

// ListGuild returns the guild's tags in insertion order.
func (s *Store) ListGuild(ctx context.Context, guildID string) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := s.view(ctx, func(c *Collection) {
		tags = c.GuildTags(guildID)
	})
	return tags, err
}

// Stats reports collection size without triggering a load.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tags == nil {
		return Stats{}
	}
	return Stats{Loaded: true, Guilds: s.tags.Guilds(), Tags: s.tags.Len()}
}

// Reload re-reads the document after an external edit. It reports whether the
// in-memory collection was replaced. A document identical to the last one this
// store read or wrote is ignored. A missing or corrupt document leaves the
// collection as it is and, for corruption, returns the error.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errPersist("read", s.path, err)
	}
	if s.lastDocument != nil && bytes.Equal(data, s.lastDocument) {
		return false, nil
	}

	tags, shadowed, err := decodeCollection(data)
	if err != nil {
		return false, errCorrupt(s.path, err)
	}
	s.logShadowed(shadowed)

	s.tags = tags
	s.lastDocument = data
	s.logger.Info("tag document reloaded", "path", s.path, "guilds", tags.Guilds(), "tags", tags.Len())
	return true, nil
}
