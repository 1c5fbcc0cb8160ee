package service

import (
	"context"
	"log/slog"

	"github.com/serousbot/serousbot/internal/domain"
	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/store"
	"github.com/serousbot/serousbot/internal/validation"
)

// TagStore is the persistence surface the tag services need.
type TagStore interface {
	Add(ctx context.Context, guildID, ownerID, name, text string) (domain.Tag, error)
	Edit(ctx context.Context, guildID, ownerID, name, text string) (domain.Tag, error)
	SetGlobal(ctx context.Context, guildID, ownerID, name string, global bool) (domain.Tag, error)
	Lookup(ctx context.Context, guildID, ownerID, name string) (domain.Tag, bool, error)
	FindVisible(ctx context.Context, guildID, requesterID, name string, ignoreVisibility bool) (domain.Tag, bool, error)
	FindGlobal(ctx context.Context, ownerID, name string) (store.GlobalMatch, bool, error)
	SearchGlobal(ctx context.Context, key string) ([]store.GlobalMatch, error)
}

// GuildDirectory answers questions about guilds the bot can see.
type GuildDirectory interface {
	GuildOwnerID(ctx context.Context, guildID string) (string, error)
}

// TagService validates and authorizes tag mutations before handing them to the store.
type TagService struct {
	store     TagStore
	guilds    GuildDirectory
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store TagStore, guilds GuildDirectory, validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{
		store:     store,
		guilds:    guilds,
		validator: validator,
		logger:    logger,
	}
}

type tagKey struct {
	GuildID string `json:"guild_id" validate:"required"`
	OwnerID string `json:"owner_id" validate:"required"`
	Name    string `json:"name" validate:"required,tagname"`
}

type tagWrite struct {
	tagKey
	Text string `json:"text" validate:"notblank"`
}

// Add creates a private tag owned by ownerID.
func (s *TagService) Add(ctx context.Context, guildID, ownerID, name, text string) (domain.Tag, error) {
	if err := s.validator.Validate(tagWrite{tagKey{guildID, ownerID, name}, text}); err != nil {
		return domain.Tag{}, err
	}

	tag, err := s.store.Add(ctx, guildID, ownerID, name, text)
	if err != nil {
		return domain.Tag{}, err
	}

	s.logger.Info("tag created", "guild_id", guildID, "owner_id", ownerID, "name", name)
	return tag, nil
}

// Edit replaces the text of ownerID's tag. Only the owner may edit.
func (s *TagService) Edit(ctx context.Context, guildID, requesterID, ownerID, name, text string) (domain.Tag, error) {
	if err := s.validator.Validate(tagWrite{tagKey{guildID, ownerID, name}, text}); err != nil {
		return domain.Tag{}, err
	}
	if requesterID != ownerID {
		return domain.Tag{}, errors.Forbidden("you can only edit tags that you have created")
	}

	tag, err := s.store.Edit(ctx, guildID, ownerID, name, text)
	if err != nil {
		return domain.Tag{}, err
	}

	s.logger.Info("tag updated", "guild_id", guildID, "owner_id", ownerID, "name", name)
	return tag, nil
}

// SetGlobal changes the visibility of ownerID's tag. Only the guild owner may
// do this, whoever owns the tag.
func (s *TagService) SetGlobal(ctx context.Context, guildID, requesterID, ownerID, name string, global bool) (domain.Tag, error) {
	if err := s.validator.Validate(tagKey{guildID, ownerID, name}); err != nil {
		return domain.Tag{}, err
	}

	guildOwner, err := s.guilds.GuildOwnerID(ctx, guildID)
	if err != nil {
		return domain.Tag{}, errors.Wrap(err, errors.CodeInternal, "look up guild owner")
	}
	if requesterID != guildOwner {
		return domain.Tag{}, errors.Forbidden("only the server owner can change the global status of tags")
	}

	tag, err := s.store.SetGlobal(ctx, guildID, ownerID, name, global)
	if err != nil {
		return domain.Tag{}, err
	}

	s.logger.Info("tag global status updated", "guild_id", guildID, "owner_id", ownerID, "name", name, "global", global)
	return tag, nil
}
