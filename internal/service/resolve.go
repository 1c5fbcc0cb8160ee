package service

import (
	"context"
	"log/slog"

	"github.com/serousbot/serousbot/internal/domain"
	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/util"
)

// ResolveKind is the outcome of an implicit resolution.
type ResolveKind int

// Resolution outcomes.
const (
	ResolveNotFound ResolveKind = iota
	ResolveFound
	ResolveMultipleFound
)

func (k ResolveKind) String() string {
	switch k {
	case ResolveFound:
		return "found"
	case ResolveMultipleFound:
		return "multiple"
	default:
		return "not_found"
	}
}

// Resolution is the result of ResolveImplicit.
type Resolution struct {
	Kind ResolveKind
	Tag  domain.Tag // set when Kind is ResolveFound
	// ViaGlobal is set when the tag came from the cross-guild search; callers
	// then present it the way an explicit owner lookup is presented.
	ViaGlobal bool
	Count     int // candidates seen when Kind is ResolveMultipleFound
	// KeyRejected is set when the text could never name a tag (it would be
	// altered by markdown sanitizing). Callers stay silent in that case.
	KeyRejected bool
}

// ExplicitQuery names a tag by owner and name.
type ExplicitQuery struct {
	GuildID  string
	CallerID string
	OwnerID  string
	Name     string
	// Global searches every guild for a global tag of OwnerID instead of the caller's guild.
	Global bool
}

// Resolver maps free text and explicit owner/name pairs to tags.
type Resolver struct {
	store  TagStore
	logger *slog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(store TagStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// ResolveExplicit returns the tag named by q or a NOT_FOUND error.
func (r *Resolver) ResolveExplicit(ctx context.Context, q ExplicitQuery) (domain.Tag, error) {
	if q.Name == "" || q.OwnerID == "" {
		return domain.Tag{}, errors.NotFoundf("tag %q could not be found", q.Name)
	}

	if q.Global {
		match, ok, err := r.store.FindGlobal(ctx, q.OwnerID, q.Name)
		if err != nil {
			return domain.Tag{}, err
		}
		if !ok {
			return domain.Tag{}, errors.NotFoundf("tag %q could not be found", q.Name)
		}
		return match.Tag, nil
	}

	tag, ok, err := r.store.Lookup(ctx, q.GuildID, q.OwnerID, q.Name)
	if err != nil {
		return domain.Tag{}, err
	}
	if !ok {
		return domain.Tag{}, errors.NotFoundf("tag %q could not be found", q.Name)
	}
	return tag, nil
}

// ResolveImplicit treats rawText as a possible tag name.
//
// The caller's guild is searched first for a tag the caller may see. Failing
// that, global tags of every guild are searched: an exact name match wins,
// otherwise every name containing rawText is a candidate. A single candidate
// is resolved through ResolveExplicit with the Global option.
func (r *Resolver) ResolveImplicit(ctx context.Context, guildID, callerID, rawText string) (Resolution, error) {
	if rawText == "" || util.SanitizeMarkdown(rawText) != rawText {
		return Resolution{Kind: ResolveNotFound, KeyRejected: true}, nil
	}

	tag, ok, err := r.store.FindVisible(ctx, guildID, callerID, rawText, false)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		return Resolution{Kind: ResolveFound, Tag: tag}, nil
	}

	candidates, err := r.store.SearchGlobal(ctx, rawText)
	if err != nil {
		return Resolution{}, err
	}

	switch len(candidates) {
	case 0:
		return Resolution{Kind: ResolveNotFound}, nil
	case 1:
		c := candidates[0]
		tag, err := r.ResolveExplicit(ctx, ExplicitQuery{
			GuildID:  guildID,
			CallerID: callerID,
			OwnerID:  c.Tag.OwnerID,
			Name:     c.Tag.Name,
			Global:   true,
		})
		if errors.Is(err, errors.ErrNotFound) {
			// The candidate vanished between the two reads (document reloaded).
			return Resolution{Kind: ResolveNotFound}, nil
		}
		if err != nil {
			return Resolution{}, err
		}
		r.logger.Debug("resolved through global search", "key", rawText, "owner_id", tag.OwnerID, "name", tag.Name)
		return Resolution{Kind: ResolveFound, Tag: tag, ViaGlobal: true}, nil
	default:
		return Resolution{Kind: ResolveMultipleFound, Count: len(candidates)}, nil
	}
}
