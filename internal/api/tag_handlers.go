package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/serousbot/serousbot/internal/domain"
	"github.com/serousbot/serousbot/internal/errors"
	"github.com/serousbot/serousbot/internal/store"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGuildTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/guilds/{guildID}/tags",
		Summary:     "List guild tags",
		Description: "Returns a page of the tags stored for a guild in creation order",
		Tags:        []string{"Tags"},
	}, s.handleListGuildTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/guilds/{guildID}/users/{ownerID}/tags/{name}",
		Summary:     "Get tag",
		Description: "Returns a single tag by guild, owner and name. Names match case-insensitively.",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)
}

// === DTOs ===

// ListGuildTagsInput contains parameters for listing a guild's tags.
type ListGuildTagsInput struct {
	GuildID string `path:"guildID" pattern:"^[0-9]+$" doc:"Guild snowflake"`
	Limit   int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Tags per page"`
	Cursor  string `query:"cursor" doc:"Cursor from a previous page"`
}

// GetTagInput contains parameters for getting a tag.
type GetTagInput struct {
	GuildID string `path:"guildID" pattern:"^[0-9]+$" doc:"Guild snowflake"`
	OwnerID string `path:"ownerID" pattern:"^[0-9]+$" doc:"Owner snowflake"`
	Name    string `path:"name" minLength:"1" doc:"Tag name"`
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	OwnerID string `json:"owner_id" doc:"User who created the tag"`
	Name    string `json:"name" doc:"Tag name as it was created"`
	Text    string `json:"text" doc:"Tag body"`
	Global  bool   `json:"global" doc:"Whether every guild member can use the tag"`
}

// ListGuildTagsResponse contains a guild's tags.
type ListGuildTagsResponse struct {
	GuildID    string        `json:"guild_id" doc:"Guild snowflake"`
	Tags       []TagResponse `json:"tags" doc:"Tags in creation order"`
	NextCursor string        `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool          `json:"has_more" doc:"Whether more tags follow"`
	Total      int           `json:"total" doc:"Tags stored for the guild"`
}

// ListGuildTagsOutput wraps the list response for Huma.
type ListGuildTagsOutput struct {
	Body ListGuildTagsResponse
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body TagResponse
}

func (s *Server) handleListGuildTags(ctx context.Context, input *ListGuildTagsInput) (*ListGuildTagsOutput, error) {
	tags, err := s.store.ListGuild(ctx, input.GuildID)
	if err != nil {
		s.logger.Error("failed to list guild tags", "guild_id", input.GuildID, "error", err)
		return nil, err
	}

	page, err := store.Paginate(tags, store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(page.Items))
	for i, t := range page.Items {
		resp[i] = toTagResponse(t)
	}

	return &ListGuildTagsOutput{
		Body: ListGuildTagsResponse{
			GuildID:    input.GuildID,
			Tags:       resp,
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
			Total:      page.Total,
		},
	}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	tag, ok, err := s.store.Lookup(ctx, input.GuildID, input.OwnerID, input.Name)
	if err != nil {
		s.logger.Error("failed to get tag", "guild_id", input.GuildID, "owner_id", input.OwnerID, "name", input.Name, "error", err)
		return nil, err
	}
	if !ok {
		return nil, errors.NotFoundf("tag %q could not be found", input.Name)
	}

	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func toTagResponse(t domain.Tag) TagResponse {
	return TagResponse{
		OwnerID: t.OwnerID,
		Name:    t.Name,
		Text:    t.Text,
		Global:  t.Global,
	}
}
