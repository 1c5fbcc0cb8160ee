package store

import (
	"encoding/base64"
	"strconv"

	"github.com/serousbot/serousbot/internal/errors"
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page (defaults to 100, at most 1000)
	Cursor string // Opaque cursor for the next page (empty for the first page)
}

// PaginatedResult contains one page of items.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Limit:  100,
		Cursor: "",
	}
}

// Validate clamps the limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 100
	}

	if p.Limit > 1000 {
		p.Limit = 1000
	}
}

// EncodeCursor creates an opaque cursor for the item at offset.
func EncodeCursor(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor decodes a cursor back to an offset.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, errors.Validationf("invalid cursor: %v", err)
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0, errors.Validation("invalid cursor")
	}

	return offset, nil
}

// Paginate slices items into the page described by params.
// Items are in a stable order, so an offset cursor stays valid as long as
// nothing is inserted before it. Tags are never deleted, which keeps that true.
func Paginate[T any](items []T, params PaginationParams) (PaginatedResult[T], error) {
	params.Validate()

	offset, err := DecodeCursor(params.Cursor)
	if err != nil {
		return PaginatedResult[T]{}, err
	}
	offset = min(offset, len(items))
	end := min(offset+params.Limit, len(items))

	result := PaginatedResult[T]{
		Items:   items[offset:end],
		HasMore: end < len(items),
		Total:   len(items),
	}
	if result.HasMore {
		result.NextCursor = EncodeCursor(end)
	}
	return result, nil
}
