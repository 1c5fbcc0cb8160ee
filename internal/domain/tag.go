package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tag is a named text snippet owned by a user within a guild.
// Name is case preserving; lookups compare it case-insensitively.
// Tags are never deleted: Add creates them, Edit replaces Text and
// SetGlobal flips Global.
type Tag struct {
	OwnerID string `json:"ownerID"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	Global  bool   `json:"global"` // Visible to every member of the guild, not only the owner
}

// IsOwnedBy reports whether userID created the tag.
func (t *Tag) IsOwnedBy(userID string) bool {
	return t.OwnerID == userID
}

// VisibleTo reports whether requesterID may see the tag through a guild-wide
// search. ignoreVisibility lifts the global/owner restriction.
func (t *Tag) VisibleTo(requesterID string, ignoreVisibility bool) bool {
	return ignoreVisibility || t.Global || t.IsOwnedBy(requesterID)
}

// UnmarshalJSON accepts ownerID as either a decimal string or a bare number.
// Older documents wrote snowflakes as JSON numbers.
func (t *Tag) UnmarshalJSON(data []byte) error {
	type plain Tag
	var raw struct {
		plain
		OwnerID json.RawMessage `json:"ownerID"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Tag(raw.plain)
	owner, err := decodeSnowflake(raw.OwnerID)
	if err != nil {
		return fmt.Errorf("tag %q: ownerID: %w", t.Name, err)
	}
	t.OwnerID = owner
	return nil
}

// decodeSnowflake reads a JSON string or integer into its decimal string form.
func decodeSnowflake(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if _, err := n.Int64(); err != nil {
		// Snowflakes exceed int64 only in theory; keep the digits if they are all digits.
		for _, c := range n.String() {
			if c < '0' || c > '9' {
				return "", fmt.Errorf("not an integer: %s", n)
			}
		}
	}
	return n.String(), nil
}
