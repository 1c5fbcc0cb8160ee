package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/serousbot/serousbot/internal/domain"
)

// The tag document is one JSON object:
//
//	{guildID: {ownerID: {tagName: {"ownerID", "name", "text", "global"}}}}
//
// Object keys are written in collection order and read back in document
// order, so iteration order survives a save/load round trip. encoding/json
// maps do not keep key order, hence the token-level codec.

// encodeCollection serializes c as an indented document.
func encodeCollection(c *Collection) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	gi := 0
	for guildID, owners := range c.guilds.all() {
		if gi > 0 {
			buf.WriteByte(',')
		}
		gi++
		if err := writeKey(&buf, guildID); err != nil {
			return nil, err
		}

		buf.WriteByte('{')
		oi := 0
		for ownerID, names := range owners.all() {
			if oi > 0 {
				buf.WriteByte(',')
			}
			oi++
			if err := writeKey(&buf, ownerID); err != nil {
				return nil, err
			}

			buf.WriteByte('{')
			ni := 0
			for _, tag := range names.all() {
				if ni > 0 {
					buf.WriteByte(',')
				}
				ni++
				if err := writeKey(&buf, tag.Name); err != nil {
					return nil, err
				}
				data, err := json.Marshal(tag)
				if err != nil {
					return nil, fmt.Errorf("encode tag %q: %w", tag.Name, err)
				}
				buf.Write(data)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", key, err)
	}
	buf.Write(data)
	buf.WriteByte(':')
	return nil
}

// shadowedTag is a tag whose name differs only in case from an earlier tag of
// the same owner. Older documents stored names case-sensitively.
type shadowedTag struct {
	GuildID string
	OwnerID string
	Name    string
	Kept    string
}

// decodeCollection parses a tag document. An empty or null document is an
// empty collection. Owner mismatches and duplicate keys are errors. Of several
// names that fold to the same key, the first is loaded and the rest are
// returned as shadowed.
func decodeCollection(data []byte) (*Collection, []shadowedTag, error) {
	c := NewCollection()
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil, nil
	}

	var shadowed []shadowedTag

	dec := json.NewDecoder(bytes.NewReader(data))
	err := readObject(dec, func(guildID string) error {
		if _, dup := c.guilds.get(guildID); dup {
			return fmt.Errorf("duplicate guild %q", guildID)
		}
		owners := newOrderedMap[string, *nameMap]()
		c.guilds.set(guildID, owners)

		return readObject(dec, func(ownerID string) error {
			if _, dup := owners.get(ownerID); dup {
				return fmt.Errorf("guild %s: duplicate owner %q", guildID, ownerID)
			}
			names := newOrderedMap[string, *domain.Tag]()
			owners.set(ownerID, names)

			return readObject(dec, func(name string) error {
				tag, err := readTag(dec, ownerID, name)
				if err != nil {
					return fmt.Errorf("guild %s: owner %s: %w", guildID, ownerID, err)
				}
				if tag == nil {
					return nil
				}
				key := foldName(tag.Name)
				if kept, dup := names.get(key); dup {
					if kept.Name == tag.Name {
						return fmt.Errorf("guild %s: owner %s: duplicate tag %q", guildID, ownerID, tag.Name)
					}
					shadowed = append(shadowed, shadowedTag{GuildID: guildID, OwnerID: ownerID, Name: tag.Name, Kept: kept.Name})
					return nil
				}
				names.set(key, tag)
				return nil
			})
		})
	})
	if err != nil {
		return nil, nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, errors.New("unexpected data after document")
	}
	return c, shadowed, nil
}

// readTag decodes the tag stored under name in ownerID's bucket.
// A null entry yields nil.
func readTag(dec *json.Decoder, ownerID, name string) (*domain.Tag, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("tag %q: %w", name, err)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var tag domain.Tag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("tag %q: %w", name, err)
	}

	switch {
	case tag.OwnerID == "":
		tag.OwnerID = ownerID
	case tag.OwnerID != ownerID:
		return nil, fmt.Errorf("tag %q: ownerID %s does not match its owner key", name, tag.OwnerID)
	}

	switch {
	case tag.Name == "":
		tag.Name = name
	case foldName(tag.Name) != foldName(name):
		return nil, fmt.Errorf("tag stored as %q is named %q", name, tag.Name)
	}

	return &tag, nil
}

// readObject consumes one JSON object (or null), calling fn for each key
// with the decoder positioned at the key's value.
func readObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
