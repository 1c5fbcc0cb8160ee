package store

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"

	"github.com/serousbot/serousbot/internal/domain"
)

// orderedMap is a map that remembers insertion order.
type orderedMap[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{m: make(map[K]V)}
}

func (o *orderedMap[K, V]) get(key K) (V, bool) {
	v, ok := o.m[key]
	return v, ok
}

// set stores value under key. New keys go to the end; existing keys keep their position.
func (o *orderedMap[K, V]) set(key K, value V) {
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = value
}

func (o *orderedMap[K, V]) delete(key K) {
	if _, ok := o.m[key]; !ok {
		return
	}
	delete(o.m, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *orderedMap[K, V]) len() int {
	return len(o.keys)
}

// all yields entries in insertion order.
func (o *orderedMap[K, V]) all() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.m[k]) {
				return
			}
		}
	}
}

type (
	// nameMap is level 3: folded tag name → tag.
	nameMap = orderedMap[string, *domain.Tag]
	// ownerMap is level 2: owner id → names.
	ownerMap = orderedMap[string, *nameMap]
)

// GlobalMatch is a tag found by a search spanning every guild.
type GlobalMatch struct {
	GuildID string
	Tag     domain.Tag
}

// Collection is the in-memory tag tree: guild → owner → name → tag.
// Every level iterates in insertion order. Collection is not safe for
// concurrent use; Store guards it.
type Collection struct {
	guilds *orderedMap[string, *ownerMap]
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{guilds: newOrderedMap[string, *ownerMap]()}
}

// foldName returns the case-insensitive match key for a tag name.
// A Caser holds state, so each call gets its own.
func foldName(name string) string {
	return cases.Fold().String(name)
}

func (c *Collection) names(guildID, ownerID string) (*nameMap, bool) {
	owners, ok := c.guilds.get(guildID)
	if !ok {
		return nil, false
	}
	return owners.get(ownerID)
}

// Get returns the tag at (guild, owner, name).
func (c *Collection) Get(guildID, ownerID, name string) (*domain.Tag, bool) {
	names, ok := c.names(guildID, ownerID)
	if !ok {
		return nil, false
	}
	return names.get(foldName(name))
}

// Insert adds tag under (guild, tag.OwnerID). It reports false and leaves the
// collection untouched when the slot is taken. The returned func reverses the
// insert, including any buckets it had to create.
func (c *Collection) Insert(guildID string, tag *domain.Tag) (undo func(), ok bool) {
	key := foldName(tag.Name)

	owners, guildExisted := c.guilds.get(guildID)
	if !guildExisted {
		owners = newOrderedMap[string, *nameMap]()
	}
	names, ownerExisted := owners.get(tag.OwnerID)
	if !ownerExisted {
		names = newOrderedMap[string, *domain.Tag]()
	}
	if _, taken := names.get(key); taken {
		return nil, false
	}

	names.set(key, tag)
	if !ownerExisted {
		owners.set(tag.OwnerID, names)
	}
	if !guildExisted {
		c.guilds.set(guildID, owners)
	}

	return func() {
		names.delete(key)
		if !ownerExisted {
			owners.delete(tag.OwnerID)
		}
		if !guildExisted {
			c.guilds.delete(guildID)
		}
	}, true
}

// FindVisible scans every owner bucket of the guild in insertion order and
// returns the first tag whose name matches case-insensitively and which
// requesterID may see. ignoreVisibility considers private tags of other owners too.
func (c *Collection) FindVisible(guildID, requesterID, name string, ignoreVisibility bool) (*domain.Tag, bool) {
	owners, ok := c.guilds.get(guildID)
	if !ok {
		return nil, false
	}
	key := foldName(name)
	for _, names := range owners.all() {
		for k, tag := range names.all() {
			if !tag.VisibleTo(requesterID, ignoreVisibility) {
				continue
			}
			if k == key {
				return tag, true
			}
		}
	}
	return nil, false
}

// FindGlobal returns the first global tag owned by ownerID and named name in any guild.
func (c *Collection) FindGlobal(ownerID, name string) (GlobalMatch, bool) {
	key := foldName(name)
	for guildID, owners := range c.guilds.all() {
		names, ok := owners.get(ownerID)
		if !ok {
			continue
		}
		if tag, ok := names.get(key); ok && tag.Global {
			return GlobalMatch{GuildID: guildID, Tag: *tag}, true
		}
	}
	return GlobalMatch{}, false
}

// SearchGlobal looks through the global tags of every guild. The first
// case-insensitive exact match is returned alone; without one, every global
// tag whose name contains key (case-sensitive) is returned.
func (c *Collection) SearchGlobal(key string) []GlobalMatch {
	folded := foldName(key)
	for guildID, tag := range c.globalTags() {
		if foldName(tag.Name) == folded {
			return []GlobalMatch{{GuildID: guildID, Tag: *tag}}
		}
	}

	var matches []GlobalMatch
	for guildID, tag := range c.globalTags() {
		if strings.Contains(tag.Name, key) {
			matches = append(matches, GlobalMatch{GuildID: guildID, Tag: *tag})
		}
	}
	return matches
}

func (c *Collection) globalTags() iter.Seq2[string, *domain.Tag] {
	return func(yield func(string, *domain.Tag) bool) {
		for guildID, owners := range c.guilds.all() {
			for _, names := range owners.all() {
				for _, tag := range names.all() {
					if !tag.Global {
						continue
					}
					if !yield(guildID, tag) {
						return
					}
				}
			}
		}
	}
}

// GuildTags returns copies of a guild's tags, owners in insertion order and
// each owner's tags in insertion order.
func (c *Collection) GuildTags(guildID string) []domain.Tag {
	owners, ok := c.guilds.get(guildID)
	if !ok {
		return nil
	}
	var tags []domain.Tag
	for _, names := range owners.all() {
		for _, tag := range names.all() {
			tags = append(tags, *tag)
		}
	}
	return tags
}

// Guilds returns the number of guild buckets.
func (c *Collection) Guilds() int {
	return c.guilds.len()
}

// Len returns the total number of tags.
func (c *Collection) Len() int {
	n := 0
	for _, owners := range c.guilds.all() {
		for _, names := range owners.all() {
			n += names.len()
		}
	}
	return n
}
