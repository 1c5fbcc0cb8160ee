// Package id generates short correlation ids for log lines.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the kinds of work the bot correlates.
const (
	PrefixMessage     = "msg"
	PrefixReaction    = "rxn"
	PrefixInteraction = "cmd"
	PrefixRequest     = "req"
)

// eventIDSize keeps ids short enough to scan in console output.
const eventIDSize = 12

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "msg-V1StGXR8_Z5j").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New(eventIDSize)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Event returns a correlation id for one gateway event or HTTP request.
// Entropy failures are not worth dropping an event over, so they yield a fixed id.
func Event(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		return prefix + "-unknown"
	}
	return id
}
