package watcher

import "time"

// EventType represents the type of file system event.
type EventType int

const (
	// EventModified is emitted when a watched file was written or replaced and has settled.
	EventModified EventType = iota
	// EventRemoved is emitted when a watched file disappears.
	EventRemoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a change to a watched file.
type Event struct {
	Type    EventType
	Path    string
	Size    int64     // zero for EventRemoved
	ModTime time.Time // zero for EventRemoved
}
