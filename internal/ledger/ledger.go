// Package ledger tracks bot replies that their requester may undo with a reaction.
// Entries live in memory only and are lost on restart.
package ledger

// Ticket records who asked for a bot reply and which request message produced it.
type Ticket struct {
	RequesterID      string
	RequestMessageID string
}

// Ledger maps bot message ids to tickets. It has its own lock and never
// touches the tag store.
type Ledger struct {
	tickets *SyncMap[string, Ticket]
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{tickets: NewSyncMap[string, Ticket]()}
}

// Register records that botMessageID answered requestMessageID from requesterID.
// Bot message ids are unique, so an existing entry is simply replaced.
func (l *Ledger) Register(botMessageID, requesterID, requestMessageID string) {
	l.tickets.Store(botMessageID, Ticket{
		RequesterID:      requesterID,
		RequestMessageID: requestMessageID,
	})
}

// TryAuthorizeDeletion reports whether reactingUserID may delete botMessageID.
// A successful authorization consumes the entry; any other outcome leaves the
// ledger untouched.
func (l *Ledger) TryAuthorizeDeletion(botMessageID, reactingUserID string) bool {
	_, ok := l.tickets.LoadAndDeleteIf(botMessageID, func(t Ticket) bool {
		return t.RequesterID == reactingUserID
	})
	return ok
}

// Lookup returns the ticket for botMessageID without consuming it.
func (l *Ledger) Lookup(botMessageID string) (Ticket, bool) {
	return l.tickets.Load(botMessageID)
}

// Len returns the number of outstanding tickets.
func (l *Ledger) Len() int {
	return l.tickets.Len()
}
