package ledger

import "star-notary/internal/domain"

// Receipt collects the events emitted while a transaction runs.
// Events are only meaningful once the transaction commits.
type Receipt struct {
	events []domain.Event
}

// Emit appends an event. A nil receipt discards it.
func (r *Receipt) Emit(e domain.Event) {
	if r == nil {
		return
	}
	r.events = append(r.events, e)
}

// Events returns the emitted events in order.
func (r *Receipt) Events() []domain.Event {
	if r == nil {
		return nil
	}
	return r.events
}
