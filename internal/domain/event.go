package domain

// EventType names a ledger log entry.
type EventType string

// Token standard events.
const (
	EventTransfer       EventType = "Transfer"
	EventApproval       EventType = "Approval"
	EventApprovalForAll EventType = "ApprovalForAll"
)

// Registry and marketplace events.
const (
	EventStarCreated  EventType = "StarCreated"
	EventStarListed   EventType = "StarListed"
	EventStarDelisted EventType = "StarDelisted"
	EventStarSold     EventType = "StarSold"
)

// Event is a log entry emitted by a committed transaction.
// Only the fields relevant to Type are set.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TokenID   TokenID   `json:"token_id,omitempty"`
	From      *Address  `json:"from,omitempty"`
	To        *Address  `json:"to,omitempty"`
	Owner     *Address  `json:"owner,omitempty"`
	Operator  *Address  `json:"operator,omitempty"`
	Approved  *bool     `json:"approved,omitempty"`
	Price     *Lamports `json:"price,omitempty,string"`
	Timestamp int64     `json:"timestamp"` // unix ms
}

// TransferEvent builds a Transfer log. From is ZeroAddress on mint.
func TransferEvent(from, to Address, id TokenID) Event {
	return Event{Type: EventTransfer, TokenID: id, From: &from, To: &to}
}

// ApprovalEvent builds an Approval log.
func ApprovalEvent(owner, approved Address, id TokenID) Event {
	return Event{Type: EventApproval, TokenID: id, Owner: &owner, To: &approved}
}

// ApprovalForAllEvent builds an ApprovalForAll log.
func ApprovalForAllEvent(owner, operator Address, approved bool) Event {
	return Event{Type: EventApprovalForAll, Owner: &owner, Operator: &operator, Approved: &approved}
}
