package trade

import "time"

// EventKind names an order transition recorded in the journal
type EventKind string

const (
	EventPlaced   EventKind = "placed"
	EventFilled   EventKind = "filled"
	EventCanceled EventKind = "canceled"
	EventModified EventKind = "modified"
	EventRejected EventKind = "rejected"
)

// OrderEvent is one journal entry
type OrderEvent struct {
	OrderID string      `json:"orderId"`
	Kind    EventKind   `json:"kind"`
	At      time.Time   `json:"at"`
	Order   OrderRecord `json:"order"`
}

// Journal receives order transitions for audit. It is write-only from the
// engine's point of view: nothing recorded is ever read back into state.
type Journal interface {
	Record(ev OrderEvent) error
}

// NopJournal discards events
type NopJournal struct{}

func (NopJournal) Record(OrderEvent) error { return nil }
