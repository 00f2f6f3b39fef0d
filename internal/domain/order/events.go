package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinalizedEvent is emitted after a successful payment commits the order.
// Handlers observe; they never participate in the commit itself.
type FinalizedEvent struct {
	OrderID    string
	Total      decimal.Decimal
	LineCount  int
	OccurredAt time.Time
}

func (FinalizedEvent) EventName() string { return "order.finalized" }

func NewFinalizedEvent(o *Order) FinalizedEvent {
	return FinalizedEvent{
		OrderID:    o.ID,
		Total:      o.Total,
		LineCount:  len(o.Items),
		OccurredAt: time.Now().UTC(),
	}
}
