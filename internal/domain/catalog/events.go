package catalog

import "time"

// StockDepletedEvent is emitted when a decrement floors an item at zero.
type StockDepletedEvent struct {
	ProductID  int
	Title      string
	OccurredAt time.Time
}

func (StockDepletedEvent) EventName() string { return "catalog.stock_depleted" }
