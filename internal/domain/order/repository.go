package order

import "context"

// HistoryRepository is the append-only order log, most recent first.
type HistoryRepository interface {
	Prepend(ctx context.Context, o *Order) error
	List(ctx context.Context) ([]*Order, error)
	Clear(ctx context.Context) error
}

// PendingRepository is the single-slot holder for the staged order.
type PendingRepository interface {
	Stage(ctx context.Context, p *PendingOrder) error
	// Get returns ErrNoPending when nothing is staged.
	Get(ctx context.Context) (*PendingOrder, error)
	Clear(ctx context.Context) error
}
