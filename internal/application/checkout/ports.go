package checkout

import (
	"context"

	"github.com/yutashop/storefront/internal/domain/auth"
	"github.com/yutashop/storefront/internal/domain/cart"
	"github.com/yutashop/storefront/internal/domain/order"
)

// Store is the coordinator's outbound port onto the storefront state. All
// reads and writes of one transition happen inside a single Update so the
// bundle commits atomically.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the state reachable inside an Update. Stock mutation exists
// only here: one unit per DecrementStockOne call, floored at zero.
type Tx interface {
	CartLines() []cart.Line
	StockFor(productID int) int
	StagePending(p *order.PendingOrder)
	Pending() *order.PendingOrder
	ClearCart()
	DecrementStockOne(productID int) (remaining int, depleted bool)
	PrependOrder(o *order.Order)
	ClearPending()
}

// Confirmer answers the shopper's yes/no checkout confirmation prompt.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// SessionReader reports the current authentication state.
type SessionReader interface {
	Current(ctx context.Context) auth.Session
}

// IDGenerator mints order identifiers.
type IDGenerator interface {
	NewOrderID() string
}
