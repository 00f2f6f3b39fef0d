package memory

import (
	"github.com/yutashop/storefront/internal/domain/cart"
	"github.com/yutashop/storefront/internal/domain/order"
)

// tx gives the checkout coordinator direct access to store state while the
// write lock is held. Methods never lock; Update already did.
type tx struct{ s *Store }

func (t *tx) CartLines() []cart.Line {
	return append([]cart.Line(nil), t.s.cartLines...)
}

func (t *tx) StockFor(productID int) int {
	return t.s.stockFor(productID)
}

func (t *tx) StagePending(p *order.PendingOrder) {
	t.s.pending = p.Clone()
}

func (t *tx) Pending() *order.PendingOrder {
	return t.s.pending.Clone()
}

func (t *tx) ClearCart() {
	t.s.clearCart()
}

func (t *tx) DecrementStockOne(productID int) (remaining int, depleted bool) {
	item, ok := t.s.catalogItems[productID]
	if !ok {
		return 0, false
	}
	depleted = item.DecrementOne()
	return item.Quantity, depleted
}

func (t *tx) PrependOrder(o *order.Order) {
	t.s.history = append([]*order.Order{o.Clone()}, t.s.history...)
}

func (t *tx) ClearPending() {
	t.s.pending = nil
}
