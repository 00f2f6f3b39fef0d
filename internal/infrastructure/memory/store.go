package memory

import (
	"context"
	"sync"

	"github.com/yutashop/storefront/internal/application/checkout"
	"github.com/yutashop/storefront/internal/domain/cart"
	"github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/domain/order"
)

// Store owns all memory-resident storefront state behind a single mutex:
// catalog items, cart lines, the pending-order slot, and order history.
// Each entity kind is reached through a typed view so every component only
// sees the port it needs; one shared lock lets a checkout transition apply
// as a single state-update unit that no reader can observe half-done.
type Store struct {
	mu           sync.RWMutex
	catalogItems map[int]*catalog.Item
	catalogOrder []int
	cartLines    []cart.Line
	pending      *order.PendingOrder
	history      []*order.Order
}

func NewStore() *Store {
	return &Store{
		catalogItems: make(map[int]*catalog.Item),
	}
}

// Catalog returns the catalog view of the store.
func (s *Store) Catalog() catalog.Repository { return catalogView{s} }

// Cart returns the cart view of the store.
func (s *Store) Cart() cart.Repository { return cartView{s} }

// PendingOrders returns the single-slot pending order view.
func (s *Store) PendingOrders() order.PendingRepository { return pendingView{s} }

// History returns the order history view.
func (s *Store) History() order.HistoryRepository { return historyView{s} }

// Update runs fn while holding the write lock. All mutations made through
// the Tx commit together; readers never see an intermediate state.
func (s *Store) Update(ctx context.Context, fn func(tx checkout.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&tx{s: s})
}

// unlocked helpers, callers hold s.mu

func (s *Store) stockFor(id int) int {
	if item, ok := s.catalogItems[id]; ok {
		return item.Quantity
	}
	return 0
}

func (s *Store) clearCart() { s.cartLines = nil }

func (s *Store) removeLine(id int) {
	for i, line := range s.cartLines {
		if line.ID == id {
			s.cartLines = append(s.cartLines[:i], s.cartLines[i+1:]...)
			return
		}
	}
}

type catalogView struct{ s *Store }

func (v catalogView) Seed(ctx context.Context, items []*catalog.Item) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.catalogItems = make(map[int]*catalog.Item, len(items))
	v.s.catalogOrder = v.s.catalogOrder[:0]
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, exists := v.s.catalogItems[item.ID]; !exists {
			v.s.catalogOrder = append(v.s.catalogOrder, item.ID)
		}
		v.s.catalogItems[item.ID] = item.Clone()
	}
	return nil
}

func (v catalogView) List(ctx context.Context) ([]*catalog.Item, error) {
	_ = ctx

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	out := make([]*catalog.Item, 0, len(v.s.catalogOrder))
	for _, id := range v.s.catalogOrder {
		out = append(out, v.s.catalogItems[id].Clone())
	}
	return out, nil
}

func (v catalogView) Get(ctx context.Context, id int) (*catalog.Item, error) {
	_ = ctx

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	item, ok := v.s.catalogItems[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return item.Clone(), nil
}

type cartView struct{ s *Store }

func (v cartView) Lines(ctx context.Context) ([]cart.Line, error) {
	_ = ctx

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	return append([]cart.Line(nil), v.s.cartLines...), nil
}

func (v cartView) Add(ctx context.Context, line cart.Line) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	for _, existing := range v.s.cartLines {
		if existing.ID == line.ID {
			return nil
		}
	}
	v.s.cartLines = append(v.s.cartLines, line)
	return nil
}

func (v cartView) SetQuantity(ctx context.Context, id, quantity int) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	for i := range v.s.cartLines {
		if v.s.cartLines[i].ID == id {
			v.s.cartLines[i].Quantity = quantity
			return nil
		}
	}
	return cart.ErrLineNotFound
}

func (v cartView) Remove(ctx context.Context, id int) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.removeLine(id)
	return nil
}

func (v cartView) Clear(ctx context.Context) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.clearCart()
	return nil
}

type pendingView struct{ s *Store }

func (v pendingView) Stage(ctx context.Context, p *order.PendingOrder) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.pending = p.Clone()
	return nil
}

func (v pendingView) Get(ctx context.Context) (*order.PendingOrder, error) {
	_ = ctx

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	if v.s.pending.Empty() {
		return nil, order.ErrNoPending
	}
	return v.s.pending.Clone(), nil
}

func (v pendingView) Clear(ctx context.Context) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.pending = nil
	return nil
}

type historyView struct{ s *Store }

func (v historyView) Prepend(ctx context.Context, o *order.Order) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.history = append([]*order.Order{o.Clone()}, v.s.history...)
	return nil
}

func (v historyView) List(ctx context.Context) ([]*order.Order, error) {
	_ = ctx

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	out := make([]*order.Order, 0, len(v.s.history))
	for _, o := range v.s.history {
		out = append(out, o.Clone())
	}
	return out, nil
}

func (v historyView) Clear(ctx context.Context) error {
	_ = ctx

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	v.s.history = nil
	return nil
}
