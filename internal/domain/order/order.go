package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yutashop/storefront/internal/domain/cart"
	"github.com/yutashop/storefront/internal/domain/payment"
)

var (
	ErrNoPending    = errors.New("order: no pending order staged")
	ErrEmptyPending = errors.New("order: pending order has no items")
)

// Line is an immutable snapshot of a cart line at checkout time.
type Line struct {
	ID       int
	Title    string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SnapshotLines freezes cart lines into order lines, preserving order.
func SnapshotLines(lines []cart.Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{
			ID:       l.ID,
			Title:    l.Title,
			Price:    l.Price,
			Image:    l.Image,
			Quantity: l.Quantity,
		})
	}
	return out
}

// PendingOrder is the single-slot staging area between "checkout
// initiated" and "payment resolved".
type PendingOrder struct {
	Items []Line
	Total decimal.Decimal
}

func NewPending(items []Line) *PendingOrder {
	total := decimal.Zero
	for _, l := range items {
		total = total.Add(l.Subtotal())
	}
	return &PendingOrder{Items: items, Total: total}
}

func (p *PendingOrder) Empty() bool {
	return p == nil || len(p.Items) == 0
}

func (p *PendingOrder) Clone() *PendingOrder {
	if p == nil {
		return nil
	}
	return &PendingOrder{
		Items: append([]Line(nil), p.Items...),
		Total: p.Total,
	}
}

// Order is a finalized purchase record. Immutable once created.
type Order struct {
	ID             string
	Date           time.Time
	Items          []Line
	Total          decimal.Decimal
	PaymentMethod  payment.Method
	PaymentDetails payment.Details
}

func New(id string, date time.Time, pending *PendingOrder, method payment.Method, details payment.Details) (*Order, error) {
	if pending.Empty() {
		return nil, ErrEmptyPending
	}
	return &Order{
		ID:             id,
		Date:           date,
		Items:          append([]Line(nil), pending.Items...),
		Total:          pending.Total,
		PaymentMethod:  method,
		PaymentDetails: details,
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Line(nil), o.Items...)
	return &clone
}
