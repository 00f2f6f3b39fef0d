package cart

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/yutashop/storefront/internal/domain/catalog"
)

var (
	ErrLineNotFound = errors.New("cart: line not found")
	ErrOutOfStock   = errors.New("cart: product is out of stock")
)

// Quantity bounds enforced at write time. The upper bound is a UI-level
// ceiling independent of stock; exceeding stock is a validity concern
// surfaced by ExceedsStock, never clamped here.
const (
	MinQuantity = 1
	MaxQuantity = 100
)

// Line is one requested product in the cart. At most one line exists per
// product id.
type Line struct {
	ID       int
	Title    string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// NewLine snapshots a catalog item's display fields with quantity 1.
func NewLine(item *catalog.Item) Line {
	return Line{
		ID:       item.ID,
		Title:    item.Title,
		Price:    item.Price,
		Image:    item.Image,
		Quantity: 1,
	}
}

func (l Line) Subtotal() decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ExceedsStock reports whether the requested quantity is above the
// available stock for the line's product.
func (l Line) ExceedsStock(available int) bool {
	return l.Quantity > available
}

// ClampQuantity forces a requested quantity into [MinQuantity, MaxQuantity].
// Non-positive input resets to MinQuantity.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Total is the exact sum of price × quantity over the given lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// HasInvalidLines reports whether any line exceeds the stock returned by
// the lookup. Absent products count as zero stock.
func HasInvalidLines(lines []Line, stock func(id int) int) bool {
	for _, l := range lines {
		if l.ExceedsStock(stock(l.ID)) {
			return true
		}
	}
	return false
}

// Partition splits lines into those within stock and those exceeding it,
// preserving order.
func Partition(lines []Line, stock func(id int) int) (valid, invalid []Line) {
	for _, l := range lines {
		if l.ExceedsStock(stock(l.ID)) {
			invalid = append(invalid, l)
			continue
		}
		valid = append(valid, l)
	}
	return valid, invalid
}
