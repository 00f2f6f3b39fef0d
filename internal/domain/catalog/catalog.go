package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("catalog: product not found")
	ErrInvalidPrice    = errors.New("catalog: price must be zero or greater")
	ErrInvalidQuantity = errors.New("catalog: quantity must be zero or greater")
)

// Rating is the aggregate review score carried by the remote catalog.
type Rating struct {
	Rate  float64
	Count int
}

// Item is a purchasable product with its remaining stock. Quantity is
// mutated only through DecrementOne; every other component reads it.
type Item struct {
	ID        int
	Title     string
	Price     decimal.Decimal
	Image     string
	Category  string
	Rating    Rating
	Quantity  int
	UpdatedAt time.Time
}

func NewItem(id int, title string, price decimal.Decimal, image, category string, quantity int) (*Item, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ID:        id,
		Title:     title,
		Price:     price,
		Image:     image,
		Category:  category,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// DecrementOne removes a single unit of stock, flooring at zero.
// It reports whether this call depleted the item.
func (i *Item) DecrementOne() (depleted bool) {
	if i.Quantity <= 0 {
		return false
	}
	i.Quantity--
	i.touch()
	return i.Quantity == 0
}

func (i *Item) InStock() bool { return i.Quantity > 0 }

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}
