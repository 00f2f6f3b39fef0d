package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yutashop/storefront/internal/domain/auth"
	domcart "github.com/yutashop/storefront/internal/domain/cart"
	domcatalog "github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

const componentCartService = "cart_service"

// Service mediates cart mutation and derives the stock-validity view the
// checkout gate depends on.
type Service struct {
	sessions SessionReader
	repo     domcart.Repository
	catalog  domcatalog.Repository
	log      observability.Logger
}

func NewService(sessions SessionReader, repo domcart.Repository, catalog domcatalog.Repository, tel observability.Observability) *Service {
	baseLog := observability.NopLogger()
	if tel != nil {
		baseLog = tel.Logger()
	}
	return &Service{
		sessions: sessions,
		repo:     repo,
		catalog:  catalog,
		log:      baseLog.With(observability.F("component", componentCartService)),
	}
}

// Add puts one unit of the product into the cart. Adding an id that is
// already present is a silent no-op. Out-of-stock products are refused.
func (s *Service) Add(ctx context.Context, productID int) error {
	if !s.sessions.Current(ctx).Authenticated() {
		return auth.ErrNotAuthenticated
	}

	item, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("cart: add: %w", err)
	}
	if !item.InStock() {
		return domcart.ErrOutOfStock
	}

	if err := s.repo.Add(ctx, domcart.NewLine(item)); err != nil {
		return fmt.Errorf("cart: add: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("cart_line_added",
		observability.F("product_id", productID),
	)
	return nil
}

// SetQuantity updates a line's requested quantity, clamped to
// [MinQuantity, MaxQuantity]. Stock-exceeding values are stored as-is;
// validity is surfaced by Summary, not prevented here. Returns the applied
// quantity.
func (s *Service) SetQuantity(ctx context.Context, productID, quantity int) (int, error) {
	if !s.sessions.Current(ctx).Authenticated() {
		return 0, auth.ErrNotAuthenticated
	}

	applied := domcart.ClampQuantity(quantity)
	if err := s.repo.SetQuantity(ctx, productID, applied); err != nil {
		return 0, fmt.Errorf("cart: set quantity: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("cart_quantity_changed",
		observability.F("product_id", productID),
		observability.F("quantity", applied),
	)
	return applied, nil
}

// Remove drops the line if present; absent ids are a no-op.
func (s *Service) Remove(ctx context.Context, productID int) error {
	if !s.sessions.Current(ctx).Authenticated() {
		return auth.ErrNotAuthenticated
	}
	if err := s.repo.Remove(ctx, productID); err != nil {
		return fmt.Errorf("cart: remove: %w", err)
	}
	logctx.FromOr(ctx, s.log).Info("cart_line_removed",
		observability.F("product_id", productID),
	)
	return nil
}

// Clear empties the cart. Not auth-gated: logout clears the cart after the
// session is already being torn down, and clearing an empty cart is harmless.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	logctx.FromOr(ctx, s.log).Info("cart_cleared")
	return nil
}

// LineView is a cart line annotated with its live stock validity.
type LineView struct {
	domcart.Line
	AvailableStock int
	ExceedsStock   bool
	Subtotal       decimal.Decimal
}

// Summary is the derived cart state: exact total, badge count, and the
// single flag that gates checkout.
type Summary struct {
	Lines           []LineView
	Total           decimal.Decimal
	ItemCount       int
	HasInvalidItems bool
}

// Summary computes the derived view against the current catalog snapshot.
// A product absent from the catalog counts as zero available stock.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	lines, err := s.repo.Lines(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("cart: summary: %w", err)
	}
	items, err := s.catalog.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("cart: summary: %w", err)
	}

	stock := make(map[int]int, len(items))
	for _, item := range items {
		stock[item.ID] = item.Quantity
	}
	lookup := func(id int) int { return stock[id] }

	out := Summary{
		Lines: make([]LineView, 0, len(lines)),
		Total: domcart.Total(lines),
	}
	for _, line := range lines {
		available := lookup(line.ID)
		out.Lines = append(out.Lines, LineView{
			Line:           line,
			AvailableStock: available,
			ExceedsStock:   line.ExceedsStock(available),
			Subtotal:       line.Subtotal(),
		})
		out.ItemCount += line.Quantity
	}
	out.HasInvalidItems = domcart.HasInvalidLines(lines, lookup)
	return out, nil
}
