package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	domcatalog "github.com/yutashop/storefront/internal/domain/catalog"
)

// Product is the remote catalog record. The source carries no stock field;
// stock is seeded locally on top of the fetched catalog.
type Product struct {
	ID       int
	Title    string
	Price    decimal.Decimal
	Image    string
	Category string
	Rating   domcatalog.Rating
}

// Client is the read-only catalog fetch collaborator.
type Client interface {
	FetchCatalog(ctx context.Context) ([]Product, error)
	FetchProduct(ctx context.Context, id int) (*Product, error)
}
