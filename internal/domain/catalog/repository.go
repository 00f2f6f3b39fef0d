package catalog

import "context"

// Repository is the read side of the catalog. Stock mutation is not part of
// this port: decrements happen only inside the checkout coordinator's
// store transaction.
type Repository interface {
	Seed(ctx context.Context, items []*Item) error
	List(ctx context.Context) ([]*Item, error)
	Get(ctx context.Context, id int) (*Item, error)
}
