package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcatalog "github.com/yutashop/storefront/internal/application/catalog"
	domcatalog "github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/infrastructure/memory"
)

type stubClient struct {
	products []appcatalog.Product
	product  *appcatalog.Product
	err      error
}

func (c *stubClient) FetchCatalog(context.Context) ([]appcatalog.Product, error) {
	return c.products, c.err
}

func (c *stubClient) FetchProduct(context.Context, int) (*appcatalog.Product, error) {
	return c.product, c.err
}

func product(id int, title string, price float64) appcatalog.Product {
	return appcatalog.Product{
		ID:     id,
		Title:  title,
		Price:  decimal.NewFromFloat(price),
		Rating: domcatalog.Rating{Rate: 4.5, Count: 120},
	}
}

func TestLoad_SeedsStoreWithStockSeed(t *testing.T) {
	store := memory.NewStore()
	client := &stubClient{products: []appcatalog.Product{
		product(1, "Backpack", 109.95),
		product(2, "T-Shirt", 22.30),
	}}
	svc := appcatalog.NewService(store.Catalog(), client, 5, nil)

	items, err := svc.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 5, listed[0].Quantity, "every item starts at the stock seed")
	assert.Equal(t, 4.5, listed[0].Rating.Rate)
}

func TestLoad_SkipsInvalidRemoteItems(t *testing.T) {
	store := memory.NewStore()
	client := &stubClient{products: []appcatalog.Product{
		product(1, "OK", 10),
		{ID: 2, Title: "Broken", Price: decimal.NewFromInt(-1)},
	}}
	svc := appcatalog.NewService(store.Catalog(), client, 5, nil)

	items, err := svc.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestLoad_FetchFailure(t *testing.T) {
	store := memory.NewStore()
	client := &stubClient{err: errors.New("connection refused")}
	svc := appcatalog.NewService(store.Catalog(), client, 5, nil)

	_, err := svc.Load(context.Background())

	assert.ErrorIs(t, err, appcatalog.ErrFetchFailed)
}

func TestDetail_ServedFromStore(t *testing.T) {
	store := memory.NewStore()
	client := &stubClient{products: []appcatalog.Product{product(1, "Backpack", 109.95)}}
	svc := appcatalog.NewService(store.Catalog(), client, 5, nil)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	// Break the client so a remote fallback would fail loudly.
	client.err = errors.New("remote down")

	item, err := svc.Detail(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "Backpack", item.Title)
}

func TestDetail_FallsBackToRemoteFetch(t *testing.T) {
	store := memory.NewStore()
	remote := product(9, "Late Addition", 15)
	client := &stubClient{product: &remote}
	svc := appcatalog.NewService(store.Catalog(), client, 5, nil)

	item, err := svc.Detail(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, "Late Addition", item.Title)
	assert.Equal(t, 5, item.Quantity)

	// The transient item is not persisted.
	_, err = store.Catalog().Get(context.Background(), 9)
	assert.ErrorIs(t, err, domcatalog.ErrNotFound)
}

func TestDetail_RemoteFailure(t *testing.T) {
	store := memory.NewStore()
	client := &stubClient{err: errors.New("remote down")}
	svc := appcatalog.NewService(store.Catalog(), client, 5, nil)

	_, err := svc.Detail(context.Background(), 9)

	assert.ErrorIs(t, err, appcatalog.ErrFetchFailed)
}
