package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	domcatalog "github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

// ErrFetchFailed marks a catalog or detail fetch failure. There is no
// automatic retry; the caller surfaces the failure and waits for a reload.
var ErrFetchFailed = errors.New("catalog: fetch failed")

const (
	componentCatalogService = "catalog_service"
	peerStoreAPI            = "store_api"
)

// Service loads the remote catalog, layers the local stock seed on top,
// and serves reads from the catalog store.
type Service struct {
	repo      domcatalog.Repository
	client    Client
	stockSeed int

	log          observability.Logger
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewService(repo domcatalog.Repository, client Client, stockSeed int, tel observability.Observability) *Service {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	return &Service{
		repo:         repo,
		client:       client,
		stockSeed:    stockSeed,
		log:          baseLog.With(observability.F("component", componentCatalogService)),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

// Load fetches the full catalog once and seeds the store. Each item starts
// with the configured stock seed; the remote source has no stock field.
func (s *Service) Load(ctx context.Context) ([]*domcatalog.Item, error) {
	logger := logctx.FromOr(ctx, s.log)

	products, err := s.fetchCatalog(ctx)
	if err != nil {
		logger.Error("catalog_fetch_failed", observability.F("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	items := make([]*domcatalog.Item, 0, len(products))
	for _, p := range products {
		item, buildErr := domcatalog.NewItem(p.ID, p.Title, p.Price, p.Image, p.Category, s.stockSeed)
		if buildErr != nil {
			logger.Warn("catalog_item_skipped",
				observability.F("product_id", p.ID),
				observability.F("error", buildErr.Error()),
			)
			continue
		}
		item.Rating = p.Rating
		items = append(items, item)
	}

	if err := s.repo.Seed(ctx, items); err != nil {
		return nil, fmt.Errorf("catalog: seed: %w", err)
	}

	logger.Info("catalog_loaded", observability.F("items", len(items)))
	return items, nil
}

func (s *Service) List(ctx context.Context) ([]*domcatalog.Item, error) {
	return s.repo.List(ctx)
}

// Detail returns the catalog item for the product page. Items missing from
// the local store fall back to a one-off remote fetch; the transient item
// carries the stock seed but is not persisted.
func (s *Service) Detail(ctx context.Context, id int) (*domcatalog.Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, domcatalog.ErrNotFound) {
		return nil, err
	}

	p, fetchErr := s.fetchProduct(ctx, id)
	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, fetchErr)
	}
	item, err = domcatalog.NewItem(p.ID, p.Title, p.Price, p.Image, p.Category, s.stockSeed)
	if err != nil {
		return nil, err
	}
	item.Rating = p.Rating
	return item, nil
}

func (s *Service) fetchCatalog(ctx context.Context) ([]Product, error) {
	start := time.Now()
	products, err := s.client.FetchCatalog(ctx)
	s.observeExternal("catalog", start, err)
	return products, err
}

func (s *Service) fetchProduct(ctx context.Context, id int) (*Product, error) {
	start := time.Now()
	p, err := s.client.FetchProduct(ctx, id)
	s.observeExternal("product_detail", start, err)
	return p, err
}

func (s *Service) observeExternal(endpoint string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if s.extCounter != nil {
		s.extCounter.Add(1,
			observability.L("peer", peerStoreAPI),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
	}
	if s.extHistogram != nil {
		s.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peerStoreAPI),
			observability.L("endpoint", endpoint),
		)
	}
}
