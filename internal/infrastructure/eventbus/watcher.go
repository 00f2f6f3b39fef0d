package eventbus

import (
	"context"

	"github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/domain/event"
	domorder "github.com/yutashop/storefront/internal/domain/order"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
	workerpresentation "github.com/yutashop/storefront/internal/presentation/worker"
)

const componentStockWatcher = "stock_watcher"

// StockWatcher observes checkout outcomes: it logs finalized orders and
// counts depleted products. Purely observational; it never writes state.
type StockWatcher struct {
	subscriber event.Subscriber
	log        observability.Logger
	tel        observability.Observability
	depleted   observability.Counter
}

func NewStockWatcher(subscriber event.Subscriber, tel observability.Observability) *StockWatcher {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	return &StockWatcher{
		subscriber: subscriber,
		log:        baseLog.With(observability.F("component", componentStockWatcher)),
		tel:        tel,
		depleted:   metricsProvider.Counter(observability.MStockDepleted),
	}
}

func (w *StockWatcher) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(catalog.StockDepletedEvent{}.EventName(), w.handleStockDepleted)
	w.subscriber.Subscribe(domorder.FinalizedEvent{}.EventName(), w.handleOrderFinalized)
}

func (w *StockWatcher) handleStockDepleted(ctx context.Context, e event.Event) error {
	evt, ok := e.(catalog.StockDepletedEvent)
	if !ok {
		return nil
	}

	ctx = workerpresentation.WithEventContext(ctx, w.log, w.tel, map[string]string{
		"event": evt.EventName(),
	})

	if w.depleted != nil {
		w.depleted.Add(1)
	}
	logctx.FromOr(ctx, w.log).Warn("stock_depleted",
		observability.F("product_id", evt.ProductID),
		observability.F("title", evt.Title),
	)
	return nil
}

func (w *StockWatcher) handleOrderFinalized(ctx context.Context, e event.Event) error {
	evt, ok := e.(domorder.FinalizedEvent)
	if !ok {
		return nil
	}

	ctx = workerpresentation.WithEventContext(ctx, w.log, w.tel, map[string]string{
		"event": evt.EventName(),
	})

	logctx.FromOr(ctx, w.log).Info("order_finalized",
		observability.F("order_id", evt.OrderID),
		observability.F("total", evt.Total.StringFixed(2)),
		observability.F("lines", evt.LineCount),
	)
	return nil
}
