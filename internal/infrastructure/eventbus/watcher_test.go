package eventbus

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/domain/event"
	domorder "github.com/yutashop/storefront/internal/domain/order"
)

type recordingSubscriber struct {
	handlers map[string]event.Handler
}

func (s *recordingSubscriber) Subscribe(eventName string, h event.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]event.Handler)
	}
	s.handlers[eventName] = h
}

func TestStockWatcher_SubscribesToBothEvents(t *testing.T) {
	sub := &recordingSubscriber{}
	watcher := NewStockWatcher(sub, nil)

	watcher.Start()

	assert.Contains(t, sub.handlers, catalog.StockDepletedEvent{}.EventName())
	assert.Contains(t, sub.handlers, domorder.FinalizedEvent{}.EventName())
}

func TestStockWatcher_HandlersTolerateForeignEvents(t *testing.T) {
	sub := &recordingSubscriber{}
	watcher := NewStockWatcher(sub, nil)
	watcher.Start()

	// A mistyped event is ignored, not an error.
	for _, h := range sub.handlers {
		assert.NoError(t, h(context.Background(), domorder.FinalizedEvent{
			OrderID: "ORD1",
			Total:   decimal.NewFromInt(10),
		}))
		assert.NoError(t, h(context.Background(), catalog.StockDepletedEvent{ProductID: 1}))
	}
}

func TestStockWatcher_NilSubscriberIsSafe(t *testing.T) {
	watcher := NewStockWatcher(nil, nil)
	assert.NotPanics(t, watcher.Start)
}
