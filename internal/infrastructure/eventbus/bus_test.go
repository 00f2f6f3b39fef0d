package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/domain/event"
	domorder "github.com/yutashop/storefront/internal/domain/order"
)

func waitFor(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event delivery")
		return nil
	}
}

func TestBus_DeliversToSubscriber(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan event.Event, 1)
	bus.Subscribe(domorder.FinalizedEvent{}.EventName(), func(_ context.Context, e event.Event) error {
		received <- e
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	evt := domorder.FinalizedEvent{OrderID: "ORD1", Total: decimal.NewFromInt(30), LineCount: 2}
	require.NoError(t, bus.Publish(context.Background(), evt))

	got := waitFor(t, received)
	finalized, ok := got.(domorder.FinalizedEvent)
	require.True(t, ok)
	assert.Equal(t, "ORD1", finalized.OrderID)
}

func TestBus_FansOutToAllSubscribers(t *testing.T) {
	bus := NewBus(nil)
	first := make(chan event.Event, 1)
	second := make(chan event.Event, 1)
	name := catalog.StockDepletedEvent{}.EventName()
	bus.Subscribe(name, func(_ context.Context, e event.Event) error {
		first <- e
		return nil
	})
	bus.Subscribe(name, func(_ context.Context, e event.Event) error {
		second <- e
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), catalog.StockDepletedEvent{ProductID: 7}))

	waitFor(t, first)
	waitFor(t, second)
}

func TestBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan event.Event, 2)
	name := domorder.FinalizedEvent{}.EventName()
	bus.Subscribe(name, func(context.Context, event.Event) error {
		return errors.New("handler failed")
	})
	bus.Subscribe(name, func(_ context.Context, e event.Event) error {
		received <- e
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), domorder.FinalizedEvent{OrderID: "ORD1"}))
	require.NoError(t, bus.Publish(context.Background(), domorder.FinalizedEvent{OrderID: "ORD2"}))

	waitFor(t, received)
	waitFor(t, received)
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan event.Event, 1)
	name := domorder.FinalizedEvent{}.EventName()
	bus.Subscribe(name, func(context.Context, event.Event) error {
		panic("boom")
	})
	bus.Subscribe(name, func(_ context.Context, e event.Event) error {
		received <- e
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), domorder.FinalizedEvent{OrderID: "ORD1"}))

	waitFor(t, received)
}

func TestBus_PublishNilIsNoOp(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), nil))
}

func TestBus_PublishDuringStopDoesNotPanic(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(domorder.FinalizedEvent{}.EventName(), func(context.Context, event.Event) error {
		return nil
	})
	bus.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			assert.NoError(t, bus.Publish(context.Background(), domorder.FinalizedEvent{OrderID: "ORD"}))
		}
	}()

	bus.Stop(context.Background())
	<-done
}

func TestBus_PublishAfterContextCancel(t *testing.T) {
	bus := NewBus(nil)
	// Fill the queue so Publish has to wait, then cancel.
	for i := 0; i < cap(bus.queue); i++ {
		require.NoError(t, bus.Publish(context.Background(), domorder.FinalizedEvent{OrderID: "ORD"}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, domorder.FinalizedEvent{OrderID: "ORD-LAST"})
	assert.ErrorIs(t, err, context.Canceled)
}
