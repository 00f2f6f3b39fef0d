package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yutashop/storefront/internal/domain/auth"
	"github.com/yutashop/storefront/internal/domain/cart"
	"github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/domain/event"
	"github.com/yutashop/storefront/internal/domain/order"
	"github.com/yutashop/storefront/internal/domain/payment"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

// State is the checkout machine: Idle → ConfirmPending → Processing →
// {PaymentStaged | Aborted}.
type State string

const (
	StateIdle           State = "idle"
	StateConfirmPending State = "confirm_pending"
	StateProcessing     State = "processing"
	StatePaymentStaged  State = "payment_staged"
	StateAborted        State = "aborted"
)

// PaymentState is the independent payment sub-machine: Idle → Validating →
// Submitting → {Succeeded | Failed}.
type PaymentState string

const (
	PaymentIdle       PaymentState = "idle"
	PaymentValidating PaymentState = "validating"
	PaymentSubmitting PaymentState = "submitting"
	PaymentSucceeded  PaymentState = "succeeded"
	PaymentFailed     PaymentState = "failed"
)

var (
	ErrCheckoutInProgress   = errors.New("checkout: checkout already in progress")
	ErrConfirmationDeclined = errors.New("checkout: confirmation declined")
	ErrEmptyCart            = errors.New("checkout: cart is empty")
	ErrStockExceeded        = errors.New("checkout: a cart line exceeds available stock")
	ErrPaymentDeclined      = errors.New("checkout: payment was declined")
)

const (
	checkoutService    = "checkout-coordinator"
	useCaseBegin       = "checkout.begin"
	useCaseSubmit      = "checkout.submit_payment"
	spanPrefix         = "UC."
	confirmationPrompt = "Are you sure you want to proceed with checkout?"
)

// Coordinator drives the cart → pending order → payment → history
// transitions. Stock is decremented exactly once, at payment finalization;
// staging never touches it.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	payState PaymentState

	store     Store
	sessions  SessionReader
	processor payment.Processor
	publisher event.Publisher
	ids       IDGenerator
	now       func() time.Time

	tel          observability.Observability
	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	finalized    observability.Counter
}

func NewCoordinator(
	store Store,
	sessions SessionReader,
	processor payment.Processor,
	publisher event.Publisher,
	ids IDGenerator,
	tel observability.Observability,
) *Coordinator {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(observability.F("service", checkoutService))

	return &Coordinator{
		state:        StateIdle,
		payState:     PaymentIdle,
		store:        store,
		sessions:     sessions,
		processor:    processor,
		publisher:    publisher,
		ids:          ids,
		now:          func() time.Time { return time.Now().UTC() },
		tel:          tel,
		log:          baseLog,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		finalized:    metricsProvider.Counter(observability.MOrdersFinalized),
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) PaymentState() PaymentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payState
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) setPayState(s PaymentState) {
	c.mu.Lock()
	c.payState = s
	c.mu.Unlock()
}

// Begin runs the cart → pending order transition. It requires an
// authenticated session, an explicit confirmation, and a cart with no line
// exceeding stock. On success the valid lines are staged as the pending
// order and the whole cart is cleared; invalid lines are discarded, not
// preserved. Stock is left untouched.
func (c *Coordinator) Begin(ctx context.Context, confirm Confirmer) (_ *order.PendingOrder, err error) {
	logger := logctx.FromOr(ctx, c.log).With(observability.F("use_case", useCaseBegin))
	ctx, span := c.tracer().Start(ctx, spanPrefix+"Begin",
		attribute.String("use_case", useCaseBegin),
	)
	start := time.Now()
	outcome := "success"
	defer func() {
		c.observe(useCaseBegin, outcome, time.Since(start))
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			span.End()
		}
		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("state", string(c.State())),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if !c.sessions.Current(ctx).Authenticated() {
		outcome = "error"
		return nil, auth.ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.state == StateConfirmPending || c.state == StateProcessing {
		c.mu.Unlock()
		outcome = "error"
		return nil, ErrCheckoutInProgress
	}
	c.state = StateConfirmPending
	c.mu.Unlock()

	ok, err := confirm.Confirm(ctx, confirmationPrompt)
	if err != nil {
		c.setState(StateIdle)
		outcome = "error"
		return nil, fmt.Errorf("checkout: confirm: %w", err)
	}
	if !ok {
		c.setState(StateIdle)
		outcome = "declined"
		return nil, ErrConfirmationDeclined
	}

	c.setState(StateProcessing)

	var staged *order.PendingOrder
	err = c.store.Update(ctx, func(tx Tx) error {
		lines := tx.CartLines()
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		if cart.HasInvalidLines(lines, tx.StockFor) {
			return ErrStockExceeded
		}
		// The gate above makes every line valid, but stock may have moved
		// between the read and this write; partition again under the lock.
		valid, _ := cart.Partition(lines, tx.StockFor)
		if len(valid) == 0 {
			return ErrStockExceeded
		}
		staged = order.NewPending(order.SnapshotLines(valid))
		tx.StagePending(staged)
		tx.ClearCart()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrStockExceeded) {
			c.setState(StateIdle)
		} else {
			c.setState(StateAborted)
		}
		outcome = "error"
		return nil, err
	}

	c.mu.Lock()
	c.state = StatePaymentStaged
	c.payState = PaymentIdle
	c.mu.Unlock()

	span.SetAttributes(attribute.Int("checkout.staged_lines", len(staged.Items)))
	return staged, nil
}

// SubmitPayment finalizes the staged order. Validation failures leave all
// state untouched. On processor success the order append, per-unit stock
// decrement, cart clear, and pending clear commit as one unit; on failure
// the pending order is preserved so the shopper can resubmit.
func (c *Coordinator) SubmitPayment(ctx context.Context, method payment.Method, details payment.Details) (_ *order.Order, err error) {
	logger := logctx.FromOr(ctx, c.log).With(
		observability.F("use_case", useCaseSubmit),
		observability.F("method", string(method)),
	)
	ctx, span := c.tracer().Start(ctx, spanPrefix+"SubmitPayment",
		attribute.String("use_case", useCaseSubmit),
		attribute.String("payment.method", string(method)),
	)
	start := time.Now()
	outcome := "success"
	defer func() {
		c.observe(useCaseSubmit, outcome, time.Since(start))
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			span.End()
		}
		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("payment_state", string(c.PaymentState())),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	c.setPayState(PaymentValidating)
	if err = payment.ValidateDetails(method, details); err != nil {
		c.setPayState(PaymentIdle)
		outcome = "error"
		return nil, err
	}

	var pending *order.PendingOrder
	if err = c.store.Update(ctx, func(tx Tx) error {
		pending = tx.Pending()
		if pending.Empty() {
			return order.ErrNoPending
		}
		return nil
	}); err != nil {
		c.setPayState(PaymentIdle)
		outcome = "error"
		return nil, err
	}

	c.setPayState(PaymentSubmitting)

	status, payErr := c.processor.Pay(ctx, method, details, pending.Total)
	if payErr != nil || status != payment.StatusSuccess {
		c.setPayState(PaymentFailed)
		outcome = "declined"
		if payErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrPaymentDeclined, payErr)
		}
		return nil, ErrPaymentDeclined
	}

	orderID := c.ids.NewOrderID()
	date := c.now()

	var finalized *order.Order
	var depleted []order.Line
	err = c.store.Update(ctx, func(tx Tx) error {
		// Re-read under the lock: the pre-payment snapshot is only used
		// for the charge amount.
		p := tx.Pending()
		if p.Empty() {
			return order.ErrNoPending
		}
		o, buildErr := order.New(orderID, date, p, method, details)
		if buildErr != nil {
			return buildErr
		}
		for _, line := range p.Items {
			for i := 0; i < line.Quantity; i++ {
				if _, wasLast := tx.DecrementStockOne(line.ID); wasLast {
					depleted = append(depleted, line)
				}
			}
		}
		tx.PrependOrder(o)
		tx.ClearCart()
		tx.ClearPending()
		finalized = o
		return nil
	})
	if err != nil {
		c.setPayState(PaymentFailed)
		outcome = "error"
		return nil, err
	}

	c.mu.Lock()
	c.payState = PaymentSucceeded
	c.state = StateIdle
	c.mu.Unlock()

	if c.finalized != nil {
		c.finalized.Add(1, observability.L("method", string(method)))
	}
	c.publishFinalized(ctx, finalized, depleted)

	span.SetAttributes(attribute.String("order.id", finalized.ID))
	return finalized, nil
}

// Abandon drops the staged order and resets both machines. Used when the
// shopper walks away from the payment step.
func (c *Coordinator) Abandon(ctx context.Context) error {
	err := c.store.Update(ctx, func(tx Tx) error {
		tx.ClearPending()
		return nil
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StateIdle
	c.payState = PaymentIdle
	c.mu.Unlock()

	logctx.FromOr(ctx, c.log).Info("checkout_abandoned")
	return nil
}

// publishFinalized emits observational events after the commit. Publish
// failures are logged, never surfaced: the order is already final.
func (c *Coordinator) publishFinalized(ctx context.Context, o *order.Order, depleted []order.Line) {
	if c.publisher == nil {
		return
	}
	logger := logctx.FromOr(ctx, c.log)
	if err := c.publisher.Publish(ctx, order.NewFinalizedEvent(o)); err != nil {
		logger.Warn("order_finalized_publish_failed",
			observability.F("order_id", o.ID),
			observability.F("error", err.Error()),
		)
	}
	for _, line := range depleted {
		e := catalog.StockDepletedEvent{
			ProductID:  line.ID,
			Title:      line.Title,
			OccurredAt: c.now(),
		}
		if err := c.publisher.Publish(ctx, e); err != nil {
			logger.Warn("stock_depleted_publish_failed",
				observability.F("product_id", line.ID),
				observability.F("error", err.Error()),
			)
		}
	}
}

func (c *Coordinator) tracer() observability.Tracer {
	if c.tel != nil {
		return c.tel.Tracer()
	}
	return observability.NopTracer()
}

func (c *Coordinator) observe(useCase, outcome string, d time.Duration) {
	if c.reqCounter != nil {
		c.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
	}
	if c.durHistogram != nil {
		c.durHistogram.Observe(d.Seconds(),
			observability.L("use_case", useCase),
		)
	}
}
