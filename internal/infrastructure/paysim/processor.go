package paysim

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yutashop/storefront/internal/domain/payment"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

var ErrInvalidAmount = errors.New("paysim: amount must be zero or greater")

const componentPaySim = "payment_simulator"

// Processor simulates the external payment provider: it resolves after a
// fixed delay with a configurable success rate.
type Processor struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	delay       time.Duration
	log         observability.Logger
}

func New(delay time.Duration, successRate float64, tel observability.Observability) *Processor {
	baseLog := observability.NopLogger()
	if tel != nil {
		baseLog = tel.Logger()
	}
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &Processor{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: successRate,
		delay:       delay,
		log:         baseLog.With(observability.F("component", componentPaySim)),
	}
}

func (p *Processor) Pay(ctx context.Context, method payment.Method, details payment.Details, amount decimal.Decimal) (payment.Status, error) {
	if err := payment.ValidateDetails(method, details); err != nil {
		return payment.StatusFailed, err
	}
	if amount.IsNegative() {
		return payment.StatusFailed, ErrInvalidAmount
	}

	// respect cancellation even though this is mocked
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return payment.StatusFailed, ctx.Err()
	}

	p.mu.Lock()
	roll := p.random.Float64()
	rate := p.successRate
	p.mu.Unlock()

	status := payment.StatusFailed
	if roll <= rate {
		status = payment.StatusSuccess
	}

	logctx.FromOr(ctx, p.log).Info("payment_simulated",
		observability.F("method", string(method)),
		observability.F("amount", amount.StringFixed(2)),
		observability.F("status", string(status)),
	)
	return status, nil
}

// SetSuccessRate adjusts the simulated outcome (primarily for tests).
func (p *Processor) SetSuccessRate(rate float64) {
	p.mu.Lock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	p.successRate = rate
	p.mu.Unlock()
}
