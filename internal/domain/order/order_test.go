package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutashop/storefront/internal/domain/cart"
	"github.com/yutashop/storefront/internal/domain/payment"
)

func TestSnapshotLines(t *testing.T) {
	lines := []cart.Line{
		{ID: 1, Title: "A", Price: decimal.NewFromFloat(2.5), Quantity: 2},
		{ID: 2, Title: "B", Price: decimal.NewFromFloat(10), Quantity: 1},
	}

	snapshot := SnapshotLines(lines)

	require.Len(t, snapshot, 2)
	assert.Equal(t, 1, snapshot[0].ID)
	assert.Equal(t, 2, snapshot[0].Quantity)
	assert.True(t, snapshot[0].Subtotal().Equal(decimal.NewFromFloat(5)))
}

func TestNewPending_ComputesTotal(t *testing.T) {
	pending := NewPending([]Line{
		{ID: 1, Price: decimal.NewFromFloat(2.5), Quantity: 2},
		{ID: 2, Price: decimal.NewFromFloat(10), Quantity: 1},
	})

	assert.True(t, pending.Total.Equal(decimal.NewFromFloat(15)))
	assert.False(t, pending.Empty())
}

func TestPendingEmpty(t *testing.T) {
	var nilPending *PendingOrder
	assert.True(t, nilPending.Empty())
	assert.True(t, (&PendingOrder{}).Empty())
	assert.False(t, NewPending([]Line{{ID: 1, Quantity: 1}}).Empty())
}

func TestPendingClone_IsIndependent(t *testing.T) {
	pending := NewPending([]Line{{ID: 1, Price: decimal.NewFromFloat(3), Quantity: 1}})

	clone := pending.Clone()
	clone.Items[0].Quantity = 50

	assert.Equal(t, 1, pending.Items[0].Quantity)
}

func TestNew(t *testing.T) {
	pending := NewPending([]Line{{ID: 1, Price: decimal.NewFromFloat(3), Quantity: 2}})
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	o, err := New("ORD1748779200000", date, pending, payment.MethodCreditCard, payment.Details{CardNumber: "4111"})

	require.NoError(t, err)
	assert.Equal(t, "ORD1748779200000", o.ID)
	assert.Equal(t, date, o.Date)
	assert.True(t, o.Total.Equal(decimal.NewFromFloat(6)))
	assert.Equal(t, payment.MethodCreditCard, o.PaymentMethod)
}

func TestNew_RejectsEmptyPending(t *testing.T) {
	_, err := New("ORD1", time.Now(), nil, payment.MethodCreditCard, payment.Details{})
	assert.ErrorIs(t, err, ErrEmptyPending)

	_, err = New("ORD1", time.Now(), &PendingOrder{}, payment.MethodCreditCard, payment.Details{})
	assert.ErrorIs(t, err, ErrEmptyPending)
}

func TestOrderClone_IsIndependent(t *testing.T) {
	pending := NewPending([]Line{{ID: 1, Price: decimal.NewFromFloat(3), Quantity: 1}})
	o, err := New("ORD1", time.Now(), pending, payment.MethodEWallet, payment.Details{WalletNumber: "w"})
	require.NoError(t, err)

	clone := o.Clone()
	clone.Items[0].Quantity = 9

	assert.Equal(t, 1, o.Items[0].Quantity)
}
