package provider

import (
	"context"
	"testing"

	"github.com/ceylonmart/server/internal/module/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeProvider_Unconfigured(t *testing.T) {
	p := NewStripeProvider(&StripeConfig{Currency: "lkr"})
	ord := &order.Order{ID: uuid.New(), OrderNo: "ORD-3003", TotalAmount: 120}

	t.Run("create session degrades to failure", func(t *testing.T) {
		result, err := p.CreateCheckoutSession(context.Background(), ord)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "stripe is not configured", result.Error)
	})

	t.Run("validate rejects", func(t *testing.T) {
		ord.PaymentResult.SessionID = "cs_test_123"
		assert.False(t, p.ValidatePayment(context.Background(), ord, Confirmation{}))
	})

	t.Run("refund degrades to failure", func(t *testing.T) {
		result, err := p.RefundPayment(context.Background(), ord, 50)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "stripe is not configured", result.Error)
	})
}

func TestStripeProvider_Name(t *testing.T) {
	assert.Equal(t, "stripe", NewStripeProvider(&StripeConfig{}).Name())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(12000), minorUnits(120))
	assert.Equal(t, int64(4950), minorUnits(49.5))
	assert.Equal(t, int64(1999), minorUnits(19.99))
	// rounding, not truncation
	assert.Equal(t, int64(10), minorUnits(0.1))
}

func TestClampAmount(t *testing.T) {
	assert.Equal(t, 100.0, clampAmount(0, 100))
	assert.Equal(t, 100.0, clampAmount(-5, 100))
	assert.Equal(t, 100.0, clampAmount(150, 100))
	assert.Equal(t, 40.0, clampAmount(40, 100))
}
