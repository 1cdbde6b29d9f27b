package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ceylonmart/server/internal/module/order"
	"github.com/ceylonmart/server/internal/module/payment/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOrderRepo is a map-backed order.Repository that counts updates.
type memoryOrderRepo struct {
	orders  map[uuid.UUID]*order.Order
	updates int
}

func newMemoryOrderRepo(orders ...*order.Order) *memoryOrderRepo {
	repo := &memoryOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *memoryOrderRepo) Create(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *memoryOrderRepo) Get(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *memoryOrderRepo) GetByOrderNo(_ context.Context, orderNo string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.OrderNo == orderNo {
			copied := *o
			return &copied, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *memoryOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.updates++
	r.orders[o.ID] = o
	return nil
}

func (r *memoryOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// fakeStrategy is a scriptable provider for orchestration tests.
type fakeStrategy struct {
	name          string
	createResult  *provider.Result
	createErr     error
	validateOK    bool
	refundResult  *provider.Result
	panicOn       string // "create", "validate" or "refund"
	createCalls   int
	validateCalls int
	refundCalls   int
	refundAmount  float64
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) CreateCheckoutSession(context.Context, *order.Order) (*provider.Result, error) {
	f.createCalls++
	if f.panicOn == "create" {
		panic("gateway client blew up")
	}
	return f.createResult, f.createErr
}

func (f *fakeStrategy) ValidatePayment(context.Context, *order.Order, provider.Confirmation) bool {
	f.validateCalls++
	if f.panicOn == "validate" {
		panic("gateway client blew up")
	}
	return f.validateOK
}

func (f *fakeStrategy) RefundPayment(_ context.Context, _ *order.Order, amount float64) (*provider.Result, error) {
	f.refundCalls++
	f.refundAmount = amount
	if f.panicOn == "refund" {
		panic("gateway client blew up")
	}
	return f.refundResult, nil
}

func serviceUnderTest(repo *memoryOrderRepo, defaultProvider string, strategies ...*fakeStrategy) *Service {
	registry := NewProviderRegistry()
	for _, s := range strategies {
		registry.Register(s)
	}
	return NewService(repo, registry, defaultProvider, nil, nil)
}

func pendingOrder() *order.Order {
	return &order.Order{
		ID:          uuid.New(),
		OrderNo:     "ORD-1001",
		UserID:      uuid.New(),
		TotalAmount: 50000,
	}
}

func TestService_CreateSession(t *testing.T) {
	t.Run("success merges session and persists once", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{
			name: "bank",
			createResult: &provider.Result{
				Success:          true,
				TransactionID:    "SESSION0001",
				SessionVersion:   "v1",
				SuccessIndicator: "IND1",
				Merchant:         "TESTMERCHANT",
				ProviderResponse: "result=SUCCESS",
			},
		}
		svc := serviceUnderTest(repo, "bank", bank)

		result, err := svc.CreateSession(context.Background(), ord.ID, "bank")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, repo.updates)

		stored := repo.orders[ord.ID]
		assert.Equal(t, "bank", stored.PaymentProvider)
		assert.Equal(t, "SESSION0001", stored.PaymentResult.SessionID)
		assert.Equal(t, "IND1", stored.PaymentResult.SuccessIndicator)
		assert.False(t, stored.IsPaid)
	})

	t.Run("gateway failure leaves order untouched", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{
			name:         "bank",
			createResult: provider.Failure("gateway said no", ""),
		}
		svc := serviceUnderTest(repo, "bank", bank)

		result, err := svc.CreateSession(context.Background(), ord.ID, "")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "gateway said no", result.Error)
		assert.Zero(t, repo.updates)
		assert.Empty(t, repo.orders[ord.ID].PaymentResult.SessionID)
	})

	t.Run("adapter error becomes a failed result", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", createErr: errors.New("order is required")}
		svc := serviceUnderTest(repo, "bank", bank)

		result, err := svc.CreateSession(context.Background(), ord.ID, "")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Zero(t, repo.updates)
	})

	t.Run("adapter panic becomes a failed result and order is untouched", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", panicOn: "create"}
		svc := serviceUnderTest(repo, "bank", bank)

		result, err := svc.CreateSession(context.Background(), ord.ID, "")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "panicked")
		assert.Zero(t, repo.updates)
	})

	t.Run("unknown order propagates lookup error", func(t *testing.T) {
		repo := newMemoryOrderRepo()
		svc := serviceUnderTest(repo, "bank", &fakeStrategy{name: "bank"})

		_, err := svc.CreateSession(context.Background(), uuid.New(), "")
		assert.True(t, errors.Is(err, order.ErrOrderNotFound))
	})

	t.Run("unknown provider propagates lookup error", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		svc := serviceUnderTest(repo, "bank", &fakeStrategy{name: "bank"})

		_, err := svc.CreateSession(context.Background(), ord.ID, "square")
		assert.True(t, errors.Is(err, ErrProviderNotFound))
		assert.Zero(t, repo.updates)
	})
}

func TestService_ProviderResolution(t *testing.T) {
	ok := &provider.Result{Success: true, TransactionID: "S"}

	t.Run("request override wins over order and default", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", createResult: ok}
		paypal := &fakeStrategy{name: "paypal", createResult: ok}
		svc := serviceUnderTest(repo, "bank", bank, paypal)

		_, err := svc.CreateSession(context.Background(), ord.ID, "paypal")
		require.NoError(t, err)
		assert.Equal(t, 1, paypal.createCalls)
		assert.Zero(t, bank.createCalls)
	})

	t.Run("order provider wins over default", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", createResult: ok}
		paypal := &fakeStrategy{name: "paypal", createResult: ok}
		svc := serviceUnderTest(repo, "bank", bank, paypal)

		_, err := svc.CreateSession(context.Background(), ord.ID, "")
		require.NoError(t, err)
		assert.Equal(t, 1, paypal.createCalls)
		assert.Zero(t, bank.createCalls)
	})

	t.Run("default applies when nothing else is set", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", createResult: ok}
		svc := serviceUnderTest(repo, "bank", bank)

		_, err := svc.CreateSession(context.Background(), ord.ID, "")
		require.NoError(t, err)
		assert.Equal(t, 1, bank.createCalls)
	})
}

func TestService_Validate(t *testing.T) {
	t.Run("valid confirmation marks order paid and persists once", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		ord.PaymentResult.SuccessIndicator = "IND1"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", validateOK: true}
		svc := serviceUnderTest(repo, "bank", bank)

		valid, err := svc.Validate(context.Background(), ord.ID, provider.Confirmation{ResultIndicator: "IND1"})
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, 1, repo.updates)

		stored := repo.orders[ord.ID]
		assert.True(t, stored.IsPaid)
		assert.False(t, stored.IsPaymentFailed)
		assert.NotNil(t, stored.PaidAt)
		assert.Equal(t, "IND1", stored.PaymentResult.ResultIndicator)
	})

	t.Run("invalid confirmation marks payment failed", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", validateOK: false}
		svc := serviceUnderTest(repo, "bank", bank)

		valid, err := svc.Validate(context.Background(), ord.ID, provider.Confirmation{ResultIndicator: "WRONG"})
		require.NoError(t, err)
		assert.False(t, valid)

		stored := repo.orders[ord.ID]
		assert.False(t, stored.IsPaid)
		assert.True(t, stored.IsPaymentFailed)
		assert.Nil(t, stored.PaidAt)
	})

	t.Run("later success overwrites an earlier failure", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", validateOK: false}
		svc := serviceUnderTest(repo, "bank", bank)

		_, err := svc.Validate(context.Background(), ord.ID, provider.Confirmation{ResultIndicator: "WRONG"})
		require.NoError(t, err)
		assert.True(t, repo.orders[ord.ID].IsPaymentFailed)

		bank.validateOK = true
		valid, err := svc.Validate(context.Background(), ord.ID, provider.Confirmation{ResultIndicator: "IND1"})
		require.NoError(t, err)
		assert.True(t, valid)

		stored := repo.orders[ord.ID]
		assert.True(t, stored.IsPaid)
		assert.False(t, stored.IsPaymentFailed)
		assert.Equal(t, 2, repo.updates)
	})

	t.Run("adapter panic records failure instead of crashing", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", panicOn: "validate"}
		svc := serviceUnderTest(repo, "bank", bank)

		valid, err := svc.Validate(context.Background(), ord.ID, provider.Confirmation{ResultIndicator: "IND1"})
		require.NoError(t, err)
		assert.False(t, valid)
		assert.True(t, repo.orders[ord.ID].IsPaymentFailed)
	})
}

func TestService_Refund(t *testing.T) {
	t.Run("refund does not rewind payment flags", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		ord.MarkPaid(time.Now())
		repo := newMemoryOrderRepo(ord)
		paypal := &fakeStrategy{
			name:         "paypal",
			refundResult: &provider.Result{Success: true, TransactionID: "REFUND-1"},
		}
		svc := serviceUnderTest(repo, "bank", paypal)

		result, err := svc.Refund(context.Background(), ord.ID, 100)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Zero(t, repo.updates)
		assert.True(t, repo.orders[ord.ID].IsPaid)
	})

	t.Run("refund failure surfaces as a result", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		repo := newMemoryOrderRepo(ord)
		paypal := &fakeStrategy{
			name:         "paypal",
			refundResult: provider.Failure("no capture id recorded for order", ""),
		}
		svc := serviceUnderTest(repo, "bank", paypal)

		result, err := svc.Refund(context.Background(), ord.ID, 100)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "no capture id")
	})

	t.Run("adapter panic becomes a failed result", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		repo := newMemoryOrderRepo(ord)
		paypal := &fakeStrategy{name: "paypal", panicOn: "refund"}
		svc := serviceUnderTest(repo, "bank", paypal)

		result, err := svc.Refund(context.Background(), ord.ID, 100)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "panicked")
	})
}

func TestService_Providers(t *testing.T) {
	svc := serviceUnderTest(newMemoryOrderRepo(), "bank",
		&fakeStrategy{name: "bank"},
		&fakeStrategy{name: "paypal"},
		&fakeStrategy{name: "stripe"})
	assert.Equal(t, []string{"bank", "paypal", "stripe"}, svc.Providers())
}
