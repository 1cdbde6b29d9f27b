package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/ceylonmart/server/internal/module/order"
	"github.com/ceylonmart/server/internal/module/payment/provider"
	"github.com/ceylonmart/server/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orchestrates payment flows across the registered gateways.
//
// It is the only component that mutates order payment state: adapters
// report outcomes, the service decides what (if anything) to persist.
// Gateway failures surface as unsuccessful results, never as Go errors;
// errors are reserved for lookup failures (unknown order, unknown
// provider) and persistence problems.
type Service struct {
	orders          order.Repository
	registry        *ProviderRegistry
	defaultProvider string
	log             *zap.Logger
	metrics         *metrics.Metrics
}

// NewService creates a payment orchestration service.
func NewService(orders order.Repository, registry *ProviderRegistry, defaultProvider string, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		orders:          orders,
		registry:        registry,
		defaultProvider: defaultProvider,
		log:             log,
		metrics:         m,
	}
}

// Providers returns the names of all registered providers.
func (s *Service) Providers() []string {
	return s.registry.Names()
}

// resolveProvider picks the gateway for an order: an explicit request
// override wins, then the provider recorded on the order, then the
// configured default.
func (s *Service) resolveProvider(requested string, ord *order.Order) (provider.Strategy, error) {
	name := requested
	if name == "" {
		name = ord.PaymentProvider
	}
	if name == "" {
		name = s.defaultProvider
	}
	return s.registry.Resolve(name)
}

// CreateSession initiates a checkout session for the order with the
// resolved provider. On success the session details are merged into the
// order's payment record and persisted in a single update; on failure
// the order is left untouched.
func (s *Service) CreateSession(ctx context.Context, orderID uuid.UUID, providerName string) (*provider.Result, error) {
	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	strategy, err := s.resolveProvider(providerName, ord)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.safeCreate(ctx, strategy, ord)
	s.observe(strategy.Name(), "create_session", result.Success, start)

	if !result.Success {
		s.log.Warn("checkout session failed",
			zap.String("order_id", ord.ID.String()),
			zap.String("provider", strategy.Name()),
			zap.String("reason", result.Error))
		return result, nil
	}

	ord.PaymentProvider = strategy.Name()
	ord.PaymentResult.MergeSession(
		result.TransactionID,
		result.SessionVersion,
		result.SuccessIndicator,
		result.Merchant,
		result.ProviderResponse,
	)
	if err := s.orders.Update(ctx, ord); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.log.Info("checkout session created",
		zap.String("order_id", ord.ID.String()),
		zap.String("provider", strategy.Name()),
		zap.String("session_id", result.TransactionID))
	return result, nil
}

// Validate checks a gateway confirmation against the order's recorded
// session and persists the outcome. The order lands in exactly one of
// paid or payment-failed; a later validation overwrites an earlier one.
func (s *Service) Validate(ctx context.Context, orderID uuid.UUID, conf provider.Confirmation) (bool, error) {
	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return false, err
	}

	strategy, err := s.resolveProvider("", ord)
	if err != nil {
		return false, err
	}

	start := time.Now()
	valid := s.safeValidate(ctx, strategy, ord, conf)
	s.observe(strategy.Name(), "validate", valid, start)

	ord.PaymentResult.SetResultIndicator(conf.ResultIndicator)
	if valid {
		ord.MarkPaid(time.Now())
	} else {
		ord.MarkPaymentFailed()
	}
	if err := s.orders.Update(ctx, ord); err != nil {
		return false, fmt.Errorf("persist validation: %w", err)
	}

	s.log.Info("payment validated",
		zap.String("order_id", ord.ID.String()),
		zap.String("provider", strategy.Name()),
		zap.Bool("valid", valid))
	return valid, nil
}

// Refund forwards a refund request to the order's provider. Refunds do
// not rewind payment flags: a refunded order stays marked paid and the
// ledger of record is the gateway's.
func (s *Service) Refund(ctx context.Context, orderID uuid.UUID, amount float64) (*provider.Result, error) {
	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	strategy, err := s.resolveProvider("", ord)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.safeRefund(ctx, strategy, ord, amount)
	s.observe(strategy.Name(), "refund", result.Success, start)

	if result.Success {
		s.log.Info("refund issued",
			zap.String("order_id", ord.ID.String()),
			zap.String("provider", strategy.Name()),
			zap.String("refund_id", result.TransactionID))
	} else {
		s.log.Warn("refund failed",
			zap.String("order_id", ord.ID.String()),
			zap.String("provider", strategy.Name()),
			zap.String("reason", result.Error))
	}
	return result, nil
}

// safeCreate shields the orchestration flow from adapter panics by
// converting them into failed results.
func (s *Service) safeCreate(ctx context.Context, strategy provider.Strategy, ord *order.Order) (result *provider.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("provider panic during create",
				zap.String("provider", strategy.Name()),
				zap.Any("panic", r))
			result = provider.Failure(fmt.Sprintf("provider %s panicked: %v", strategy.Name(), r), "")
		}
	}()

	result, err := strategy.CreateCheckoutSession(ctx, ord)
	if err != nil {
		return provider.Failure(err.Error(), "")
	}
	if result == nil {
		return provider.Failure("provider returned no result", "")
	}
	return result
}

func (s *Service) safeValidate(ctx context.Context, strategy provider.Strategy, ord *order.Order, conf provider.Confirmation) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("provider panic during validate",
				zap.String("provider", strategy.Name()),
				zap.Any("panic", r))
			valid = false
		}
	}()
	return strategy.ValidatePayment(ctx, ord, conf)
}

func (s *Service) safeRefund(ctx context.Context, strategy provider.Strategy, ord *order.Order, amount float64) (result *provider.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("provider panic during refund",
				zap.String("provider", strategy.Name()),
				zap.Any("panic", r))
			result = provider.Failure(fmt.Sprintf("provider %s panicked: %v", strategy.Name(), r), "")
		}
	}()

	result, err := strategy.RefundPayment(ctx, ord, amount)
	if err != nil {
		return provider.Failure(err.Error(), "")
	}
	if result == nil {
		return provider.Failure("provider returned no result", "")
	}
	return result
}

func (s *Service) observe(providerName, operation string, success bool, start time.Time) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	s.metrics.RecordPaymentOperation(providerName, operation, outcome, time.Since(start))
}
