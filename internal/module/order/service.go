package order

import (
	"context"
	"fmt"
	"time"

	"github.com/ceylonmart/server/internal/shared/random"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages order lifecycle outside of payment flows. Payment
// state is owned by the payment orchestration service; this one only
// creates and reads orders.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates an order service.
func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// Create places a new order for the user.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*Order, error) {
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidOrder)
	}

	ord := &Order{
		ID:              uuid.New(),
		OrderNo:         random.OrderNo(time.Now()),
		UserID:          userID,
		Description:     req.Description,
		TotalAmount:     req.TotalAmount,
		PaymentProvider: req.PaymentProvider,
	}
	if err := s.repo.Create(ctx, ord); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("order created",
		zap.String("order_id", ord.ID.String()),
		zap.String("order_no", ord.OrderNo),
		zap.Float64("total_amount", ord.TotalAmount))
	return ord, nil
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// GetByOrderNo returns an order by its human-readable number.
func (s *Service) GetByOrderNo(ctx context.Context, orderNo string) (*Order, error) {
	return s.repo.GetByOrderNo(ctx, orderNo)
}

// ListByUser returns all orders belonging to the user.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
