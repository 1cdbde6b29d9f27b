package order

import (
	"time"

	"github.com/google/uuid"
)

// CreateOrderRequest is the payload to place a new order.
type CreateOrderRequest struct {
	Description     string  `json:"description"`
	TotalAmount     float64 `json:"totalAmount" binding:"required,gt=0"`
	PaymentProvider string  `json:"paymentProvider"`
}

// Response is the API shape of an order.
type Response struct {
	ID              uuid.UUID  `json:"id"`
	OrderNo         string     `json:"orderNo"`
	Description     string     `json:"description"`
	TotalAmount     float64    `json:"totalAmount"`
	PaymentProvider string     `json:"paymentProvider,omitempty"`
	IsPaid          bool       `json:"isPaid"`
	IsPaymentFailed bool       `json:"isPaymentFailed"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ToResponse converts an order to its API shape. Gateway session
// internals (indicators, raw responses) never leave the server.
func (o *Order) ToResponse() Response {
	return Response{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		Description:     o.Description,
		TotalAmount:     o.TotalAmount,
		PaymentProvider: o.PaymentProvider,
		IsPaid:          o.IsPaid,
		IsPaymentFailed: o.IsPaymentFailed,
		PaidAt:          o.PaidAt,
		CreatedAt:       o.CreatedAt,
	}
}
