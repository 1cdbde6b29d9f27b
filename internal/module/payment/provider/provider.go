package provider

import (
	"context"

	"github.com/ceylonmart/server/internal/module/order"
)

// Result is the uniform outcome of a payment gateway operation. Adapters
// never return a Go error for gateway-side failures; those are normalized
// into a Result with Success=false and Error set.
type Result struct {
	Success       bool
	TransactionID string // Gateway-assigned session/order id
	// Bank-gateway correlation fields, merged into the order's payment
	// record by the payment service.
	SessionVersion   string
	SuccessIndicator string
	Merchant         string
	// CaptureID identifies a captured payment for refunds (PayPal).
	CaptureID        string
	ProviderResponse string // Raw gateway payload, kept for audit
	Error            string
}

// Failure builds a failed Result carrying the raw gateway payload.
func Failure(errMsg, providerResponse string) *Result {
	return &Result{Success: false, Error: errMsg, ProviderResponse: providerResponse}
}

// Confirmation is the post-checkout payload supplied by the gateway or the
// client after a redirect. Only the bank gateway consumes ResultIndicator;
// the REST providers re-fetch state by the session id stored on the order.
type Confirmation struct {
	ResultIndicator string
	Raw             map[string]string
}

// Strategy is the capability set every payment provider implements.
// Error returns are reserved for programmer errors (nil order, missing
// required fields); a gateway rejection, network failure, or malformed
// response always comes back as a failed Result.
type Strategy interface {
	// Name returns the logical provider name.
	Name() string

	// CreateCheckoutSession opens a gateway-side checkout session for the
	// order and returns its correlation fields.
	CreateCheckoutSession(ctx context.Context, ord *order.Order) (*Result, error)

	// ValidatePayment reports whether the gateway confirms the payment.
	// Any ambiguity or parse failure is a conservative false.
	ValidatePayment(ctx context.Context, ord *order.Order, conf Confirmation) bool

	// RefundPayment refunds the given amount; zero means the full order
	// total, and any amount is clamped to not exceed it.
	RefundPayment(ctx context.Context, ord *order.Order, amount float64) (*Result, error)
}

// clampAmount resolves the effective refund amount: zero or negative means
// the full total, anything above the total is clamped down to it.
func clampAmount(amount, total float64) float64 {
	if amount <= 0 || amount > total {
		return total
	}
	return amount
}
