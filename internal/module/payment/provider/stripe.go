package provider

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ceylonmart/server/internal/module/order"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
)

// StripeConfig holds Stripe hosted-checkout configuration.
type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// StripeProvider implements Strategy on top of Stripe Checkout Sessions.
//
// When no secret key is configured the provider still registers, but every
// operation degrades to a deterministic "not configured" failure instead of
// touching the SDK.
type StripeProvider struct {
	config     *StripeConfig
	configured bool
}

// NewStripeProvider creates a new Stripe provider.
func NewStripeProvider(config *StripeConfig) *StripeProvider {
	configured := config.SecretKey != ""
	if configured {
		stripe.Key = config.SecretKey
	}
	return &StripeProvider{config: config, configured: configured}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// CreateCheckoutSession creates a Stripe checkout session for the order.
func (p *StripeProvider) CreateCheckoutSession(_ context.Context, ord *order.Order) (*Result, error) {
	if ord == nil {
		return nil, errors.New("order is required")
	}
	if !p.configured {
		return Failure("stripe is not configured", ""), nil
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.config.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(orderDescription(ord)),
					},
					UnitAmount: stripe.Int64(minorUnits(ord.TotalAmount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.config.SuccessURL),
		CancelURL:  stripe.String(p.config.CancelURL),
	}
	params.AddMetadata("orderId", ord.ID.String())

	sess, err := session.New(params)
	if err != nil {
		return Failure(fmt.Sprintf("stripe create session: %v", err), ""), nil
	}

	return &Result{
		Success:          true,
		TransactionID:    sess.ID,
		ProviderResponse: sess.URL,
	}, nil
}

// ValidatePayment re-fetches the checkout session and accepts it once
// Stripe reports the payment collected.
func (p *StripeProvider) ValidatePayment(_ context.Context, ord *order.Order, _ Confirmation) bool {
	if !p.configured || ord == nil || ord.PaymentResult.SessionID == "" {
		return false
	}

	sess, err := session.Get(ord.PaymentResult.SessionID, nil)
	if err != nil {
		return false
	}
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
}

// RefundPayment refunds against the payment intent behind the stored
// checkout session.
func (p *StripeProvider) RefundPayment(_ context.Context, ord *order.Order, amount float64) (*Result, error) {
	if ord == nil {
		return nil, errors.New("order is required")
	}
	if !p.configured {
		return Failure("stripe is not configured", ""), nil
	}
	if ord.PaymentResult.SessionID == "" {
		return Failure("no checkout session recorded for order "+ord.ID.String(), ""), nil
	}

	getParams := &stripe.CheckoutSessionParams{}
	getParams.AddExpand("payment_intent")
	sess, err := session.Get(ord.PaymentResult.SessionID, getParams)
	if err != nil {
		return Failure(fmt.Sprintf("stripe fetch session: %v", err), ""), nil
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return Failure("no payment intent on session "+ord.PaymentResult.SessionID, ""), nil
	}

	ref, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		Amount:        stripe.Int64(minorUnits(clampAmount(amount, ord.TotalAmount))),
	})
	if err != nil {
		return Failure(fmt.Sprintf("stripe refund: %v", err), ""), nil
	}

	return &Result{
		Success:          true,
		TransactionID:    ref.ID,
		ProviderResponse: string(ref.Status),
	}, nil
}

// minorUnits converts a major-unit amount to the smallest currency unit.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
