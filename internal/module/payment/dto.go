package payment

import (
	"strings"

	"github.com/ceylonmart/server/internal/module/payment/provider"
)

// CheckoutSessionResponse is returned after a session is created.
type CheckoutSessionResponse struct {
	Provider         string `json:"provider"`
	SessionID        string `json:"sessionId"`
	SessionVersion   string `json:"sessionVersion,omitempty"`
	SuccessIndicator string `json:"successIndicator,omitempty"`
	Merchant         string `json:"merchant,omitempty"`
	CheckoutURL      string `json:"checkoutUrl,omitempty"`
}

// ValidatePaymentRequest carries the gateway's return-redirect parameters.
type ValidatePaymentRequest struct {
	ResultIndicator string `json:"resultIndicator"`
}

// ValidatePaymentResponse reports the validation outcome.
type ValidatePaymentResponse struct {
	Paid bool `json:"paid"`
}

// RefundRequest carries the refund amount in major currency units.
// Zero means a full refund.
type RefundRequest struct {
	Amount float64 `json:"amount"`
}

// RefundResponse reports the gateway refund reference.
type RefundResponse struct {
	Provider string `json:"provider"`
	RefundID string `json:"refundId"`
}

// ProvidersResponse lists the registered provider names.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

func sessionResponse(providerName string, result *provider.Result) CheckoutSessionResponse {
	resp := CheckoutSessionResponse{
		Provider:         providerName,
		SessionID:        result.TransactionID,
		SessionVersion:   result.SessionVersion,
		SuccessIndicator: result.SuccessIndicator,
		Merchant:         result.Merchant,
	}
	// Hosted-checkout gateways hand back a redirect URL instead of NVP
	// data. Provider names are case-insensitive everywhere else, so the
	// comparison folds case too.
	if strings.EqualFold(providerName, "stripe") {
		resp.CheckoutURL = result.ProviderResponse
	}
	return resp
}
