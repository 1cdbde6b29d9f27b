package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ceylonmart/server/internal/module/order"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// PaypalConfig holds PayPal REST API configuration.
type PaypalConfig struct {
	BaseURL   string // e.g. https://api-m.sandbox.paypal.com
	ClientID  string
	Secret    string
	ReturnURL string
	CancelURL string
	BrandName string
	Currency  string
}

// PaypalProvider implements Strategy for PayPal's OAuth2/REST API.
//
// Every operation obtains a fresh client-credentials token; nothing caches
// the bearer across calls, so each call pays the full OAuth round-trip.
type PaypalProvider struct {
	config *PaypalConfig
	client *http.Client
}

// NewPaypalProvider creates a new PayPal provider.
func NewPaypalProvider(config *PaypalConfig, client *http.Client) *PaypalProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &PaypalProvider{config: config, client: client}
}

// Name returns the provider name.
func (p *PaypalProvider) Name() string {
	return "paypal"
}

// token fetches a bearer token via the client-credentials grant.
func (p *PaypalProvider) token(ctx context.Context) (string, error) {
	conf := &clientcredentials.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.Secret,
		TokenURL:     p.config.BaseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, p.client))
	if err != nil {
		return "", fmt.Errorf("paypal token: %w", err)
	}
	return tok.AccessToken, nil
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateCheckoutSession creates a PayPal checkout order with one purchase unit.
func (p *PaypalProvider) CreateCheckoutSession(ctx context.Context, ord *order.Order) (*Result, error) {
	if ord == nil {
		return nil, errors.New("order is required")
	}

	token, err := p.token(ctx)
	if err != nil {
		return Failure(err.Error(), ""), nil
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": ord.ID.String(),
				"amount": map[string]string{
					"currency_code": p.config.Currency,
					"value":         fmt.Sprintf("%.2f", ord.TotalAmount),
				},
				"description": orderDescription(ord),
			},
		},
		"application_context": map[string]string{
			"return_url": p.config.ReturnURL,
			"cancel_url": p.config.CancelURL,
			"brand_name": p.config.BrandName,
		},
	}

	status, raw, err := p.call(ctx, http.MethodPost, "/v2/checkout/orders", token, payload)
	if err != nil {
		return Failure(fmt.Sprintf("paypal create order: %v", err), ""), nil
	}
	if status < 200 || status >= 300 {
		return Failure(fmt.Sprintf("paypal create order: status %d", status), raw), nil
	}

	var resp paypalOrderResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.ID == "" {
		return Failure("paypal create order: malformed response", raw), nil
	}

	return &Result{
		Success:          true,
		TransactionID:    resp.ID,
		ProviderResponse: raw,
	}, nil
}

// ValidatePayment re-fetches the PayPal order by the session id stored on
// the order and accepts it when the gateway reports it approved.
func (p *PaypalProvider) ValidatePayment(ctx context.Context, ord *order.Order, _ Confirmation) bool {
	if ord == nil || ord.PaymentResult.SessionID == "" {
		return false
	}

	token, err := p.token(ctx)
	if err != nil {
		return false
	}

	status, raw, err := p.call(ctx, http.MethodGet, "/v2/checkout/orders/"+ord.PaymentResult.SessionID, token, nil)
	if err != nil || status < 200 || status >= 300 {
		return false
	}

	var resp paypalOrderResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return false
	}
	return strings.EqualFold(resp.Status, "approved")
}

// RefundPayment refunds a previously captured payment. A capture id must
// already be recorded on the order; nothing in the create/validate flow
// populates it, so refunds stay unavailable until a capture is recorded by
// the operator. Flagged as an incomplete flow rather than papered over.
func (p *PaypalProvider) RefundPayment(ctx context.Context, ord *order.Order, amount float64) (*Result, error) {
	if ord == nil {
		return nil, errors.New("order is required")
	}

	captureID := ord.PaymentResult.CaptureID
	if captureID == "" {
		return Failure("no capture id recorded for order "+ord.ID.String(), ""), nil
	}

	token, err := p.token(ctx)
	if err != nil {
		return Failure(err.Error(), ""), nil
	}

	refundAmount := clampAmount(amount, ord.TotalAmount)
	payload := map[string]any{
		"amount": map[string]string{
			"currency_code": p.config.Currency,
			"value":         fmt.Sprintf("%.2f", refundAmount),
		},
	}

	status, raw, err := p.call(ctx, http.MethodPost, "/v2/payments/captures/"+captureID+"/refund", token, payload)
	if err != nil {
		return Failure(fmt.Sprintf("paypal refund: %v", err), ""), nil
	}
	if status < 200 || status >= 300 {
		return Failure(fmt.Sprintf("paypal refund: status %d", status), raw), nil
	}

	var resp paypalOrderResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.ID == "" {
		return Failure("paypal refund: malformed response", raw), nil
	}

	return &Result{
		Success:          true,
		TransactionID:    resp.ID,
		CaptureID:        captureID,
		ProviderResponse: raw,
	}, nil
}

// call performs an authenticated JSON request against the PayPal API.
func (p *PaypalProvider) call(ctx context.Context, method, path, token string, payload any) (int, string, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.config.BaseURL+path, body)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(raw), nil
}
