package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ceylonmart/server/internal/module/order"
)

// BankConfig holds the legacy bank gateway configuration.
type BankConfig struct {
	APIURL       string // NVP endpoint
	APIUsername  string
	APIPassword  string
	MerchantID   string
	MerchantName string // Display name on the hosted payment page
	ReturnURL    string
	Currency     string // Fixed per deployment, e.g. "LKR"
}

// BankProvider implements Strategy for the legacy bank NVP gateway.
//
// The gateway speaks an ampersand-joined name/value format on both legs.
// Session creation is a live call; validation is an offline comparison of
// the client-supplied resultIndicator against the successIndicator captured
// when the session was created. That equality check is the only
// authenticity control the gateway offers (no signature), a known
// limitation inherited from the protocol.
type BankProvider struct {
	config *BankConfig
	client *http.Client
}

// NewBankProvider creates a new bank gateway provider.
func NewBankProvider(config *BankConfig, client *http.Client) *BankProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &BankProvider{config: config, client: client}
}

// Name returns the provider name.
func (p *BankProvider) Name() string {
	return "bank"
}

// CreateCheckoutSession opens a hosted checkout session on the gateway.
func (p *BankProvider) CreateCheckoutSession(ctx context.Context, ord *order.Order) (*Result, error) {
	if ord == nil {
		return nil, errors.New("order is required")
	}
	if ord.TotalAmount <= 0 {
		return nil, fmt.Errorf("order %s has no payable amount", ord.ID)
	}

	form := url.Values{}
	form.Set("apiOperation", "CREATE_CHECKOUT_SESSION")
	form.Set("apiUsername", p.config.APIUsername)
	form.Set("apiPassword", p.config.APIPassword)
	form.Set("merchant", p.config.MerchantID)
	form.Set("order.id", ord.ID.String())
	form.Set("order.amount", strconv.FormatFloat(ord.TotalAmount, 'f', -1, 64))
	form.Set("order.currency", p.config.Currency)
	form.Set("order.description", orderDescription(ord))
	form.Set("interaction.operation", "PURCHASE")
	form.Set("interaction.returnUrl", p.config.ReturnURL)
	form.Set("interaction.merchant.name", p.config.MerchantName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build bank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return Failure(fmt.Sprintf("bank gateway unreachable: %v", err), ""), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(fmt.Sprintf("read bank response: %v", err), ""), nil
	}
	raw := string(body)

	fields := parseNVP(raw)

	// The gateway reports SUCCESS/ERROR in the result field. Anything that
	// is not the literal SUCCESS, including a missing field, is a failure.
	if fields["result"] != "SUCCESS" {
		msg := "bank gateway rejected session creation"
		if r := fields["result"]; r != "" {
			msg = "bank gateway returned " + r
		}
		if expl := fields["error.explanation"]; expl != "" {
			msg += ": " + expl
		}
		return Failure(msg, raw), nil
	}

	sessionID := fields["session.id"]
	if sessionID == "" {
		return Failure("bank gateway response missing session.id", raw), nil
	}

	return &Result{
		Success:          true,
		TransactionID:    sessionID,
		SessionVersion:   fields["session.version"],
		SuccessIndicator: fields["successIndicator"],
		Merchant:         fields["merchant"],
		ProviderResponse: raw,
	}, nil
}

// ValidatePayment compares the client-supplied resultIndicator against the
// successIndicator stored at session creation. Exact, case-sensitive match.
func (p *BankProvider) ValidatePayment(_ context.Context, ord *order.Order, conf Confirmation) bool {
	if ord == nil {
		return false
	}
	stored := ord.PaymentResult.SuccessIndicator
	if stored == "" || conf.ResultIndicator == "" {
		return false
	}
	return conf.ResultIndicator == stored
}

// RefundPayment is not supported by the bank gateway integration.
func (p *BankProvider) RefundPayment(_ context.Context, _ *order.Order, _ float64) (*Result, error) {
	return Failure("refund is not implemented for the bank gateway", ""), nil
}

// parseNVP parses an ampersand-joined key=value response body.
//
// This is a literal split on '&' then the first '=', matching the gateway's
// wire format. An embedded '&' or '=' inside a value corrupts the parse;
// the gateway does not escape values, so neither do we.
func parseNVP(body string) map[string]string {
	fields := make(map[string]string)
	for _, pair := range strings.Split(body, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields[kv[0]] = kv[1]
	}
	return fields
}

func orderDescription(ord *order.Order) string {
	if ord.Description != "" {
		return ord.Description
	}
	return "Order " + ord.OrderNo
}
