package order

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a purchase order. Payment fields are mutated only by the
// payment service; everything else belongs to order management.
type Order struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNo         string        `json:"order_no" gorm:"uniqueIndex;not null"`
	UserID          uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Description     string        `json:"description"`
	TotalAmount     float64       `json:"total_amount"` // Major currency units (LKR)
	PaymentProvider string        `json:"payment_provider"`
	IsPaid          bool          `json:"is_paid" gorm:"default:false"`
	IsPaymentFailed bool          `json:"is_payment_failed" gorm:"default:false"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	PaymentResult   PaymentRecord `json:"payment_result" gorm:"embedded;embeddedPrefix:payment_result_"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// IsPending returns true if no payment outcome has been recorded yet.
func (o *Order) IsPending() bool {
	return !o.IsPaid && !o.IsPaymentFailed
}

// MarkPaid records a confirmed payment. It clears the failed flag so the
// two outcome flags can never both be set.
func (o *Order) MarkPaid(at time.Time) {
	o.IsPaid = true
	o.IsPaymentFailed = false
	o.PaidAt = &at
}

// MarkPaymentFailed records a rejected payment confirmation.
func (o *Order) MarkPaymentFailed() {
	o.IsPaymentFailed = true
	o.IsPaid = false
}

// PaymentRecord holds the correlation fields a payment provider accumulates
// across an order's lifecycle. Fields are additive: nothing clears a value
// once set, except a new session-creation call overwriting the session
// fields it owns.
type PaymentRecord struct {
	SessionID        string `json:"session_id,omitempty"`
	SessionVersion   string `json:"session_version,omitempty"`
	SuccessIndicator string `json:"success_indicator,omitempty"`
	ResultIndicator  string `json:"result_indicator,omitempty"`
	Merchant         string `json:"merchant,omitempty"`
	CaptureID        string `json:"capture_id,omitempty"`
	ProviderResponse string `json:"provider_response,omitempty" gorm:"type:text"`
}

// MergeSession overwrites the session correlation fields with the outcome of
// a new checkout-session creation. CaptureID and ResultIndicator survive.
func (r *PaymentRecord) MergeSession(sessionID, sessionVersion, successIndicator, merchant, providerResponse string) {
	r.SessionID = sessionID
	r.SessionVersion = sessionVersion
	r.SuccessIndicator = successIndicator
	r.Merchant = merchant
	r.ProviderResponse = providerResponse
}

// SetResultIndicator records the client-supplied confirmation indicator.
// Empty input leaves the stored value alone.
func (r *PaymentRecord) SetResultIndicator(indicator string) {
	if indicator != "" {
		r.ResultIndicator = indicator
	}
}
