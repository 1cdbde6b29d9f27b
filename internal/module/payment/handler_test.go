package payment

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ceylonmart/server/internal/module/payment/provider"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(svc *Service) *gin.Engine {
	router := gin.New()
	passthroughAuth := func(c *gin.Context) { c.Next() }
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"), passthroughAuth)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestHandler_ListProviders(t *testing.T) {
	svc := serviceUnderTest(newMemoryOrderRepo(), "bank",
		&fakeStrategy{name: "bank"}, &fakeStrategy{name: "stripe"})
	router := testRouter(svc)

	w, envelope := doRequest(t, router, http.MethodGet, "/api/v1/payments/providers", "")
	assert.Equal(t, http.StatusOK, w.Code)

	data := envelope["data"].(map[string]any)
	assert.ElementsMatch(t, []any{"bank", "stripe"}, data["providers"])
}

func TestHandler_CreateSession(t *testing.T) {
	t.Run("successful session returns session data", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{
			name: "bank",
			createResult: &provider.Result{
				Success:          true,
				TransactionID:    "SESSION0001",
				SuccessIndicator: "IND1",
			},
		}
		router := testRouter(serviceUnderTest(repo, "bank", bank))

		w, envelope := doRequest(t, router, http.MethodPost, "/api/v1/payments/bank/"+ord.ID.String(), "")
		assert.Equal(t, http.StatusOK, w.Code)

		data := envelope["data"].(map[string]any)
		assert.Equal(t, "SESSION0001", data["sessionId"])
		assert.Equal(t, "bank", data["provider"])
	})

	t.Run("checkout url survives a differently cased provider name", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		stripe := &fakeStrategy{
			name: "stripe",
			createResult: &provider.Result{
				Success:          true,
				TransactionID:    "cs_test_123",
				ProviderResponse: "https://checkout.stripe.com/c/pay/cs_test_123",
			},
		}
		router := testRouter(serviceUnderTest(repo, "bank", stripe))

		w, envelope := doRequest(t, router, http.MethodPost, "/api/v1/payments/Stripe/"+ord.ID.String(), "")
		assert.Equal(t, http.StatusOK, w.Code)

		data := envelope["data"].(map[string]any)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", data["checkoutUrl"])
	})

	t.Run("gateway failure returns 402 with reason", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", createResult: provider.Failure("gateway said no", "")}
		router := testRouter(serviceUnderTest(repo, "bank", bank))

		w, envelope := doRequest(t, router, http.MethodPost, "/api/v1/payments/bank/"+ord.ID.String(), "")
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Equal(t, "gateway said no", envelope["error"])
		assert.Nil(t, envelope["data"])
	})

	t.Run("unknown provider returns 404", func(t *testing.T) {
		ord := pendingOrder()
		repo := newMemoryOrderRepo(ord)
		router := testRouter(serviceUnderTest(repo, "bank", &fakeStrategy{name: "bank"}))

		w, _ := doRequest(t, router, http.MethodPost, "/api/v1/payments/square/"+ord.ID.String(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		router := testRouter(serviceUnderTest(newMemoryOrderRepo(), "bank", &fakeStrategy{name: "bank"}))

		w, _ := doRequest(t, router, http.MethodPost, "/api/v1/payments/bank/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed order id returns 400", func(t *testing.T) {
		router := testRouter(serviceUnderTest(newMemoryOrderRepo(), "bank", &fakeStrategy{name: "bank"}))

		w, _ := doRequest(t, router, http.MethodPost, "/api/v1/payments/bank/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_ValidatePayment(t *testing.T) {
	t.Run("verified payment returns paid", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", validateOK: true}
		router := testRouter(serviceUnderTest(repo, "bank", bank))

		w, envelope := doRequest(t, router, http.MethodPost,
			"/api/v1/payments/bank/"+ord.ID.String()+"/validate",
			`{"resultIndicator":"IND1"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		data := envelope["data"].(map[string]any)
		assert.Equal(t, true, data["paid"])
		assert.True(t, repo.orders[ord.ID].IsPaid)
	})

	t.Run("unverified payment returns 402 and marks failure", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "bank"
		repo := newMemoryOrderRepo(ord)
		bank := &fakeStrategy{name: "bank", validateOK: false}
		router := testRouter(serviceUnderTest(repo, "bank", bank))

		w, _ := doRequest(t, router, http.MethodPost,
			"/api/v1/payments/bank/"+ord.ID.String()+"/validate",
			`{"resultIndicator":"WRONG"}`)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.True(t, repo.orders[ord.ID].IsPaymentFailed)
	})
}

func TestHandler_RefundPayment(t *testing.T) {
	t.Run("refund failure surfaces as 402", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		repo := newMemoryOrderRepo(ord)
		paypal := &fakeStrategy{
			name:         "paypal",
			refundResult: provider.Failure("no capture id recorded for order", ""),
		}
		router := testRouter(serviceUnderTest(repo, "bank", paypal))

		w, envelope := doRequest(t, router, http.MethodPost,
			"/api/v1/payments/paypal/"+ord.ID.String()+"/refund",
			`{"amount":100}`)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, envelope["error"], "no capture id")
	})

	t.Run("missing body means a full refund", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		repo := newMemoryOrderRepo(ord)
		paypal := &fakeStrategy{
			name:         "paypal",
			refundResult: &provider.Result{Success: true, TransactionID: "REFUND-1"},
		}
		router := testRouter(serviceUnderTest(repo, "bank", paypal))

		w, _ := doRequest(t, router, http.MethodPost,
			"/api/v1/payments/paypal/"+ord.ID.String()+"/refund", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, paypal.refundCalls)
		// A zero amount reaches the adapter, which treats it as the full
		// order total.
		assert.Zero(t, paypal.refundAmount)
	})

	t.Run("successful refund returns refund id", func(t *testing.T) {
		ord := pendingOrder()
		ord.PaymentProvider = "paypal"
		repo := newMemoryOrderRepo(ord)
		paypal := &fakeStrategy{
			name:         "paypal",
			refundResult: &provider.Result{Success: true, TransactionID: "REFUND-1"},
		}
		router := testRouter(serviceUnderTest(repo, "bank", paypal))

		w, envelope := doRequest(t, router, http.MethodPost,
			"/api/v1/payments/paypal/"+ord.ID.String()+"/refund",
			`{"amount":50}`)
		assert.Equal(t, http.StatusOK, w.Code)

		data := envelope["data"].(map[string]any)
		assert.Equal(t, "REFUND-1", data["refundId"])
	})
}
