package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/ceylonmart/server/internal/module/order"
	"github.com/ceylonmart/server/internal/module/payment/provider"
	"github.com/ceylonmart/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the payment routes. The provider listing is
// public; everything that touches an order requires authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	payments := r.Group("/payments")
	{
		payments.GET("/providers", h.ListProviders)

		secured := payments.Group("", auth)
		secured.POST("/:provider/:orderId", h.CreateSession)
		secured.POST("/:provider/:orderId/validate", h.ValidatePayment)
		secured.POST("/:provider/:orderId/refund", h.RefundPayment)
	}
}

// ListProviders returns the names of all registered payment providers.
//
//	@Summary		List payment providers
//	@Description	Returns the names of all registered payment providers
//	@Tags			Payment
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=payment.ProvidersResponse}
//	@Router			/payments/providers [get]
func (h *Handler) ListProviders(c *gin.Context) {
	response.OK(c, "providers listed", ProvidersResponse{Providers: h.service.Providers()})
}

// CreateSession initiates a checkout session for an order with the
// provider named in the path.
//
//	@Summary		Create a checkout session
//	@Description	Opens a gateway-side checkout session for the order
//	@Tags			Payment
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	path		string	true	"Provider name"
//	@Param			orderId		path		string	true	"Order id (UUID)"
//	@Success		200			{object}	response.Envelope{data=payment.CheckoutSessionResponse}
//	@Failure		400			{object}	response.Envelope	"Invalid order id"
//	@Failure		402			{object}	response.Envelope	"Gateway rejected the session"
//	@Failure		404			{object}	response.Envelope	"Unknown order or provider"
//	@Router			/payments/{provider}/{orderId} [post]
func (h *Handler) CreateSession(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	result, err := h.service.CreateSession(c.Request.Context(), orderID, c.Param("provider"))
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	if !result.Success {
		response.PaymentRequired(c, "checkout session failed", result.Error)
		return
	}

	response.OK(c, "checkout session created", sessionResponse(c.Param("provider"), result))
}

// ValidatePayment checks a gateway confirmation against the order's
// recorded session and persists the outcome. The body is optional: the
// REST providers re-fetch state by session id and need no confirmation
// payload.
//
//	@Summary		Validate a payment
//	@Description	Checks the gateway confirmation and records paid / payment-failed on the order
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	path		string							true	"Provider name"
//	@Param			orderId		path		string							true	"Order id (UUID)"
//	@Param			request		body		payment.ValidatePaymentRequest	false	"Gateway confirmation"
//	@Success		200			{object}	response.Envelope{data=payment.ValidatePaymentResponse}
//	@Failure		400			{object}	response.Envelope	"Invalid order id or body"
//	@Failure		402			{object}	response.Envelope	"Payment not verified"
//	@Failure		404			{object}	response.Envelope	"Unknown order or provider"
//	@Router			/payments/{provider}/{orderId}/validate [post]
func (h *Handler) ValidatePayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req ValidatePaymentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	paid, err := h.service.Validate(c.Request.Context(), orderID, provider.Confirmation{ResultIndicator: req.ResultIndicator})
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	if !paid {
		response.PaymentRequired(c, "payment not verified", "gateway did not confirm the payment")
		return
	}

	response.OK(c, "payment verified", ValidatePaymentResponse{Paid: true})
}

// RefundPayment forwards a refund request to the order's provider. An
// absent body or zero amount means a full refund.
//
//	@Summary		Refund a payment
//	@Description	Forwards a refund to the order's provider; omit the body for a full refund
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	path		string					true	"Provider name"
//	@Param			orderId		path		string					true	"Order id (UUID)"
//	@Param			request		body		payment.RefundRequest	false	"Refund amount (major units)"
//	@Success		200			{object}	response.Envelope{data=payment.RefundResponse}
//	@Failure		400			{object}	response.Envelope	"Invalid order id or body"
//	@Failure		402			{object}	response.Envelope	"Gateway rejected the refund"
//	@Failure		404			{object}	response.Envelope	"Unknown order or provider"
//	@Router			/payments/{provider}/{orderId}/refund [post]
func (h *Handler) RefundPayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req RefundRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Refund(c.Request.Context(), orderID, req.Amount)
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	if !result.Success {
		response.PaymentRequired(c, "refund failed", result.Error)
		return
	}

	response.OK(c, "refund issued", RefundResponse{
		Provider: c.Param("provider"),
		RefundID: result.TransactionID,
	})
}

// bindOptionalJSON binds a JSON body, treating an absent body as the
// zero value instead of an error.
func bindOptionalJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func handlePaymentError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: order.ErrOrderNotFound, Status: http.StatusNotFound, Message: "order not found"},
		{Err: ErrProviderNotFound, Status: http.StatusNotFound, Message: "payment provider not found"},
	})
}
