package order

import (
	"net/http"

	"github.com/ceylonmart/server/internal/shared/middleware"
	"github.com/ceylonmart/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	service *Service
}

// NewHandler creates a new order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the order routes. All of them require
// authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	orders := r.Group("/orders", auth)
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.GET("/no/:orderNo", h.GetByOrderNo)
	}
}

// Create places a new order for the authenticated user.
//
//	@Summary		Place a new order
//	@Description	Creates an order for the authenticated user
//	@Tags			Order
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		order.CreateOrderRequest	true	"Order details"
//	@Success		201		{object}	response.Envelope{data=order.Response}
//	@Failure		400		{object}	response.Envelope	"Invalid order"
//	@Failure		401		{object}	response.Envelope	"Unauthorized"
//	@Router			/orders [post]
func (h *Handler) Create(c *gin.Context) {
	userID := authUserID(c)
	if userID == uuid.Nil {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ord, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleOrderError(c, err)
		return
	}

	response.Created(c, "order created", ord.ToResponse())
}

// Get returns one of the authenticated user's orders by id.
//
//	@Summary		Get an order
//	@Description	Returns one of the authenticated user's orders by id
//	@Tags			Order
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Order id (UUID)"
//	@Success		200	{object}	response.Envelope{data=order.Response}
//	@Failure		403	{object}	response.Envelope	"Order belongs to another user"
//	@Failure		404	{object}	response.Envelope	"Order not found"
//	@Router			/orders/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID := authUserID(c)
	if userID == uuid.Nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	ord, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	if ord.UserID != userID {
		response.Fail(c, http.StatusForbidden, "forbidden", "order belongs to another user")
		return
	}

	response.OK(c, "order found", ord.ToResponse())
}

// GetByOrderNo returns one of the authenticated user's orders by its
// human-readable number.
//
//	@Summary		Get an order by order number
//	@Description	Returns one of the authenticated user's orders by its human-readable number
//	@Tags			Order
//	@Produce		json
//	@Security		BearerAuth
//	@Param			orderNo	path		string	true	"Order number"
//	@Success		200		{object}	response.Envelope{data=order.Response}
//	@Failure		403		{object}	response.Envelope	"Order belongs to another user"
//	@Failure		404		{object}	response.Envelope	"Order not found"
//	@Router			/orders/no/{orderNo} [get]
func (h *Handler) GetByOrderNo(c *gin.Context) {
	userID := authUserID(c)
	if userID == uuid.Nil {
		return
	}

	ord, err := h.service.GetByOrderNo(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		handleOrderError(c, err)
		return
	}
	if ord.UserID != userID {
		response.Fail(c, http.StatusForbidden, "forbidden", "order belongs to another user")
		return
	}

	response.OK(c, "order found", ord.ToResponse())
}

// List returns all orders of the authenticated user.
//
//	@Summary		List orders
//	@Description	Returns all orders of the authenticated user
//	@Tags			Order
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]order.Response}
//	@Failure		401	{object}	response.Envelope	"Unauthorized"
//	@Router			/orders [get]
func (h *Handler) List(c *gin.Context) {
	userID := authUserID(c)
	if userID == uuid.Nil {
		return
	}

	orders, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handleOrderError(c, err)
		return
	}

	out := make([]Response, 0, len(orders))
	for _, ord := range orders {
		out = append(out, ord.ToResponse())
	}
	response.OK(c, "orders listed", out)
}

// authUserID extracts the authenticated user's id, failing the request
// when it is absent or malformed.
func authUserID(c *gin.Context) uuid.UUID {
	raw := c.GetString(middleware.UserIDKey)
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", "missing or invalid user identity")
		return uuid.Nil
	}
	return id
}

func handleOrderError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrOrderNotFound, Status: http.StatusNotFound, Message: "order not found"},
		{Err: ErrInvalidOrder, Status: http.StatusBadRequest, Message: "invalid order"},
	})
}
