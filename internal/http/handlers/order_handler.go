// Order HTTP handlers.
//
// This file exposes REST endpoints for orders and their embedded chat:
//   - POST /orders                  (create)
//   - GET  /orders                  (list for the current user)
//   - GET  /orders/{id}             (fetch one, participants only)
//   - PUT  /orders/{id}/complete    (mark completed, seller only)
//   - GET  /orders/{id}/messages    (chat history)
//   - POST /orders/{id}/messages    (append a message; also pushed over the
//     realtime channel to both participants)
//
// Message posts honor the Idempotency-Key header: a replayed request returns
// the previously stored message ID without appending a duplicate.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/http/middleware"
	"github.com/afrimart/marketplace-backend/internal/services"
)

// OrderService defines the order lifecycle operations consumed by handlers.
type OrderService interface {
	Create(ctx context.Context, buyerID, itemID string, price float64) (*domain.Order, error)
	Get(ctx context.Context, callerID, orderID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	Messages(ctx context.Context, callerID, orderID string) ([]domain.OrderMessage, error)
	Complete(ctx context.Context, callerID, orderID string) error
}

// OrderMessenger appends a message to an order's chat and fans it out to the
// connected participants.
type OrderMessenger interface {
	SendOrderMessage(ctx context.Context, orderID, senderID, text string) (*domain.OrderMessage, error)
}

// IdempotencyStore persists completed request results so retried posts can be
// replayed instead of re-executed.
type IdempotencyStore interface {
	// Lookup returns the stored result ID for (userID, scope, key), if any.
	Lookup(ctx context.Context, userID, scope, key string) (resultID string, found bool, err error)
	// Record stores resultID for (userID, scope, key). Duplicate records are
	// not an error.
	Record(ctx context.Context, userID, scope, key, resultID string) error
}

// OrderHandlers groups the order endpoints.
type OrderHandlers struct {
	svc       OrderService
	messenger OrderMessenger
	idem      IdempotencyStore // optional
}

// NewOrderHandlers constructs an OrderHandlers. idem may be nil to disable
// idempotent replay of message posts.
func NewOrderHandlers(svc OrderService, messenger OrderMessenger, idem IdempotencyStore) *OrderHandlers {
	return &OrderHandlers{svc: svc, messenger: messenger, idem: idem}
}

//
// DTOs
//

// CreateOrderRequest is the JSON payload for creating an order.
type CreateOrderRequest struct {
	ItemID string  `json:"item_id" binding:"required" format:"uuid"`
	Price  float64 `json:"price" binding:"required" example:"45.5"`
}

// SendMessageRequest is the JSON payload for appending a chat message.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required" example:"Is this still available?"`
}

// MessageReplayResponse acknowledges an idempotent replay of a prior post.
type MessageReplayResponse struct {
	ID     string `json:"id"`
	Status string `json:"status" example:"replay"`
}

//
// Handlers
//

// Create godoc
// @ID          createOrder
// @Summary     Create an order
// @Description Opens an order between the current user (buyer) and the listing's seller.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateOrderRequest  true  "Order payload"
//
// @Success     201  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Router      /orders [post]
func (h *OrderHandlers) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	o, err := h.svc.Create(c.Request.Context(), userID(c), req.ItemID, req.Price)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, o)
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not create order")
	}
}

// List godoc
// @ID          listOrders
// @Summary     List the current user's orders
// @Description Returns every order where the current user is buyer or seller, newest first.
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.Order
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [get]
func (h *OrderHandlers) List(c *gin.Context) {
	orders, err := h.svc.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list orders")
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	ok(c, http.StatusOK, orders)
}

// Get godoc
// @ID          getOrder
// @Summary     Fetch an order
// @Description Returns one order. Only the buyer and the seller may read it.
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Order ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Order
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [get]
func (h *OrderHandlers) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}

	o, err := h.svc.Get(c.Request.Context(), userID(c), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, o)
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
	case errors.Is(err, services.ErrNotParticipant):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a participant in this order")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load order")
	}
}

// Complete godoc
// @ID          completeOrder
// @Summary     Mark an order completed
// @Description Transitions the order to completed. Only the seller may do this.
// @Tags        Orders
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Order ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the seller"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id}/complete [put]
func (h *OrderHandlers) Complete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}

	err := h.svc.Complete(c.Request.Context(), userID(c), id)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the seller can complete an order")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not complete order")
	}
}

// Messages godoc
// @ID          listOrderMessages
// @Summary     Order chat history
// @Description Returns the order's messages oldest first. Participants only.
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Order ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.OrderMessage
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id}/messages [get]
func (h *OrderHandlers) Messages(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}

	msgs, err := h.svc.Messages(c.Request.Context(), userID(c), id)
	switch {
	case err == nil:
		if msgs == nil {
			msgs = []domain.OrderMessage{}
		}
		ok(c, http.StatusOK, msgs)
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
	case errors.Is(err, services.ErrNotParticipant):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a participant in this order")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load messages")
	}
}

// SendMessage godoc
// @ID          sendOrderMessage
// @Summary     Append a chat message
// @Description Persists the message, then pushes it to both connected participants. Supports Idempotency-Key replays.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Deduplication key for safe retries"
// @Param       id               path    string  true   "Order ID (UUID)"  format(uuid)
// @Param       body             body    handlers.SendMessageRequest  true  "Message payload"
//
// @Success     200  {object}  handlers.MessageReplayResponse  "Idempotent replay"
// @Success     201  {object}  domain.OrderMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id}/messages [post]
func (h *OrderHandlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")
	if _, err := uuid.Parse(orderID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a UUID")
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	uid := userID(c)
	key, hasKey := middleware.GetIdempotencyKey(c)

	// Serve replays without re-appending.
	if hasKey && h.idem != nil {
		if resultID, found, err := h.idem.Lookup(ctx, uid, orderID, key); err == nil && found {
			ok(c, http.StatusOK, MessageReplayResponse{ID: resultID, Status: "replay"})
			return
		}
	}

	msg, err := h.messenger.SendOrderMessage(ctx, orderID, uid, req.Text)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
		return
	case errors.Is(err, services.ErrNotParticipant):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a participant in this order")
		return
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not send message")
		return
	}

	// Best effort; a failed record only means a retry would append again.
	if hasKey && h.idem != nil {
		_ = h.idem.Record(ctx, uid, orderID, key, msg.ID)
	}
	ok(c, http.StatusCreated, msg)
}
