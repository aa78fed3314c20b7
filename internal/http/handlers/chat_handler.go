// Direct chat HTTP handlers.
//
// This file exposes REST endpoints for user-to-user messages outside any
// order or group:
//   - POST /chats            (send a direct message)
//   - GET  /chats/{userId}   (conversation with another user)
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/services"
)

// DirectMessenger defines the direct-chat operations consumed by handlers.
type DirectMessenger interface {
	SendDirectMessage(ctx context.Context, senderID, receiverID, text string) (*domain.DirectMessage, error)
	Conversation(ctx context.Context, userID, otherID string) ([]domain.DirectMessage, error)
}

// ChatHandlers groups the direct-chat endpoints.
type ChatHandlers struct {
	svc DirectMessenger
}

// NewChatHandlers constructs a ChatHandlers bound to the given service.
func NewChatHandlers(svc DirectMessenger) *ChatHandlers {
	return &ChatHandlers{svc: svc}
}

// SendDirectRequest is the JSON payload for sending a direct message.
type SendDirectRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required" format:"uuid"`
	Text       string `json:"text" binding:"required" example:"Hi, I saw your listing"`
}

// Send godoc
// @ID          sendDirectMessage
// @Summary     Send a direct message
// @Description Persists the message, then pushes it to the receiver if connected.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.SendDirectRequest  true  "Message payload"
//
// @Success     201  {object}  domain.DirectMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Receiver not found"
// @Router      /chats [post]
func (h *ChatHandlers) Send(c *gin.Context) {
	var req SendDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.svc.SendDirectMessage(c.Request.Context(), userID(c), req.ReceiverID, req.Text)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, msg)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "receiver not found")
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not send message")
	}
}

// Conversation godoc
// @ID          getConversation
// @Summary     Conversation history
// @Description Returns both directions of the conversation with another user, oldest first.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId  path  string  true  "Other user's ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.DirectMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats/{userId} [get]
func (h *ChatHandlers) Conversation(c *gin.Context) {
	otherID := c.Param("userId")
	if _, err := uuid.Parse(otherID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	msgs, err := h.svc.Conversation(c.Request.Context(), userID(c), otherID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load conversation")
		return
	}
	if msgs == nil {
		msgs = []domain.DirectMessage{}
	}
	ok(c, http.StatusOK, msgs)
}
