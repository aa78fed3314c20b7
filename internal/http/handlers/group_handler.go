// Group HTTP handlers.
//
// This file exposes REST endpoints for community group rooms:
//   - POST /groups                 (create; the creator becomes a member)
//   - GET  /groups                 (list all)
//   - GET  /groups/{id}            (fetch one with members)
//   - POST /groups/{id}/join       (join)
//   - POST /groups/{id}/leave      (leave)
//   - GET  /groups/{id}/messages   (room history)
//   - POST /groups/{id}/messages   (append a message; broadcast to the room)
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

// GroupService defines the group operations consumed by HTTP handlers.
type GroupService interface {
	Create(ctx context.Context, creatorID string, in services.GroupInput) (*domain.Group, error)
	Get(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	Join(ctx context.Context, groupID, userID string) error
	Leave(ctx context.Context, groupID, userID string) error
	Messages(ctx context.Context, groupID string) ([]domain.GroupMessage, error)
}

// GroupMessenger appends a message to a group room and broadcasts it to the
// connected members.
type GroupMessenger interface {
	SendGroupMessage(ctx context.Context, groupID, senderID, text string) (*domain.GroupMessage, error)
}

// GroupHandlers groups the community room endpoints.
type GroupHandlers struct {
	svc       GroupService
	messenger GroupMessenger
}

// NewGroupHandlers constructs a GroupHandlers bound to the given services.
func NewGroupHandlers(svc GroupService, messenger GroupMessenger) *GroupHandlers {
	return &GroupHandlers{svc: svc, messenger: messenger}
}

//
// DTOs
//

// CreateGroupRequest is the JSON payload for creating a group.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required" example:"Lagos electronics"`
	Description string `json:"description" example:"Buy and sell electronics around Lagos"`
	Category    string `json:"category" example:"Electronics"`
	Location    string `json:"location" example:"Lagos"`
	CoverImage  string `json:"coverImage" example:"/static/uploads/covers/lagos.png"`
}

//
// Handlers
//

// Create godoc
// @ID          createGroup
// @Summary     Create a group
// @Description Creates a group room; the current user becomes its first member.
// @Tags        Groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateGroupRequest  true  "Group payload"
//
// @Success     201  {object}  domain.Group
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /groups [post]
func (h *GroupHandlers) Create(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	g, err := h.svc.Create(c.Request.Context(), userID(c), services.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		CoverImage:  req.CoverImage,
	})
	switch {
	case err == nil:
		ok(c, http.StatusCreated, g)
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not create group")
	}
}

// List godoc
// @ID          listGroups
// @Summary     List groups
// @Tags        Groups
// @Produce     json
//
// @Success     200  {array}   domain.Group
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /groups [get]
func (h *GroupHandlers) List(c *gin.Context) {
	groups, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list groups")
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	ok(c, http.StatusOK, groups)
}

// Get godoc
// @ID          getGroup
// @Summary     Fetch a group
// @Tags        Groups
// @Produce     json
//
// @Param       id  path  string  true  "Group ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Group
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Router      /groups/{id} [get]
func (h *GroupHandlers) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "group id must be a UUID")
		return
	}

	g, err := h.svc.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, g)
	case errors.Is(err, services.ErrGroupNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "group not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load group")
	}
}

// Join godoc
// @ID          joinGroup
// @Summary     Join a group
// @Description Adds the current user to the group. Joining twice is a no-op.
// @Tags        Groups
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Group ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Router      /groups/{id}/join [post]
func (h *GroupHandlers) Join(c *gin.Context) {
	h.membership(c, h.svc.Join)
}

// Leave godoc
// @ID          leaveGroup
// @Summary     Leave a group
// @Description Removes the current user from the group. Leaving a group you are not in is a no-op.
// @Tags        Groups
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Group ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Router      /groups/{id}/leave [post]
func (h *GroupHandlers) Leave(c *gin.Context) {
	h.membership(c, h.svc.Leave)
}

// membership runs one of Join/Leave with shared validation and error mapping.
func (h *GroupHandlers) membership(c *gin.Context, op func(ctx context.Context, groupID, userID string) error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "group id must be a UUID")
		return
	}

	err := op(c.Request.Context(), id, userID(c))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrGroupNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "group not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update membership")
	}
}

// Messages godoc
// @ID          listGroupMessages
// @Summary     Group room history
// @Description Returns the group's messages oldest first.
// @Tags        Groups
// @Produce     json
//
// @Param       id  path  string  true  "Group ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.GroupMessage
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Router      /groups/{id}/messages [get]
func (h *GroupHandlers) Messages(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "group id must be a UUID")
		return
	}

	msgs, err := h.svc.Messages(c.Request.Context(), id)
	switch {
	case err == nil:
		if msgs == nil {
			msgs = []domain.GroupMessage{}
		}
		ok(c, http.StatusOK, msgs)
	case errors.Is(err, services.ErrGroupNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "group not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load messages")
	}
}

// SendMessage godoc
// @ID          sendGroupMessage
// @Summary     Append a room message
// @Description Persists the message, then broadcasts it to connected room members.
// @Tags        Groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                       true  "Group ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SendMessageRequest  true  "Message payload"
//
// @Success     201  {object}  domain.GroupMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Router      /groups/{id}/messages [post]
func (h *GroupHandlers) SendMessage(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "group id must be a UUID")
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.messenger.SendGroupMessage(c.Request.Context(), id, userID(c), req.Text)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, msg)
	case errors.Is(err, services.ErrGroupNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "group not found")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "sender not found")
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not send message")
	}
}
