// Account HTTP handlers.
//
// This file exposes REST endpoints for user accounts:
//   - POST /users/register        (create an account)
//   - POST /users/login           (exchange credentials for a bearer token)
//   - GET  /users/me              (current profile)
//   - POST /users/me/avatar       (upload a profile image)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/services"
	"github.com/afrimart/marketplace-backend/internal/storage"
)

// AccountService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountService interface {
	// Register creates an account and returns the stored user.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	// Login verifies credentials and returns the user plus a signed token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// Profile returns the user for id.
	Profile(ctx context.Context, userID string) (*domain.User, error)
	// UpdateAvatar replaces the stored avatar URL for userID.
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
}

// UserHandlers groups the account endpoints.
type UserHandlers struct {
	svc     AccountService
	uploads *storage.UploadStore
}

// NewUserHandlers constructs a UserHandlers bound to the given service and
// upload store. The store may be nil when avatar uploads are disabled.
func NewUserHandlers(svc AccountService, uploads *storage.UploadStore) *UserHandlers {
	return &UserHandlers{svc: svc, uploads: uploads}
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"Amina Diallo"`
	Email    string `json:"email" binding:"required" example:"amina@example.com"`
	Password string `json:"password" binding:"required" example:"correct-horse-battery"`
}

// LoginRequest is the JSON payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"amina@example.com"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the authenticated user and their bearer token.
type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// AvatarResponse echoes the public URL of a freshly uploaded avatar.
type AvatarResponse struct {
	Avatar string `json:"avatar" example:"/static/uploads/9ae31f2c.png"`
}

//
// Handlers
//

// Register godoc
// @ID          registerUser
// @Summary     Create an account
// @Description Registers a new user and returns the stored profile.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/register [post]
func (h *UserHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, u)
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not create account")
	}
}

// Login godoc
// @ID          loginUser
// @Summary     Log in
// @Description Verifies credentials and returns the user with a bearer token.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/login [post]
func (h *UserHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		ok(c, http.StatusOK, LoginResponse{User: u, Token: token})
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not log in")
	}
}

// Me godoc
// @ID          currentUser
// @Summary     Current profile
// @Description Returns the profile of the authenticated user.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/me [get]
func (h *UserHandlers) Me(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), userID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, u)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load profile")
	}
}

// UploadAvatar godoc
// @ID          uploadAvatar
// @Summary     Upload a profile image
// @Description Stores the uploaded image and sets it as the user's avatar.
// @Tags        Users
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
//
// @Param       avatar  formData  file  true  "Image file (png, jpeg, gif, webp, svg)"
//
// @Success     200  {object}  handlers.AvatarResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413  {object}  handlers.ErrorResponse  "File too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/me/avatar [post]
func (h *UserHandlers) UploadAvatar(c *gin.Context) {
	if h.uploads == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "uploads are disabled")
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "avatar file required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read upload")
		return
	}
	defer f.Close()

	url, err := h.saveAvatar(f)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrUnsupportedType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "only image uploads are accepted")
		return
	case errors.Is(err, storage.ErrTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file exceeds the size limit")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not store upload")
		return
	}

	if err := h.svc.UpdateAvatar(c.Request.Context(), userID(c), url); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update avatar")
		return
	}
	ok(c, http.StatusOK, AvatarResponse{Avatar: url})
}

func (h *UserHandlers) saveAvatar(r io.Reader) (string, error) {
	return h.uploads.Save(r)
}
