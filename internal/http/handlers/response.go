// Package handlers implements the public REST endpoints. Handlers stay
// transport-thin: bind, call a service, map the result onto the shared
// response shapes below.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afrimart/marketplace-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope every endpoint returns on failure.
// Code is machine-readable and stable (see errors.go); Message is safe to
// show to users; RequestID echoes X-Request-ID so a client report can be
// matched to server logs.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"resource not found"`
}

// fail writes the error envelope with the given status and aborts the chain.
// Statuses of 500 and up are additionally logged through the request-scoped
// logger; client errors are the caller's problem and stay out of the logs.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail exposes fail to the router for NoRoute/NoMethod handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
