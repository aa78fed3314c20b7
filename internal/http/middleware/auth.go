// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Token verification is
// delegated to a caller-supplied function so the middleware stays decoupled
// from the signing scheme and its key material.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxKeyUserID is the Gin context key under which the authenticated user's ID
// is stashed. Downstream consumers read it via UserIDFromCtx.
const ctxKeyUserID = "userID"

// TokenVerifier validates a bearer token and returns the subject user ID.
// Implementations return a non-nil error for any token that must be rejected.
type TokenVerifier func(token string) (userID string, err error)

// UserIDFromCtx returns the authenticated user ID set by RequireAuth, or ""
// when the request carries no identity.
func UserIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequireAuth enforces an "Authorization: Bearer <token>" header on every
// request. Valid tokens have their subject stashed in the context; anything
// else aborts with 401 and the standard error envelope.
func RequireAuth(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		userID, err := verify(strings.TrimSpace(raw[len(prefix):]))
		if err != nil || userID == "" {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
