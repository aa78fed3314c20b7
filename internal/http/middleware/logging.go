// Package middleware contains the shared Gin middleware for the HTTP layer:
// correlation IDs, access logging with PII scrubbing, panic recovery, metrics,
// rate limiting, idempotency keys, security headers, and bearer auth.
//
// Chain order matters: RequestID first so every later stage can tag its output,
// then the access logger, then Recovery so panics are logged with request
// context before the connection is answered.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key holding the correlation ID.
	requestIDKey = "requestID"
	// requestIDHeader carries the correlation ID on the wire, both directions.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key holding the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogBytes caps how much of a raw query string ends up in a log line.
	maxQueryLogBytes = 2048
)

// RequestID reuses the client's X-Request-ID when present, otherwise mints a
// UUIDv4, and makes the value available both in the Gin context and on the
// response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Recovery turns a handler panic into a JSON 500 carrying the correlation ID,
// after logging the panic value and stack. When the handler already wrote a
// partial response only the status can be set.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := contextString(c, requestIDKey)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header("Content-Type", "application/json")
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by the access logger.
// Outside a request chain (or in tests that skip the logger middleware) it
// falls back to the global logger, so callers never need a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	lg := log.Logger
	return &lg
}

// contextString reads a Gin context value as a string, "" when absent or not
// a string.
func contextString(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// truncate caps s at max bytes, marking the cut with an ellipsis. max <= 0
// means no cap. Byte-based slicing can split a rune, which is acceptable for
// log output.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
