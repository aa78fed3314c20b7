// Access logging with PII scrubbing. Request and response bodies are never
// logged; query strings and header values are passed through pattern-based
// redaction so emails, phone numbers, and UUID-shaped IDs stay out of the
// log stream even when a client puts them somewhere they should not be.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Order matters when scrubbing: UUIDs first, otherwise the loose phone
// pattern eats the digit runs inside them.
var (
	reUUID  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	reEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	rePhone = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func scrub(s string) string {
	if s == "" {
		return s
	}
	s = reUUID.ReplaceAllString(s, "[REDACTED:id]")
	s = reEmail.ReplaceAllString(s, "[REDACTED:email]")
	return rePhone.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactOptions configures extra header masking for RedactingLogger.
// Authorization, Cookie, and Set-Cookie are always masked; MaskHeaders adds
// to that set, case-insensitively.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger is the access logger. Per request it:
//
//   - attaches a request-scoped zerolog.Logger (see LoggerFrom) carrying the
//     correlation ID, user ID, method, and route
//   - after the handler runs, emits one structured line with status, latency,
//     response size, the scrubbed query string, and scrubbed request headers
//   - picks the level from the outcome: error for 5xx or collected Gin
//     errors, warn for 4xx, info otherwise
//
// Mount after RequestID and before Recovery.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		lg := log.With().
			Str("request_id", contextString(c, requestIDKey)).
			Str("user_id", contextString(c, ctxKeyUserID)).
			Str("method", c.Request.Method).
			Str("path", route).
			Logger()
		c.Set(loggerKey, &lg)

		safeQuery := scrub(truncate(c.Request.URL.RawQuery, maxQueryLogBytes))
		safeHeaders := make(map[string]string, len(c.Request.Header))
		for name, vals := range c.Request.Header {
			if _, hide := masked[strings.ToLower(name)]; hide {
				safeHeaders[name] = "[REDACTED]"
				continue
			}
			safeHeaders[name] = scrub(strings.Join(vals, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		ev := lg.Info()
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		}
		ev.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Str("remote_ip", c.ClientIP()).
			Str("query", safeQuery).
			Interface("headers", safeHeaders).
			Msg("request")
	}
}
