// Hardening headers for a JSON API behind a reverse proxy. No CSP here; that
// only matters when serving HTML.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders. HSTS is opt-in and must only be
// enabled when traffic is HTTPS end-to-end, proxy hop included; it is never
// emitted on a plain-HTTP request regardless of the flag. NoStore marks
// responses uncacheable for routes serving sensitive data. EnablePolicy adds
// the browser feature-policy headers, which non-browser clients ignore.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders sets a conservative header baseline on every response:
// nosniff, frame denial, and no referrer leakage, plus the optional groups
// described on SecurityOptions. When a correlation ID is already on the
// response it is added to Access-Control-Expose-Headers so browser clients
// can read it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	hstsValue := hstsHeader(opt.HSTSMaxAge)

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && requestIsHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// hstsHeader renders the Strict-Transport-Security value once. A zero or
// negative max-age falls back to 180 days.
func hstsHeader(maxAge time.Duration) string {
	secs := int(maxAge.Seconds())
	if secs <= 0 {
		secs = int((180 * 24 * time.Hour).Seconds())
	}
	return "max-age=" + strconv.Itoa(secs) + "; includeSubDomains; preload"
}

// requestIsHTTPS detects TLS either on the socket or via the proxy's
// X-Forwarded-Proto header.
func requestIsHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// exposeHeader appends name to Access-Control-Expose-Headers without
// clobbering values some other middleware already put there.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}
