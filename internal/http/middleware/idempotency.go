// Idempotency-Key handling for unsafe methods. The middleware validates the
// header, stashes the key for handlers, and flags detected replays so the
// rate limiter lets them through without spending tokens. It never serves a
// cached payload itself; the handler that owns the resource decides what a
// replay response looks like.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying a client-chosen retry
// key. A client reuses the same value when it retries one semantic operation.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator
// and whether one was present. Handlers read the key through here, not from
// the header.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a still-valid completed request
// for this key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions tunes header validation. MaxLen <= 0 means 200. A nil
// Pattern falls back to a token-ish charset: letters, digits, ._~-:
// TTL is the lookup's concern, not the validator's.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a completed, unexpired result exists for
// (userID, scope, key) at now. Scope pins the key to one resource, here the
// :id route parameter of the order or group being posted to. Lookup errors
// must not block the request; return exists=false instead.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator rejects malformed keys with a 400, stashes valid ones,
// and consults lookup for authenticated requests. On a hit it sets the replay
// and rate-bypass flags and continues; requests without the header pass
// through untouched. Anonymous requests skip the lookup, since a key tuple
// without a user identifies nothing.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if uid := UserIDFromCtx(c); uid != "" {
				scope := c.Param("id")
				if exists, _ := lookup(c.Request.Context(), uid, scope, key, time.Now().UTC()); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
