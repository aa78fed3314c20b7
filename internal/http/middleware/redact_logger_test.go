package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedactingLogger_ScrubsQueryAndHeaders(t *testing.T) {
	logs := captureLogs(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "email=ama@example.com&phone=+254-712-345-6789&ref=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/items/i1?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "sid=opaque")
	req.Header.Set("X-Api-Key", "hush")
	req.Header.Set("X-Note", "contact kwame@example.com or 0712 345 6789")
	req.Header.Set("X-Request-ID", "rid-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	out := logs.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("expected info line: %s", out)
	}
	if !strings.Contains(out, `"path":"/items/:id"`) {
		t.Errorf("path should be the route pattern: %s", out)
	}
	if !strings.Contains(out, `"request_id":"rid-1"`) {
		t.Errorf("request id missing: %s", out)
	}
	for _, marker := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]"} {
		if !strings.Contains(out, marker) {
			t.Errorf("missing %s in: %s", marker, out)
		}
	}
	for _, hdr := range []string{`"Authorization":"[REDACTED]"`, `"Cookie":"[REDACTED]"`, `"X-Api-Key":"[REDACTED]"`} {
		if !strings.Contains(out, hdr) {
			t.Errorf("missing %s in: %s", hdr, out)
		}
	}
	if strings.Contains(out, "ama@example.com") || strings.Contains(out, "kwame@example.com") {
		t.Errorf("raw email leaked: %s", out)
	}
	if strings.Contains(out, "secret-token") || strings.Contains(out, "hush") {
		t.Errorf("masked header value leaked: %s", out)
	}
}

func TestRedactingLogger_LevelFollowsStatus(t *testing.T) {
	logs := captureLogs(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, path := range []string{"/missing", "/broken"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := logs.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("404 should log warn: %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("502 should log error: %s", out)
	}
}

func TestScrub_OrderingKeepsUUIDsWhole(t *testing.T) {
	in := "id 123e4567-e89b-12d3-a456-426614174000 then 555-123-4567"
	got := scrub(in)
	if !strings.Contains(got, "[REDACTED:id]") {
		t.Fatalf("uuid not redacted as id: %q", got)
	}
	if !strings.Contains(got, "[REDACTED:phone]") {
		t.Fatalf("phone not redacted: %q", got)
	}
	if strings.Contains(got, "123e4567") {
		t.Fatalf("uuid fragments leaked: %q", got)
	}
}
