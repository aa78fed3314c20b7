package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "body") })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "200"))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/i1", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "200"))
	if after != before+3 {
		t.Fatalf("counter went %v -> %v, want +3", before, after)
	}
	// The route pattern, not the concrete URL, is the label.
	if raw := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/i1", "200")); raw != 0 {
		t.Fatalf("raw URL label should not exist, got %v", raw)
	}
}

func TestMetrics_UnmatchedRouteFallsBackToRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/nowhere", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/nowhere", "404")); got != before+1 {
		t.Fatalf("404 counter = %v, want %v", got, before+1)
	}
	if inflight := testutil.ToFloat64(httpInflight); inflight != 0 {
		t.Fatalf("inflight gauge = %v after completion", inflight)
	}
}
