package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestCORSPreflight verifies the preflight response advertises only the
// methods the hub routes actually serve
func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use((&Server{}).corsMiddleware())
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	methods := w.Header().Get("Access-Control-Allow-Methods")
	if strings.Contains(methods, "DELETE") {
		t.Errorf("preflight advertises DELETE, which no route serves: %q", methods)
	}
	for _, m := range []string{"GET", "POST", "PUT"} {
		if !strings.Contains(methods, m) {
			t.Errorf("preflight missing %s: %q", m, methods)
		}
	}

	// Ordinary requests pass through with the origin header attached
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("GET response missing the CORS origin header")
	}
}
