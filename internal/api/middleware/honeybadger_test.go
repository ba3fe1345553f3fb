package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHoneybadgerMiddleware_InactiveIsPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(HoneybadgerMiddleware("", "test"))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", w.Code)
	}
	if w.Body.String() != "short and stout" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestHoneybadgerMiddleware_InactivePanicReachesRecovery(t *testing.T) {
	r := gin.New()
	r.Use(gin.Recovery(), HoneybadgerMiddleware("", "test"))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}
