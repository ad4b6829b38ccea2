package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAllowBlocksAfterBurst(t *testing.T) {
	t.Parallel()

	l := NewSimpleTokenBucket(3, 3)
	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("allow() call %d = false, want true within burst", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Error("allow() after burst = true, want false")
	}

	// Other clients have their own bucket.
	if !l.allow("10.0.0.2") {
		t.Error("allow() for a fresh client = false, want true")
	}
}

func TestCapacityDefaultsToRate(t *testing.T) {
	t.Parallel()

	l := NewSimpleTokenBucket(0, 2)
	if !l.allow("a") || !l.allow("a") {
		t.Fatal("allow() within default capacity = false, want true")
	}
	if l.allow("a") {
		t.Error("allow() past default capacity = true, want false")
	}
}

func TestGinMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewSimpleTokenBucket(2, 2).GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("request %d status = %d, want %d", i+1, w.Code, want)
		}
	}
}
