package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func idempotentRouter(store IdempotencyStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyMiddleware(store))
	r.POST("/v1/orders", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"uid": "0xabc", "call": *calls})
	})
	r.POST("/v1/fail", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusBadGateway, gin.H{"error": "rejected"})
	})
	r.POST("/v1/boom", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	})
	return r
}

func doPost(r *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplay(t *testing.T) {
	calls := 0
	r := idempotentRouter(NewInMemIdempotencyStore(), &calls)

	first := doPost(r, "/v1/orders", "key-1")
	second := doPost(r, "/v1/orders", "key-1")

	if calls != 1 {
		t.Fatalf("handler invoked %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
	if second.Code != http.StatusOK {
		t.Fatalf("replay status %d, want 200", second.Code)
	}
}

func TestIdempotencyNoHeaderPassesThrough(t *testing.T) {
	calls := 0
	r := idempotentRouter(NewInMemIdempotencyStore(), &calls)

	doPost(r, "/v1/orders", "")
	doPost(r, "/v1/orders", "")

	if calls != 2 {
		t.Fatalf("handler invoked %d times, want 2", calls)
	}
}

func TestIdempotencyCachesRejectionVerdicts(t *testing.T) {
	calls := 0
	r := idempotentRouter(NewInMemIdempotencyStore(), &calls)

	doPost(r, "/v1/fail", "key-2")
	w := doPost(r, "/v1/fail", "key-2")

	// A 502 verdict is final for this key; the order reached the order
	// book, so retrying must not resubmit
	if calls != 1 {
		t.Fatalf("handler invoked %d times, want 1", calls)
	}
	if w.Code != http.StatusBadGateway {
		t.Fatalf("replay status %d, want 502", w.Code)
	}
}

func TestIdempotencyUnlocksOnInternalError(t *testing.T) {
	calls := 0
	r := idempotentRouter(NewInMemIdempotencyStore(), &calls)

	doPost(r, "/v1/boom", "key-4")
	doPost(r, "/v1/boom", "key-4")

	// A 500 never reached a verdict; the key is freed for retry
	if calls != 2 {
		t.Fatalf("handler invoked %d times, want 2", calls)
	}
}

func TestIdempotencyConcurrentLock(t *testing.T) {
	store := NewInMemIdempotencyStore()

	rec, hit := store.GetOrLock("key-3")
	if hit || rec != nil {
		t.Fatalf("first caller should acquire the lock")
	}
	rec, hit = store.GetOrLock("key-3")
	if !hit || !rec.Processing {
		t.Fatalf("second caller should see the in-flight lock")
	}

	store.Unlock("key-3")
	_, hit = store.GetOrLock("key-3")
	if hit {
		t.Fatalf("unlocked key should be free again")
	}
}
