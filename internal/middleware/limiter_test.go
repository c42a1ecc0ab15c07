package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	t.Run("AllowsWithinBurst", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/notify/payment", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ThrottlesBeyondBurst", func(t *testing.T) {
		var last int
		for i := 0; i < burstStrict+5; i++ {
			req := httptest.NewRequest("POST", "/notify/payment", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			last = w.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("SeparateBucketsPerIP", func(t *testing.T) {
		for i := 0; i < burstStrict+5; i++ {
			req := httptest.NewRequest("POST", "/notify/payment", nil)
			req.RemoteAddr = "10.0.0.3:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
		}

		req := httptest.NewRequest("POST", "/notify/payment", nil)
		req.RemoteAddr = "10.0.0.4:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GeneralTierForOtherRoutes", func(t *testing.T) {
		limit, _, tier := resolveRateTier(httptest.NewRequest("GET", "/healthz", nil))
		assert.Equal(t, limitGeneral, limit)
		assert.Equal(t, "general", tier)
	})
}
