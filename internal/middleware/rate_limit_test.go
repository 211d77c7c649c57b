package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/limiter"
	"github.com/daricheva/streamgate/internal/models"
	"github.com/stretchr/testify/assert"
)

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	return false, 0, errors.New("backend unavailable")
}

func authedRequest(accountID string) *http.Request {
	req := httptest.NewRequest("POST", "/devices/check", nil)
	claims := &models.TokenClaims{Type: "access", AccountID: accountID, Role: "user"}
	ctx := context.WithValue(req.Context(), auth.AccountContextKey, claims)
	return req.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimitByAccount_AllowsWithinLimit(t *testing.T) {
	l := limiter.NewMemory(3, time.Minute)
	handler := RateLimitByAccount(l, "device_check", testLogger())(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("acc-1"))
		assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i+1)
	}
}

func TestRateLimitByAccount_RejectsOverLimit(t *testing.T) {
	l := limiter.NewMemory(2, time.Minute)
	handler := RateLimitByAccount(l, "device_check", testLogger())(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("acc-1"))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("acc-1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitByAccount_KeysAreScopedByAccount(t *testing.T) {
	l := limiter.NewMemory(1, time.Minute)
	handler := RateLimitByAccount(l, "reserve", testLogger())(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("acc-1"))
	assert.Equal(t, http.StatusOK, w.Code)

	// acc-1 has exhausted its window, acc-2 has not
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("acc-1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("acc-2"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitByAccount_FailsOpenOnBackendError(t *testing.T) {
	handler := RateLimitByAccount(failingLimiter{}, "reserve", testLogger())(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("acc-1"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitByAccount_RequiresAuth(t *testing.T) {
	l := limiter.NewMemory(5, time.Minute)
	handler := RateLimitByAccount(l, "reserve", testLogger())(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
