package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/limiter"
	pkghttp "github.com/daricheva/streamgate/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultEdgeRateLimit returns the default per-IP limit for mutating endpoints
func DefaultEdgeRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Rate limit exceeded"}`))
		}),
	)
}

// RateLimitByAccount creates a middleware that throttles an operation
// per authenticated account using the fixed-window limiter. Keys take
// the form "<operation>:<accountID>". Must be used after AuthMiddleware.
//
// Limiter backend failures fail open: availability problems in the
// limiter store shouldn't block legitimate playback.
func RateLimitByAccount(l limiter.Limiter, operation string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetAccountFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			key := operation + ":" + claims.AccountID

			allowed, retryAfter, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limit check failed",
					slog.String("key", key),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				seconds := int(retryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
				pkghttp.WriteTooManyRequests(w, "Too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
