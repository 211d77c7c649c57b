package routes

import (
	"log/slog"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/handlers"
	"github.com/daricheva/streamgate/internal/limiter"
	"github.com/daricheva/streamgate/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	deviceHandler *handlers.DeviceHandler,
	streamHandler *handlers.StreamHandler,
	tokenManager *auth.TokenManager,
	accountLimiter limiter.Limiter,
	logger *slog.Logger,
) {
	edgeLimit := middleware.DefaultEdgeRateLimit()

	// All device and stream operations require authentication
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		// Admission and reservation are the sensitive paths: per-IP edge
		// limit stacked with the per-account fixed-window limiter
		r.With(
			middleware.RateLimitByIP(edgeLimit),
			middleware.RateLimitByAccount(accountLimiter, "device_check", logger),
		).Post("/devices/check", deviceHandler.CheckDevice)

		r.With(
			middleware.RateLimitByIP(edgeLimit),
			middleware.RateLimitByAccount(accountLimiter, "reserve", logger),
		).Post("/stream", streamHandler.Reserve)

		r.Get("/devices", deviceHandler.ListDevices)
		r.Delete("/devices/{deviceID}", deviceHandler.RemoveDevice)

		r.Get("/stream", streamHandler.Holder)
		r.Delete("/stream", streamHandler.Release)
		r.Patch("/stream/heartbeat", streamHandler.Heartbeat)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole("admin"))
			r.Post("/admin/devices/block", deviceHandler.BlockDevice)
		})
	})
}
