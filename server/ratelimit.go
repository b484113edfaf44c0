package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	// BurstMultiplier derives the burst when none is configured.
	BurstMultiplier  = 2
	RateLimitCleanup = time.Minute * 3
)

// RateLimit returns a per-client-IP rate limiting middleware. A limit of
// zero or less disables limiting; a burst of zero or less uses
// limit*BurstMultiplier.
func RateLimit(requestsPerSecond, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	if burst <= 0 {
		burst = requestsPerSecond * BurstMultiplier
	}

	config := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     burst,
				ExpiresIn: RateLimitCleanup,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return rateLimitResponse(context, "Rate limit exceeded")
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return rateLimitResponse(context, "Too many requests")
		},
	}

	return middleware.RateLimiterWithConfig(config)
}

func rateLimitResponse(c echo.Context, message string) error {
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{
			"message":    message,
			"status":     http.StatusTooManyRequests,
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		},
	})
}
