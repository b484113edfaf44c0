package server

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vaso991/echo-schema-swagger/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SkipPaths are route paths that are never logged (health checks, docs).
	SkipPaths []string

	// SlowRequestThreshold marks requests slower than this with result_code=WARN.
	// Zero disables slow request detection.
	SlowRequestThreshold time.Duration
}

// Logger returns a request logging middleware with a one second slow
// request threshold.
func Logger(log logger.Logger, skipPaths ...string) echo.MiddlewareFunc {
	return LoggerWithConfig(log, LoggerConfig{
		SkipPaths:            skipPaths,
		SlowRequestThreshold: time.Second,
	})
}

// LoggerWithConfig returns a middleware that emits one summary entry per
// request, using OpenTelemetry HTTP attribute names. 5xx responses log at
// error, 4xx at warn, everything else at info.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if _, ok := skip[path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}
			logActionSummary(c, log, cfg, time.Since(start), c.Response().Status, err)
			return nil
		}
	}
}

func logActionSummary(
	c echo.Context,
	log logger.Logger,
	cfg LoggerConfig,
	latency time.Duration,
	status int,
	err error,
) {
	logLevel, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)
	event := createLogEvent(log.WithContext(c.Request().Context()), logLevel)
	if err != nil {
		event = event.Err(err)
	}

	req := c.Request()
	event.
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("http.request.method", req.Method).
		Int("http.response.status_code", status).
		Dur("http.server.request.duration", latency).
		Str("url.path", req.URL.Path).
		Str("http.route", c.Path()).
		Str("client.address", c.RealIP()).
		Str("user_agent.original", req.UserAgent()).
		Str("result_code", resultCode).
		Msg(createActionMessage(req.Method, req.URL.Path, latency, status))
}

// determineSeverity returns the log level and result code for a request.
func determineSeverity(
	status int,
	latency, threshold time.Duration,
	err error,
) (logLevel, resultCode string) {
	const (
		levelError = "error"
		levelWarn  = "warn"
		levelInfo  = "info"
		codeError  = "ERROR"
		codeWarn   = "WARN"
		codeInfo   = "INFO"
	)

	if status >= 500 || (err != nil && status == 0) {
		return levelError, codeError
	}
	if status >= 400 {
		return levelWarn, codeWarn
	}
	// Slow requests keep the info level but are flagged for filtering.
	if threshold > 0 && latency > threshold {
		return levelInfo, codeWarn
	}
	return levelInfo, codeInfo
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "GET /pets completed in 1.2ms with status 2xx".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return fmt.Sprintf("%s %s completed in %s with status %dxx", method, path, latency, status/100)
}
