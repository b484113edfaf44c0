// Package server wires Echo with route registration, request validation
// layers and the error envelope used by the petstore service.
package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vaso991/echo-schema-swagger/config"
	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/schema"
)

// Server is an Echo instance plus the route registry and validation
// settings shared by every registrar it hands out.
type Server struct {
	echo       *echo.Echo
	cfg        *config.Config
	logger     logger.Logger
	registry   *RouteRegistry
	settings   *ValidationSettings
	validator  *RequestValidator
	basePath   string
	healthPath string
}

// normalizeRoutePath ensures a route path starts with "/" and handles empty paths.
func normalizeRoutePath(route, defaultRoute string) string {
	if route == "" {
		route = defaultRoute
	}
	return ensureLeadingSlash(route)
}

// New creates a server with middlewares, the error handler and the health
// endpoint. The configured assignment policy becomes the validation default.
func New(cfg *config.Config, log logger.Logger) (*Server, error) {
	policy, err := ParseAssignPolicy(cfg.Validation.Assign)
	if err != nil {
		return nil, fmt.Errorf("invalid validation.assign: %w", err)
	}
	settings := NewValidationSettings()
	settings.SetAssign(policy)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, log)
	}

	s := &Server{
		echo:       e,
		cfg:        cfg,
		logger:     log,
		registry:   NewRouteRegistry(),
		settings:   settings,
		validator:  NewRequestValidator(settings, log),
		basePath:   normalizePrefix(cfg.Server.Path.Base),
		healthPath: normalizeRoutePath(cfg.Server.Path.Health, "/health"),
	}

	SetupMiddlewares(e, log, cfg, s.basePath+s.healthPath)
	e.GET(s.basePath+s.healthPath, s.healthCheck)

	log.Debug().
		Str("base_path", s.basePath).
		Str("health_path", s.basePath+s.healthPath).
		Str("assign", policy.String()).
		Msg("Server configured")

	return s, nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Registrar returns a registrar rooted at the configured base path.
func (s *Server) Registrar() RouteRegistrar {
	return newRouteGroup(s.echo.Group(s.basePath), s.basePath, s.registry)
}

// Routes returns the registry of every route added through Registrar.
func (s *Server) Routes() *RouteRegistry {
	return s.registry
}

// Validator returns the request validator bound to the server settings.
func (s *Server) Validator() *RequestValidator {
	return s.validator
}

// Settings returns the process-wide validation settings.
func (s *Server) Settings() *ValidationSettings {
	return s.settings
}

// Start begins accepting requests and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Int("routes", s.registry.Count()).
		Msg("Starting server...")

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.cfg.Server.Timeout.Read,
		WriteTimeout: s.cfg.Server.Timeout.Write,
		IdleTimeout:  s.cfg.Server.Timeout.Idle,
	}

	err := s.echo.StartServer(server)
	if goerrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown waits for in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func customErrorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	var respErr *ResponseValidationError
	if goerrors.As(err, &respErr) {
		log.WithContext(c.Request().Context()).Error().
			Err(err).
			Str("http.route", respErr.Route).
			Interface("issues", respErr.Issues).
			Msg("Response validation failed")
		_ = formatErrorResponse(c, respErr, cfg)
		return
	}

	var apiErr IAPIError
	if goerrors.As(err, &apiErr) {
		_ = formatErrorResponse(c, apiErr, cfg)
		return
	}

	var ve *schema.ValidationError
	if goerrors.As(err, &ve) {
		base := NewBaseAPIError("BAD_REQUEST", "Validation failed", http.StatusBadRequest).
			WithDetails("issues", ve.Issues)
		_ = formatErrorResponse(c, base, cfg)
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}

	// Hide internal details for 500s unless debugging.
	if !cfg.App.Debug && status == http.StatusInternalServerError {
		msg = "An error occurred while processing your request"
	}
	if status >= http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error")
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if isDevelopmentEnv(cfg.App.Env) {
		_ = base.WithDetails("error", err.Error())
	}
	_ = formatErrorResponse(c, base, cfg)
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
	}
	return "INTERNAL_ERROR"
}
