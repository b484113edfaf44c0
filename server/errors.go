package server

import (
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaso991/echo-schema-swagger/config"
	"github.com/vaso991/echo-schema-swagger/schema"
)

// IAPIError is an error that knows how it should be rendered.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// APIResponse is the envelope used for error responses.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse is the error portion of an APIResponse.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// BaseAPIError provides a basic implementation of IAPIError.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

// NewBaseAPIError creates a new base API error.
func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

// ErrorCode returns the error code.
func (e *BaseAPIError) ErrorCode() string {
	return e.code
}

// Message returns the error message.
func (e *BaseAPIError) Message() string {
	return e.message
}

// HTTPStatus returns the HTTP status code.
func (e *BaseAPIError) HTTPStatus() int {
	return e.httpStatus
}

// Details returns a copy of the error details.
func (e *BaseAPIError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	cp := make(map[string]any, len(e.details))
	maps.Copy(cp, e.details)
	return cp
}

// WithDetails adds a detail entry.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

// NotFoundError represents resource not found errors.
type NotFoundError struct {
	*BaseAPIError
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseAPIError: NewBaseAPIError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound),
	}
}

// ConflictError represents resource conflict errors.
type ConflictError struct {
	*BaseAPIError
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{
		BaseAPIError: NewBaseAPIError("CONFLICT", message, http.StatusConflict),
	}
}

// BadRequestError represents bad request errors.
type BadRequestError struct {
	*BaseAPIError
}

// NewBadRequestError creates a new bad request error.
func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{
		BaseAPIError: NewBaseAPIError("BAD_REQUEST", message, http.StatusBadRequest),
	}
}

// InternalServerError represents internal server errors.
type InternalServerError struct {
	*BaseAPIError
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(message string) *InternalServerError {
	if message == "" {
		message = "An internal error occurred"
	}
	return &InternalServerError{
		BaseAPIError: NewBaseAPIError("INTERNAL_ERROR", message, http.StatusInternalServerError),
	}
}

// ResponseValidationError is returned by the validation layer when a handler
// produced a body that does not match its response contract. The buffered
// response is discarded and the error handler answers 500.
type ResponseValidationError struct {
	Method string
	Route  string
	Issues []schema.Issue
	Err    error
}

func (e *ResponseValidationError) Error() string {
	return fmt.Sprintf("response validation failed for %s %s: %v", e.Method, e.Route, e.Err)
}

func (e *ResponseValidationError) Unwrap() error {
	return e.Err
}

// ErrorCode implements IAPIError.
func (e *ResponseValidationError) ErrorCode() string { return "RESPONSE_VALIDATION_FAILED" }

// Message implements IAPIError.
func (e *ResponseValidationError) Message() string { return "Response does not match its contract" }

// HTTPStatus implements IAPIError.
func (e *ResponseValidationError) HTTPStatus() int { return http.StatusInternalServerError }

// Details implements IAPIError.
func (e *ResponseValidationError) Details() map[string]any {
	return map[string]any{
		"route":  e.Method + " " + e.Route,
		"issues": e.Issues,
	}
}

func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}

	if isDevelopmentEnv(cfg.App.Env) {
		if details := apiErr.Details(); len(details) > 0 {
			errorResp.Details = details
		}
	}

	response := APIResponse{
		Error: errorResp,
		Meta: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"traceId":   getTraceID(c),
		},
	}
	return c.JSON(apiErr.HTTPStatus(), response)
}

// getTraceID returns the request ID, generating one when absent.
func getTraceID(c echo.Context) string {
	if requestID := c.Request().Header.Get(echo.HeaderXRequestID); requestID != "" {
		return requestID
	}
	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		return requestID
	}
	newID := uuid.New().String()
	c.Response().Header().Set(echo.HeaderXRequestID, newID)
	return newID
}

func isDevelopmentEnv(env string) bool {
	return env == config.EnvDevelopment || env == "dev"
}

var (
	_ IAPIError = (*BaseAPIError)(nil)
	_ IAPIError = (*ResponseValidationError)(nil)
)
