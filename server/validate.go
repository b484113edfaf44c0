package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"

	"github.com/go-viper/mapstructure/v2"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/schema"
)

const (
	validationFailedBody = `{"message":"validation failed"}`
	meterName            = "github.com/vaso991/echo-schema-swagger/server"

	requestFailuresMetric  = "validation.request.failures"
	responseFailuresMetric = "validation.response.failures"
)

// RequestValidator builds validation layers for routes.
type RequestValidator struct {
	settings *ValidationSettings
	logger   logger.Logger
	metrics  validationMetrics
}

type validationMetrics struct {
	requestFailures  metric.Int64Counter
	responseFailures metric.Int64Counter
}

// NewRequestValidator creates a validator reading defaults from settings.
// A nil settings value uses a fresh, unset instance. Failure counters come
// from the global meter provider.
func NewRequestValidator(settings *ValidationSettings, log logger.Logger) *RequestValidator {
	if settings == nil {
		settings = NewValidationSettings()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RequestValidator{settings: settings, logger: log, metrics: newValidationMetrics(log)}
}

func newValidationMetrics(log logger.Logger) validationMetrics {
	meter := otel.Meter(meterName)
	fallback := metricnoop.Meter{}

	requests, err := meter.Int64Counter(requestFailuresMetric,
		metric.WithDescription("Requests rejected by validation"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		log.Warn().Err(err).Str("metric", requestFailuresMetric).Msg("Failed to create counter")
		requests, _ = fallback.Int64Counter(requestFailuresMetric)
	}
	responses, err := meter.Int64Counter(responseFailuresMetric,
		metric.WithDescription("Responses that broke their declared contract"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		log.Warn().Err(err).Str("metric", responseFailuresMetric).Msg("Failed to create counter")
		responses, _ = fallback.Int64Counter(responseFailuresMetric)
	}
	return validationMetrics{requestFailures: requests, responseFailures: responses}
}

// Settings returns the settings the validator reads per request.
func (v *RequestValidator) Settings() *ValidationSettings {
	return v.settings
}

// Validate returns a layer that checks query, params, header, body and files
// in that order before calling the next handler. The first failing part
// answers 400 with the issue list and the handler does not run. The layer is
// annotated with props so document generation can find them.
func (v *RequestValidator) Validate(props *ValidatorProps) Layer {
	if props == nil {
		props = &ValidatorProps{}
	}
	return Layer{Name: "validator", Middleware: v.middleware(props)}.Annotate(ValidatorPropsKey, props)
}

type requestPart struct {
	target  string
	schema  schema.Schema
	present bool
	value   func() any
	assign  func(any)
}

func (v *RequestValidator) middleware(props *ValidatorProps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			policy := props.Assign
			if !policy.IsSet() {
				policy = v.settings.Assign()
			}

			data := GetRequestData(c)
			parts := []requestPart{
				{TargetQuery, props.Query, true, func() any { return data.Query }, func(out any) { mergeInto(data.Query, out) }},
				{TargetParams, props.Params, true, func() any { return data.Params }, func(out any) { data.Params = out }},
				{TargetHeader, props.Header, true, func() any { return data.Header }, func(out any) { mergeInto(data.Header, out) }},
				{TargetBody, props.Body, data.HasBody, func() any { return data.Body }, func(out any) { data.Body = out }},
				{TargetFiles, props.FilesValidator, data.HasFiles, func() any { return data.Files }, func(out any) { data.Files = out }},
			}
			for _, part := range parts {
				if part.schema == nil {
					continue
				}
				if part.target == TargetBody && data.bodyErr != nil {
					return v.reject(c, TargetBody, &schema.ValidationError{Issues: []schema.Issue{{
						Code:    schema.CodeInvalidType,
						Path:    []string{},
						Message: data.bodyErr.Error(),
					}}})
				}
				if !part.present {
					continue
				}
				out, err := part.schema.Validate(ctx, part.value())
				if err != nil {
					var ve *schema.ValidationError
					if errors.As(err, &ve) {
						return v.reject(c, part.target, ve)
					}
					return err
				}
				if policy.Has(part.target) {
					part.assign(out)
				}
			}

			if props.Response == nil || !props.Response.Validate || props.Response.Body == nil {
				return next(c)
			}
			return v.validateResponse(c, next, props.Response.Body)
		}
	}
}

// reject answers 400 with the JSON issue list.
func (v *RequestValidator) reject(c echo.Context, target string, ve *schema.ValidationError) error {
	ctx := c.Request().Context()
	issues := ve.Issues
	if issues == nil {
		issues = []schema.Issue{}
	}

	v.logger.WithContext(ctx).Debug().
		Str("location", target).
		Str("http.request.method", c.Request().Method).
		Str("http.route", c.Path()).
		Int("issues", len(issues)).
		Interface("details", issues).
		Msg("Request validation failed")
	recordFailure(ctx, "validation.request_failed", target, len(issues))
	v.metrics.requestFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("validation.location", target),
		attribute.String("http.route", c.Path()),
		attribute.String("http.request.method", c.Request().Method),
	))

	body, err := json.Marshal(issues)
	if err != nil {
		body = []byte(validationFailedBody)
	}
	return c.JSONBlob(http.StatusBadRequest, body)
}

func (v *RequestValidator) validateResponse(c echo.Context, next echo.HandlerFunc, body schema.Schema) error {
	resp := c.Response()
	original := resp.Writer
	capture := &capturingWriter{ResponseWriter: original}
	resp.Writer = capture

	err := next(c)
	resp.Writer = original
	if err != nil {
		capture.flush()
		return err
	}

	var payload any
	if capture.buf.Len() > 0 {
		if jsonErr := json.Unmarshal(capture.buf.Bytes(), &payload); jsonErr != nil {
			payload = capture.buf.String()
		}
	}

	ctx := c.Request().Context()
	if _, verr := body.Validate(ctx, payload); verr != nil {
		var ve *schema.ValidationError
		if !errors.As(verr, &ve) {
			return verr
		}
		resp.Committed = false
		resp.Size = 0
		resp.Status = http.StatusOK
		recordFailure(ctx, "validation.response_failed", "response", len(ve.Issues))
		v.metrics.responseFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("http.route", c.Path()),
			attribute.String("http.request.method", c.Request().Method),
		))
		return &ResponseValidationError{
			Method: c.Request().Method,
			Route:  c.Path(),
			Issues: ve.Issues,
			Err:    ve,
		}
	}

	capture.flush()
	return nil
}

func recordFailure(ctx context.Context, name, target string, issues int) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(
		attribute.String("validation.location", target),
		attribute.Int("validation.issues", issues),
	))
}

// mergeInto copies the parsed fields into dst, keeping dst's identity.
// Non-map outputs are decoded through their json tags first.
func mergeInto(dst map[string]any, out any) {
	if dst == nil || out == nil {
		return
	}
	if m, ok := out.(map[string]any); ok {
		maps.Copy(dst, m)
		return
	}

	var decoded map[string]any
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &decoded,
	})
	if err != nil {
		return
	}
	if err := decoder.Decode(out); err != nil {
		return
	}
	maps.Copy(dst, decoded)
}

// capturingWriter holds the status and body until the response is checked.
type capturingWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *capturingWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.buf.Write(b)
}

// Flush keeps buffering; the body is released once it has been checked.
func (w *capturingWriter) Flush() {}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *capturingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *capturingWriter) flush() {
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(w.status)
	}
	if w.buf.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.buf.Bytes())
	}
}
