// Package observability sets up span and metric export for the HTTP
// pipeline. Request spans come from the tracing middleware; validation
// failures are added to them as events and counted by the validator.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vaso991/echo-schema-swagger/config"
)

// ErrInvalidProtocol is returned for an OTLP protocol other than http or grpc.
var ErrInvalidProtocol = errors.New("invalid trace protocol")

// Provider owns the tracer and meter providers of the process.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// NewProvider builds the providers described by cfg.Trace and cfg.Metrics and
// installs them, together with the W3C propagators, as the global ones. A
// disabled signal installs nothing. Stdout exporters write to out, or to
// os.Stdout when out is nil.
func NewProvider(cfg *config.Config, out io.Writer) (*Provider, error) {
	p := &Provider{}
	if !cfg.Trace.Enabled && !cfg.Metrics.Enabled {
		return p, nil
	}
	if out == nil {
		out = os.Stdout
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Trace.Enabled {
		exporter, err := newExporter(&cfg.Trace, out)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Trace.SampleRate))),
		)
		otel.SetTracerProvider(p.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if cfg.Metrics.Enabled {
		exporter, err := newMetricExporter(&cfg.Metrics, &cfg.Trace, out)
		if err != nil {
			_ = p.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(cfg.Metrics.Interval),
			)),
		)
		otel.SetMeterProvider(p.meterProvider)
	}
	return p, nil
}

// TracerProvider returns the installed provider, or a no-op one when tracing
// is disabled.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p.tracerProvider == nil {
		return noop.NewTracerProvider()
	}
	return p.tracerProvider
}

// MeterProvider returns the installed provider, or a no-op one when metrics
// are disabled.
func (p *Provider) MeterProvider() metric.MeterProvider {
	if p.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return p.meterProvider
}

// Shutdown flushes pending spans and metrics and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newResource merges the SDK defaults with the service attributes. The
// custom part carries no schema URL so the two never conflict.
func newResource(cfg *config.Config) (*resource.Resource, error) {
	custom, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.App.Name),
			semconv.ServiceVersion(cfg.App.Version),
			semconv.DeploymentEnvironmentName(cfg.App.Env),
		),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), custom)
}

func newExporter(cfg *config.TraceConfig, out io.Writer) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == config.TraceEndpointStdout {
		return stdouttrace.New(stdouttrace.WithWriter(out))
	}

	ctx := context.Background()
	switch cfg.Protocol {
	case config.TraceProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case config.TraceProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("trace protocol '%s': %w", cfg.Protocol, ErrInvalidProtocol)
	}
}

// newMetricExporter reuses the trace protocol and TLS settings.
func newMetricExporter(cfg *config.MetricsConfig, tc *config.TraceConfig, out io.Writer) (sdkmetric.Exporter, error) {
	if cfg.Endpoint == config.TraceEndpointStdout {
		return stdoutmetric.New(stdoutmetric.WithWriter(out))
	}

	ctx := context.Background()
	switch tc.Protocol {
	case config.TraceProtocolHTTP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if tc.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	case config.TraceProtocolGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if tc.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("metrics protocol '%s': %w", tc.Protocol, ErrInvalidProtocol)
	}
}
