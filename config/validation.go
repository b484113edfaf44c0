package config

import (
	"fmt"
	"slices"
	"strings"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Documentation UI constants
const (
	UISwagger = "swagger"
	UIRedoc   = "redoc"
	UINone    = "none"
)

// Trace export constants
const (
	TraceEndpointStdout = "stdout"
	TraceProtocolHTTP   = "http"
	TraceProtocolGRPC   = "grpc"
)

// AssignTargets are the request parts parsed data can be written back to.
var AssignTargets = []string{"query", "params", "header", "body", "files"}

// Validate checks ranges and enumerations. The first failure is returned.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := validateAssign(cfg.Validation.Assign); err != nil {
		return fmt.Errorf("validation config: %w", err)
	}
	if err := validateOpenAPI(&cfg.OpenAPI); err != nil {
		return fmt.Errorf("openapi config: %w", err)
	}
	if err := validateTrace(&cfg.Trace); err != nil {
		return fmt.Errorf("trace config: %w", err)
	}
	if err := validateMetrics(&cfg.Metrics, cfg.Trace.Protocol); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}

	if cfg.Rate.Limit < 0 || cfg.Rate.Burst < 0 {
		return NewInvalidFieldError("app.rate", "limit and burst must not be negative", nil)
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewInvalidFieldError("server.port", fmt.Sprintf("invalid port %d (must be 1-65535)", cfg.Port), nil)
	}
	if cfg.Timeout.Read <= 0 {
		return NewInvalidFieldError("server.timeout.read", "must be positive", nil)
	}
	if cfg.Timeout.Write <= 0 {
		return NewInvalidFieldError("server.timeout.write", "must be positive", nil)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	if !slices.Contains(validLevels, cfg.Level) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level), validLevels)
	}
	return nil
}

func validateAssign(v any) error {
	var names []string
	switch assign := v.(type) {
	case nil, bool:
		return nil
	case string:
		switch strings.TrimSpace(strings.ToLower(assign)) {
		case "", "all", "none", "true", "false":
			return nil
		}
		names = strings.Split(assign, ",")
	case []string:
		names = assign
	case []any:
		for _, item := range assign {
			s, ok := item.(string)
			if !ok {
				return NewInvalidFieldError("validation.assign", fmt.Sprintf("unexpected entry %v", item), AssignTargets)
			}
			names = append(names, s)
		}
	default:
		return NewInvalidFieldError("validation.assign", fmt.Sprintf("unsupported value of type %T", v), nil)
	}

	for _, name := range names {
		if !slices.Contains(AssignTargets, strings.TrimSpace(name)) {
			return NewInvalidFieldError("validation.assign", fmt.Sprintf("unknown target %q", name), AssignTargets)
		}
	}
	return nil
}

func validateOpenAPI(cfg *OpenAPIConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return NewInvalidFieldError("openapi.path", fmt.Sprintf("path %q must start with /", cfg.Path), nil)
	}
	validUIs := []string{UISwagger, UIRedoc, UINone}
	if !slices.Contains(validUIs, cfg.UI) {
		return NewInvalidFieldError("openapi.ui", fmt.Sprintf("unknown ui %q", cfg.UI), validUIs)
	}
	return nil
}

func validateTrace(cfg *TraceConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return NewMissingFieldError("trace.endpoint")
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return NewInvalidFieldError("trace.samplerate", fmt.Sprintf("rate %v must be between 0 and 1", cfg.SampleRate), nil)
	}
	if cfg.Endpoint == TraceEndpointStdout {
		return nil
	}
	validProtocols := []string{TraceProtocolHTTP, TraceProtocolGRPC}
	if !slices.Contains(validProtocols, cfg.Protocol) {
		return NewInvalidFieldError("trace.protocol", fmt.Sprintf("unknown protocol %q", cfg.Protocol), validProtocols)
	}
	return nil
}

func validateMetrics(cfg *MetricsConfig, protocol string) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return NewMissingFieldError("metrics.endpoint")
	}
	if cfg.Interval <= 0 {
		return NewInvalidFieldError("metrics.interval", fmt.Sprintf("interval %s must be positive", cfg.Interval), nil)
	}
	if cfg.Endpoint == TraceEndpointStdout {
		return nil
	}
	validProtocols := []string{TraceProtocolHTTP, TraceProtocolGRPC}
	if !slices.Contains(validProtocols, protocol) {
		return NewInvalidFieldError("trace.protocol", fmt.Sprintf("unknown protocol %q", protocol), validProtocols)
	}
	return nil
}
