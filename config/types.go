package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the full service configuration.
type Config struct {
	App        AppConfig        `koanf:"app" json:"app" yaml:"app"`
	Server     ServerConfig     `koanf:"server" json:"server" yaml:"server"`
	Log        LogConfig        `koanf:"log" json:"log" yaml:"log"`
	Validation ValidationConfig `koanf:"validation" json:"validation" yaml:"validation"`
	OpenAPI    OpenAPIConfig    `koanf:"openapi" json:"openapi" yaml:"openapi"`
	Trace      TraceConfig      `koanf:"trace" json:"trace" yaml:"trace"`
	Metrics    MetricsConfig    `koanf:"metrics" json:"metrics" yaml:"metrics"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string     `koanf:"name" json:"name" yaml:"name"`
	Version string     `koanf:"version" json:"version" yaml:"version"`
	Env     string     `koanf:"env" json:"env" yaml:"env"`
	Debug   bool       `koanf:"debug" json:"debug" yaml:"debug"`
	Rate    RateConfig `koanf:"rate" json:"rate" yaml:"rate"`
}

// RateConfig holds the per-IP rate limit. A zero Limit disables limiting.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit"`
	Burst int `koanf:"burst" json:"burst" yaml:"burst"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host" json:"host" yaml:"host"`
	Port      int           `koanf:"port" json:"port" yaml:"port"`
	BodyLimit string        `koanf:"bodylimit" json:"bodylimit" yaml:"bodylimit"`
	Timeout   TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Path      PathConfig    `koanf:"path" json:"path" yaml:"path"`
}

// TimeoutConfig holds server timeouts.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read" json:"read" yaml:"read"`
	Write    time.Duration `koanf:"write" json:"write" yaml:"write"`
	Idle     time.Duration `koanf:"idle" json:"idle" yaml:"idle"`
	Shutdown time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown"`
}

// PathConfig holds URL path settings.
type PathConfig struct {
	Base   string `koanf:"base" json:"base" yaml:"base"`
	Health string `koanf:"health" json:"health" yaml:"health"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ValidationConfig holds the process-wide validation defaults.
type ValidationConfig struct {
	// Assign is the default assignment policy: a bool, "all", "none" or a
	// list of targets (query, params, header, body, files). Unset means no
	// parsed data is written back.
	Assign any `koanf:"assign" json:"assign,omitempty" yaml:"assign,omitempty"`
}

// OpenAPIConfig controls document generation and serving.
type OpenAPIConfig struct {
	Enabled     bool     `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Path        string   `koanf:"path" json:"path" yaml:"path"`
	Title       string   `koanf:"title" json:"title" yaml:"title"`
	Version     string   `koanf:"version" json:"version" yaml:"version"`
	Description string   `koanf:"description" json:"description" yaml:"description"`
	UI          string   `koanf:"ui" json:"ui" yaml:"ui"`
	Servers     []string `koanf:"servers" json:"servers" yaml:"servers"`
	// Metadata is an optional YAML file with extra top-level document keys
	// (info, servers, components, ...).
	Metadata    string   `koanf:"metadata" json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// TraceConfig controls span export. Spans are always created; they are only
// exported when Enabled.
type TraceConfig struct {
	Enabled    bool    `koanf:"enabled" json:"enabled" yaml:"enabled"`
	// Endpoint is "stdout" or an OTLP collector host:port.
	Endpoint   string  `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Protocol is "http" or "grpc"; ignored for stdout.
	Protocol   string  `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure   bool    `koanf:"insecure" json:"insecure" yaml:"insecure"`
	SampleRate float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
}

// MetricsConfig controls metric export. Protocol and Insecure are shared
// with TraceConfig.
type MetricsConfig struct {
	Enabled  bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint string        `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval"`
}

// Raw exposes the underlying koanf instance for keys outside Config.
func (c *Config) Raw() *koanf.Koanf {
	return c.k
}
