// Package config loads the service configuration from defaults, YAML files
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// sections lists the top-level keys environment variables may set.
var sections = []string{"app", "server", "log", "validation", "openapi", "trace", "metrics"}

// Load loads configuration with priority (highest first):
//  1. environment variables (SERVER_PORT -> server.port)
//  2. config.<app.env>.yaml
//  3. config.yaml
//  4. defaults
//
// Missing YAML files are skipped.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, "config.yaml"); err != nil {
		return nil, err
	}
	if env := k.String("app.env"); env != "" {
		if err := loadOptionalFile(k, fmt.Sprintf("config.%s.yaml", env)); err != nil {
			return nil, err
		}
	}

	return finish(k)
}

// LoadFromBytes is like Load but reads the YAML document from data instead
// of the working directory. Environment variables still take precedence.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(k)
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	err := k.Load(file.Provider(path), yaml.Parser())
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func finish(k *koanf.Koanf) (*Config, error) {
	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey maps OPENAPI_UI to openapi.ui. Variables outside the known
// sections are ignored.
func envKey(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
	section, _, _ := strings.Cut(key, ".")
	for _, s := range sections {
		if s == section && key != section {
			return key, value
		}
	}
	return "", nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":       "petstore",
		"app.version":    "v1.0.0",
		"app.env":        EnvDevelopment,
		"app.debug":      false,
		"app.rate.limit": 100,
		"app.rate.burst": 200,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.bodylimit":        "2M",
		"server.timeout.read":     "15s",
		"server.timeout.write":    "30s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "10s",
		"server.path.base":        "",
		"server.path.health":      "/health",

		"log.level":  "info",
		"log.pretty": false,

		"openapi.enabled": true,
		"openapi.path":    "/docs",
		"openapi.title":   "API",
		"openapi.version": "1.0.0",
		"openapi.ui":      UISwagger,

		"trace.enabled":    false,
		"trace.endpoint":   TraceEndpointStdout,
		"trace.protocol":   TraceProtocolHTTP,
		"trace.insecure":   false,
		"trace.samplerate": 1.0,

		"metrics.enabled":  false,
		"metrics.endpoint": TraceEndpointStdout,
		"metrics.interval": "15s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
