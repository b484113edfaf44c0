package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "petstore", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, 100, cfg.App.Rate.Limit)
	assert.Equal(t, 200, cfg.App.Rate.Burst)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "2M", cfg.Server.BodyLimit)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout.Read)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout.Write)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout.Shutdown)
	assert.Equal(t, "/health", cfg.Server.Path.Health)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.Validation.Assign)

	assert.True(t, cfg.OpenAPI.Enabled)
	assert.Equal(t, "/docs", cfg.OpenAPI.Path)
	assert.Equal(t, UISwagger, cfg.OpenAPI.UI)
	assert.NotNil(t, cfg.Raw())
}

func TestLoadReadsYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
app:
  env: staging
server:
  port: 9000
validation:
  assign: [params, body]
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte(`
server:
  port: 9100
`), 0o600))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvStaging, cfg.App.Env)
	assert.Equal(t, 9100, cfg.Server.Port, "environment file overrides base file")
	assert.Equal(t, []any{"params", "body"}, cfg.Validation.Assign)
}

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
app:
  name: shelter
log:
  level: debug
  pretty: true
openapi:
  title: Shelter API
  ui: redoc
  servers:
    - https://api.example.com
validation:
  assign: true
`))
	require.NoError(t, err)
	assert.Equal(t, "shelter", cfg.App.Name)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "Shelter API", cfg.OpenAPI.Title)
	assert.Equal(t, UIRedoc, cfg.OpenAPI.UI)
	assert.Equal(t, []string{"https://api.example.com"}, cfg.OpenAPI.Servers)
	assert.Equal(t, true, cfg.Validation.Assign)
}

func TestLoadFromBytesMalformed(t *testing.T) {
	_, err := LoadFromBytes([]byte("server: [unclosed"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("VALIDATION_ASSIGN", "params,body")
	t.Setenv("OPENAPI_TITLE", "From Env")

	cfg, err := LoadFromBytes([]byte("server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "params,body", cfg.Validation.Assign)
	assert.Equal(t, "From Env", cfg.OpenAPI.Title)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"SERVER_PORT", "server.port"},
		{"SERVER_TIMEOUT_READ", "server.timeout.read"},
		{"OPENAPI_UI", "openapi.ui"},
		{"PATH", ""},
		{"HOME_DIR", ""},
		{"SERVER", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, _ := envKey(tt.in, "x")
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"bad env", "app:\n  env: qa\n", "app.env"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad assign target", "validation:\n  assign: [params, cookies]\n", "validation.assign"},
		{"bad assign type", "validation:\n  assign: 3\n", "validation.assign"},
		{"bad ui", "openapi:\n  ui: rapidoc\n", "openapi.ui"},
		{"bad docs path", "openapi:\n  path: docs\n", "openapi.path"},
		{"missing name", "app:\n  name: \"\"\n", "app.name"},
		{"bad trace protocol", "trace:\n  enabled: true\n  endpoint: localhost:4318\n  protocol: udp\n", "trace.protocol"},
		{"bad sample rate", "trace:\n  enabled: true\n  samplerate: 2\n", "trace.samplerate"},
		{"bad metrics interval", "metrics:\n  enabled: true\n  interval: 0s\n", "metrics.interval"},
		{"bad metrics protocol", "trace:\n  protocol: udp\nmetrics:\n  enabled: true\n  endpoint: localhost:4318\n", "trace.protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateAssignForms(t *testing.T) {
	valid := []any{nil, true, false, "all", "none", "", "params, body", []string{"query"}, []any{"files", "header"}}
	for _, v := range valid {
		assert.NoError(t, validateAssign(v), "%#v", v)
	}
	invalid := []any{"cookies", []any{1}, map[string]any{}}
	for _, v := range invalid {
		assert.Error(t, validateAssign(v), "%#v", v)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	assert.Equal(t,
		"config_missing: app.name required set APP_NAME env var or add app.name to config.yaml",
		NewMissingFieldError("app.name").Error())
	assert.Equal(t,
		"config_invalid: openapi.ui unknown ui \"x\" must be one of: swagger, redoc",
		NewInvalidFieldError("openapi.ui", `unknown ui "x"`, []string{"swagger", "redoc"}).Error())
	assert.Equal(t, "config_invalid: server.port bad", NewInvalidFieldError("server.port", "bad", nil).Error())
}
