package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "petstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: development
openapi:
  title: Petstore
  version: 2.1.0
  servers:
    - https://pets.example.com
`), 0o600))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSpecCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name   string
		format string
		decode func([]byte, any) error
	}{
		{name: "json", format: "json", decode: json.Unmarshal},
		{name: "yaml", format: "yaml", decode: yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, "spec", "--config", cfgPath, "--format", tt.format)
			require.NoError(t, err)

			var doc map[string]any
			require.NoError(t, tt.decode([]byte(out), &doc))
			assert.Equal(t, "3.0.0", doc["openapi"])

			info := doc["info"].(map[string]any)
			assert.Equal(t, "Petstore", info["title"])
			assert.Equal(t, "2.1.0", info["version"])

			paths := doc["paths"].(map[string]any)
			assert.Contains(t, paths, "/pets")
			assert.Contains(t, paths, "/pets/{id}")
			assert.Contains(t, paths, "/pets/{id}/photos")
			assert.Contains(t, paths, "/admin/stats")
			assert.NotContains(t, paths, "/health")
		})
	}
}

func TestSpecCommandErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		expect string
	}{
		{name: "unsupported_format", args: []string{"spec", "--format", "xml"}, expect: "unsupported format"},
		{name: "missing_config", args: []string{"spec", "--config", filepath.Join(t.TempDir(), "nope.yaml")}, expect: "failed to read config"},
		{name: "extra_args", args: []string{"spec", "extra"}, expect: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expect)
		})
	}
}
