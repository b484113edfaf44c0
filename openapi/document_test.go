package openapi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vaso991/echo-schema-swagger/config"
)

func TestNewDocumentFixedKeysWin(t *testing.T) {
	meta := map[string]any{
		"openapi": "2.0",
		"paths":   "ignored",
		"info":    map[string]any{"title": "Petstore"},
	}
	paths := Paths{"/pets": {"get": {Parameters: []*openapi3.Parameter{}, Responses: BuildResponses(nil)}}}

	doc := NewDocument(meta, paths)
	assert.Equal(t, Version, doc["openapi"])
	assert.Equal(t, paths, doc["paths"])
	assert.Equal(t, meta["info"], doc["info"])
	assert.Equal(t, "2.0", meta["openapi"])
}

func TestMetadata(t *testing.T) {
	t.Run("from_config", func(t *testing.T) {
		meta, err := Metadata(&config.OpenAPIConfig{
			Title:   "Petstore",
			Version: "1.2.3",
			Servers: []string{"https://pets.example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "Petstore", "version": "1.2.3"}, meta["info"])
		assert.Equal(t, []map[string]any{{"url": "https://pets.example.com"}}, meta["servers"])
	})

	t.Run("file_takes_precedence", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
info:
  title: From File
servers:
  - url: https://file.example.com
components:
  securitySchemes:
    apiKey:
      type: apiKey
      in: header
      name: x-api-key
`), 0o600))

		meta, err := Metadata(&config.OpenAPIConfig{
			Title:    "Config Title",
			Version:  "2.0.0",
			Servers:  []string{"https://config.example.com"},
			Metadata: path,
		})
		require.NoError(t, err)
		info := meta["info"].(map[string]any)
		assert.Equal(t, "From File", info["title"])
		assert.Equal(t, "2.0.0", info["version"])
		assert.Len(t, meta["servers"], 1)
		assert.Contains(t, meta, "components")
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := Metadata(&config.OpenAPIConfig{Metadata: filepath.Join(t.TempDir(), "nope.yaml")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read openapi metadata")
	})
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	doc := NewDocument(nil, Paths{
		"/pets/{id}": {"delete": {
			Parameters: []*openapi3.Parameter{{
				In:       InPath,
				Name:     "id",
				Required: true,
				Schema:   (&FieldDescription{Type: TypeString, Format: FormatUUID}).SchemaRef(),
			}},
			Responses:  BuildResponses(nil),
		}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, doc))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	op := decoded["paths"].(map[string]any)["/pets/{id}"].(map[string]any)["delete"].(map[string]any)
	params := op["parameters"].([]any)
	require.Len(t, params, 1)
	param := params[0].(map[string]any)
	assert.Equal(t, "path", param["in"])
	assert.Equal(t, true, param["required"])
	assert.Equal(t, map[string]any{"type": "string", "format": "uuid"}, param["schema"])
	assert.Contains(t, op["responses"], "200")
}
