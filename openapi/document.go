package openapi

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vaso991/echo-schema-swagger/config"
)

// Version is the OpenAPI version written into documents.
const Version = "3.0.0"

// NewDocument merges the fixed "openapi" and "paths" keys over meta.
// meta is not modified.
func NewDocument(meta map[string]any, paths Paths) map[string]any {
	doc := make(map[string]any, len(meta)+2)
	maps.Copy(doc, meta)
	doc["openapi"] = Version
	doc["paths"] = paths
	return doc
}

// Metadata builds document metadata from configuration. Keys from the
// metadata file come first; title, version and description fill in the
// info fields it leaves empty, and configured servers are used when the
// file declares none.
func Metadata(cfg *config.OpenAPIConfig) (map[string]any, error) {
	meta := map[string]any{}
	if cfg.Metadata != "" {
		raw, err := os.ReadFile(cfg.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to read openapi metadata: %w", err)
		}
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse openapi metadata %s: %w", cfg.Metadata, err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
	}

	info, _ := meta["info"].(map[string]any)
	if info == nil {
		info = map[string]any{}
	}
	setDefault(info, "title", cfg.Title)
	setDefault(info, "version", cfg.Version)
	setDefault(info, "description", cfg.Description)
	meta["info"] = info

	if _, ok := meta["servers"]; !ok && len(cfg.Servers) > 0 {
		servers := make([]map[string]any, 0, len(cfg.Servers))
		for _, url := range cfg.Servers {
			servers = append(servers, map[string]any{"url": url})
		}
		meta["servers"] = servers
	}
	return meta, nil
}

func setDefault(m map[string]any, key, value string) {
	if value == "" {
		return
	}
	if existing, ok := m[key].(string); ok && existing != "" {
		return
	}
	m[key] = value
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document as JSON: %w", err)
	}
	return nil
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document as YAML: %w", err)
	}
	return enc.Close()
}
