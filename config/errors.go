package config

import (
	"fmt"
	"strings"
)

// ConfigError describes an invalid configuration value with guidance on how
// to fix it.
//
//nolint:revive // ConfigError reads better than Error at call sites
type ConfigError struct {
	Category string // "missing" or "invalid"
	Field    string // koanf key, e.g. "server.port"
	Message  string
	Action   string
}

func (e *ConfigError) Error() string {
	var parts []string
	if e.Category != "" {
		parts = append(parts, fmt.Sprintf("config_%s:", e.Category))
	}
	for _, p := range []string{e.Field, e.Message, e.Action} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// NewMissingFieldError reports a required key that has no value.
func NewMissingFieldError(field string) *ConfigError {
	envVar := strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
	return &ConfigError{
		Category: "missing",
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to config.yaml", envVar, field),
	}
}

// NewInvalidFieldError reports a value outside its allowed set or range.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: "invalid",
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = fmt.Sprintf("must be one of: %s", strings.Join(validOptions, ", "))
	}
	return err
}
