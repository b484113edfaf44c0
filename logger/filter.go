package logger

import (
	"net/url"
	"reflect"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values.
	DefaultMaskValue = "***"
	// DefaultMaxDepth bounds recursion into nested values.
	DefaultMaxDepth = 8
)

// FilterConfig lists the field names masked in log output. Matching is a
// case-insensitive substring test, so "token" also masks "access_token".
type FilterConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig covers credentials commonly found in request headers,
// query strings and bodies.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey", "api-key",
			"token", "authorization", "cookie",
			"credential", "session",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values of sensitive fields before they are logged.
type SensitiveDataFilter struct {
	config *FilterConfig
}

func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key is sensitive. URLs keep their structure
// and only lose the password.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if !f.isSensitiveField(key) || value == "" {
		return value
	}
	if masked, ok := f.maskURL(value); ok {
		return masked
	}
	return f.config.MaskValue
}

// FilterValue walks maps, slices and header-like map[string][]string values,
// masking sensitive keys at any depth up to DefaultMaxDepth.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filter(key, value, DefaultMaxDepth)
}

// FilterFields applies FilterValue to every entry of fields.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		filtered[k] = f.FilterValue(k, v)
	}
	return filtered
}

func (f *SensitiveDataFilter) filter(key string, value any, depth int) any {
	if f.isSensitiveField(key) {
		if value == nil {
			return nil
		}
		return f.config.MaskValue
	}
	if value == nil || depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = f.filter(k, inner, depth-1)
		}
		return out
	case map[string][]string:
		out := make(map[string][]string, len(v))
		for k, values := range v {
			if f.isSensitiveField(k) {
				out[k] = []string{f.config.MaskValue}
				continue
			}
			out[k] = values
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = f.filter(key, inner, depth-1)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			out[k] = f.filter(k, iter.Value().Interface(), depth-1)
		}
		return out
	}
	return value
}

func (f *SensitiveDataFilter) isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(field)) {
			return true
		}
	}
	return false
}

func (f *SensitiveDataFilter) maskURL(value string) (string, bool) {
	if !strings.Contains(value, "://") {
		return "", false
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.User == nil {
		return "", false
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return "", false
	}
	parsed.User = url.UserPassword(parsed.User.Username(), f.config.MaskValue)
	return parsed.String(), true
}
