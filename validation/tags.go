// Package validation parses the struct tags of request types so that a struct
// can serve both as a runtime validator (through go-playground/validator) and
// as the source of its documented shape.
package validation

import (
	"reflect"
	"strconv"
	"strings"
)

const (
	trueValue = "true"
	skipName  = "-"
)

// FieldTags is the tag metadata of one exported struct field.
type FieldTags struct {
	Name        string            // Go field name
	JSONName    string            // wire name from the json tag, defaults to Name
	Index       int               // field index within the struct
	Type        reflect.Type      // declared field type
	Required    bool              // validate:"required" without validate omitempty
	Constraints map[string]string // parsed validate tag
	Description string            // from the doc or description tag
}

// ParseStruct returns the tag metadata of every exported, non-skipped field
// of a struct type (or pointer to one). Any other type yields nil.
func ParseStruct(t reflect.Type) []FieldTags {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	fields := make([]FieldTags, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := parseJSONTag(field.Tag.Get("json"))
		if name == skipName {
			continue
		}
		if name == "" {
			name = field.Name
		}

		info := FieldTags{
			Name:        field.Name,
			JSONName:    name,
			Index:       i,
			Type:        field.Type,
			Constraints: make(map[string]string),
		}
		if validate := field.Tag.Get("validate"); validate != "" {
			parseValidateTag(validate, info.Constraints)
		}
		info.Required = isRequired(info.Constraints)

		if doc := field.Tag.Get("doc"); doc != "" {
			info.Description = doc
		} else {
			info.Description = field.Tag.Get("description")
		}

		fields = append(fields, info)
	}
	return fields
}

// parseJSONTag returns the wire name. The json omitempty option only affects
// encoding; validator still enforces required on such fields.
func parseJSONTag(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// parseValidateTag splits a validate tag into constraints. Flags such as
// "required" map to "true"; "min=1" maps min to "1". Only the top-level
// rules are kept, dive-scoped rules belong to the element.
func parseValidateTag(validate string, constraints map[string]string) {
	for _, part := range strings.Split(validate, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "dive" {
			return
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			constraints[part] = trueValue
			continue
		}
		constraints[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
}

func isRequired(constraints map[string]string) bool {
	if _, skip := constraints["omitempty"]; skip {
		return false
	}
	_, required := constraints["required"]
	return required
}

// Min returns the min (or gte) constraint.
func (f *FieldTags) Min() (float64, bool) {
	return f.number("min", "gte")
}

// Max returns the max (or lte) constraint.
func (f *FieldTags) Max() (float64, bool) {
	return f.number("max", "lte")
}

func (f *FieldTags) number(keys ...string) (float64, bool) {
	for _, key := range keys {
		if raw, ok := f.Constraints[key]; ok {
			if val, err := strconv.ParseFloat(raw, 64); err == nil {
				return val, true
			}
		}
	}
	return 0, false
}

// Enum returns the values of a oneof constraint.
func (f *FieldTags) Enum() []string {
	if raw, ok := f.Constraints["oneof"]; ok {
		return strings.Fields(raw)
	}
	return nil
}

// Format returns the string format implied by the constraints: one of
// "uuid", "email", "url" or "datetime", or "" when none applies.
func (f *FieldTags) Format() string {
	for _, format := range []string{"uuid", "uuid4", "email", "url", "uri", "http_url"} {
		if f.Constraints[format] == trueValue {
			switch format {
			case "uuid4":
				return "uuid"
			case "uri", "http_url":
				return "url"
			}
			return format
		}
	}
	if layout, ok := f.Constraints["datetime"]; ok && layout != "" {
		return "datetime"
	}
	return ""
}
