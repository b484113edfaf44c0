package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validate checks data against the type and returns the parsed value.
// All issues found are collected before returning.
func (t *Type) Validate(ctx context.Context, data any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := &run{ctx: ctx}
	out := r.check(t, data, nil, true)
	if len(r.issues) > 0 {
		return nil, &ValidationError{Issues: r.issues}
	}
	return out, nil
}

type run struct {
	ctx    context.Context
	issues []Issue
}

func (r *run) add(code string, path []string, message string) {
	r.issues = append(r.issues, Issue{
		Code:    code,
		Path:    append([]string{}, path...),
		Message: message,
	})
}

func childPath(path []string, segment string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, segment)
}

// check validates one value. present is false when an object member is missing.
func (r *run) check(t *Type, data any, path []string, present bool) any {
	if t.kind == KindOptional {
		if !present || data == nil {
			return nil
		}
		return r.check(t.inner, data, path, true)
	}
	if t.kind == KindEffect {
		return r.checkEffect(t, data, path, present)
	}
	if !present {
		r.add(CodeRequired, path, "Required")
		return nil
	}

	switch t.kind {
	case KindString:
		return r.checkString(t, data, path)
	case KindNumber:
		return r.checkNumber(t, data, path)
	case KindInteger:
		return r.checkInteger(t, data, path)
	case KindBoolean:
		return r.checkBool(t, data, path)
	case KindDate:
		return r.checkDate(data, path)
	case KindObject:
		return r.checkObject(t, data, path)
	case KindArray:
		return r.checkArray(t, data, path)
	case KindUnion:
		return r.checkUnion(t, data, path)
	default:
		return data
	}
}

func (r *run) invalidType(path []string, expected string, data any) {
	r.add(CodeInvalidType, path, fmt.Sprintf("Expected %s, received %s", expected, received(data)))
}

func (r *run) checkString(t *Type, data any, path []string) any {
	s, ok := data.(string)
	if !ok {
		if !t.coerce || data == nil {
			r.invalidType(path, "string", data)
			return nil
		}
		s = fmt.Sprint(data)
	}

	n := float64(utf8.RuneCountInString(s))
	if t.min != nil && n < *t.min {
		r.add(CodeTooSmall, path, fmt.Sprintf("String must contain at least %s character(s)", formatBound(*t.min)))
	}
	if t.max != nil && n > *t.max {
		r.add(CodeTooBig, path, fmt.Sprintf("String must contain at most %s character(s)", formatBound(*t.max)))
	}
	if t.format != FormatNone && !checkFormat(s, t.format) {
		r.add(CodeInvalidString, path, "Invalid "+string(t.format))
	}
	if len(t.enum) > 0 && !slices.Contains(t.enum, any(s)) {
		r.add(CodeInvalidEnum, path, fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", joinEnum(t.enum), s))
	}
	return s
}

func (r *run) checkNumber(t *Type, data any, path []string) any {
	f, ok := toFloat(data)
	if !ok && t.coerce {
		if s, isString := data.(string); isString {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			f, ok = parsed, err == nil
		}
	}
	if !ok || math.IsNaN(f) {
		r.invalidType(path, "number", data)
		return nil
	}
	r.checkBounds(t, f, path)
	return f
}

func (r *run) checkInteger(t *Type, data any, path []string) any {
	f, ok := toFloat(data)
	if !ok && t.coerce {
		if s, isString := data.(string); isString {
			parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			f, ok = float64(parsed), err == nil
		}
	}
	if !ok {
		r.invalidType(path, "integer", data)
		return nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		r.add(CodeInvalidType, path, "Expected integer, received float")
		return nil
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= float64(math.MaxInt64) {
		r.add(CodeTooBig, path, "Number must be less than or equal to "+strconv.FormatInt(math.MaxInt64, 10))
		return nil
	}
	if f < float64(math.MinInt64) {
		r.add(CodeTooSmall, path, "Number must be greater than or equal to "+strconv.FormatInt(math.MinInt64, 10))
		return nil
	}
	r.checkBounds(t, f, path)
	return int64(f)
}

func (r *run) checkBounds(t *Type, f float64, path []string) {
	if t.min != nil && f < *t.min {
		r.add(CodeTooSmall, path, fmt.Sprintf("Number must be greater than or equal to %s", formatBound(*t.min)))
	}
	if t.max != nil && f > *t.max {
		r.add(CodeTooBig, path, fmt.Sprintf("Number must be less than or equal to %s", formatBound(*t.max)))
	}
}

func (r *run) checkBool(t *Type, data any, path []string) any {
	switch v := data.(type) {
	case bool:
		return v
	case string:
		if t.coerce {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	r.invalidType(path, "boolean", data)
	return nil
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

func (r *run) checkDate(data any, path []string) any {
	switch v := data.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts
			}
		}
		r.add(CodeInvalidType, path, "Invalid date")
		return nil
	}
	r.invalidType(path, "date", data)
	return nil
}

func (r *run) checkObject(t *Type, data any, path []string) any {
	m, ok := toMap(data)
	if !ok {
		r.invalidType(path, "object", data)
		return nil
	}
	out := make(map[string]any, len(t.props))
	for _, p := range t.props {
		value, present := m[p.Name]
		parsed := r.check(p.Type, value, childPath(path, p.Name), present)
		if present && value != nil {
			out[p.Name] = parsed
		} else if parsed != nil {
			out[p.Name] = parsed
		}
	}
	return out
}

func (r *run) checkArray(t *Type, data any, path []string) any {
	items, ok := toSlice(data)
	if !ok {
		if !t.coerce || data == nil {
			r.invalidType(path, "array", data)
			return nil
		}
		items = []any{data}
	}
	n := float64(len(items))
	if t.min != nil && n < *t.min {
		r.add(CodeTooSmall, path, fmt.Sprintf("Array must contain at least %s element(s)", formatBound(*t.min)))
	}
	if t.max != nil && n > *t.max {
		r.add(CodeTooBig, path, fmt.Sprintf("Array must contain at most %s element(s)", formatBound(*t.max)))
	}
	out := make([]any, len(items))
	for i, item := range items {
		if t.elem == nil {
			out[i] = item
			continue
		}
		out[i] = r.check(t.elem, item, childPath(path, strconv.Itoa(i)), true)
	}
	return out
}

func (r *run) checkUnion(t *Type, data any, path []string) any {
	for _, option := range t.options {
		sub := &run{ctx: r.ctx}
		out := sub.check(option, data, path, true)
		if len(sub.issues) == 0 {
			return out
		}
	}
	r.add(CodeInvalidUnion, path, "Invalid input")
	return nil
}

// checkEffect skips the refinement or transform when the value is absent and
// an Optional sits below the effect.
func (r *run) checkEffect(t *Type, data any, path []string, present bool) any {
	if (!present || data == nil) && t.inner.acceptsAbsent() {
		return nil
	}
	before := len(r.issues)
	out := r.check(t.inner, data, path, present)
	if len(r.issues) > before {
		return nil
	}
	if t.refine != nil && !t.refine(r.ctx, out) {
		message := t.message
		if message == "" {
			message = "Invalid input"
		}
		r.add(CodeCustom, path, message)
		return nil
	}
	if t.transform != nil {
		transformed, err := t.transform(r.ctx, out)
		if err != nil {
			r.add(CodeCustom, path, err.Error())
			return nil
		}
		return transformed
	}
	return out
}

func (t *Type) acceptsAbsent() bool {
	for cur := t; cur != nil; cur = cur.inner {
		switch cur.kind {
		case KindOptional:
			return true
		case KindEffect:
			continue
		default:
			return false
		}
	}
	return false
}

func toFloat(data any) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func toMap(data any) (map[string]any, bool) {
	switch v := data.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func toSlice(data any) ([]any, bool) {
	switch v := data.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func received(data any) string {
	switch data.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any, map[string]string:
		return "object"
	case []any, []string:
		return "array"
	case time.Time:
		return "date"
	}
	if _, ok := toFloat(data); ok {
		return "number"
	}
	return fmt.Sprintf("%T", data)
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinEnum(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("'%v'", v)
	}
	return strings.Join(parts, " | ")
}
