package schema

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/vaso991/echo-schema-swagger/validation"
)

// Struct is a Schema backed by a Go struct type. Input maps are decoded into a
// new T using the json tag names, then checked against the validate tags.
// The parsed output is the populated T.
type Struct[T any] struct {
	typ      reflect.Type
	validate *validator.Validate
}

// FromStruct builds a Schema for T, which must be a struct type.
func FromStruct[T any]() *Struct[T] {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("schema: FromStruct requires a struct type, got %s", typ))
	}
	return &Struct[T]{typ: typ, validate: newStructValidator()}
}

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	return v
}

func (s *Struct[T]) Engine() Engine { return EngineStruct }

func (s *Struct[T]) Validate(ctx context.Context, data any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out T
	switch v := data.(type) {
	case T:
		out = v
	case *T:
		if v != nil {
			out = *v
		}
	default:
		if err := decodeInto(data, &out); err != nil {
			return nil, &ValidationError{Issues: []Issue{{
				Code:    CodeInvalidType,
				Path:    []string{},
				Message: err.Error(),
			}}}
		}
	}

	if err := s.validate.StructCtx(ctx, &out); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return nil, &ValidationError{Issues: structIssues(fieldErrs)}
		}
		return nil, err
	}
	return out, nil
}

func decodeInto(data, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

func structIssues(errs validator.ValidationErrors) []Issue {
	issues := make([]Issue, 0, len(errs))
	for _, fe := range errs {
		issues = append(issues, Issue{
			Code:    tagCode(fe.Tag()),
			Path:    namespacePath(fe.Namespace()),
			Message: tagMessage(fe),
		})
	}
	return issues
}

// namespacePath turns "Pet.tags[1].name" into ["tags", "1", "name"].
func namespacePath(namespace string) []string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return []string{}
	}
	var path []string
	for _, segment := range strings.Split(rest, ".") {
		for segment != "" {
			open := strings.IndexByte(segment, '[')
			if open < 0 {
				path = append(path, segment)
				break
			}
			if open > 0 {
				path = append(path, segment[:open])
			}
			end := strings.IndexByte(segment, ']')
			if end < open {
				path = append(path, segment[open:])
				break
			}
			path = append(path, segment[open+1:end])
			segment = segment[end+1:]
		}
	}
	return path
}

func tagCode(tag string) string {
	switch tag {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return CodeRequired
	case "min", "gte", "gt":
		return CodeTooSmall
	case "max", "lte", "lt":
		return CodeTooBig
	case "email", "uuid", "uuid4", "url", "uri", "http_url", "datetime", "len":
		return CodeInvalidString
	case "oneof":
		return CodeInvalidEnum
	default:
		return CodeCustom
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min", "gte":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("Must contain at least %s element(s)", fe.Param())
		}
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "max", "lte":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("Must contain at most %s element(s)", fe.Param())
		}
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "email", "uuid", "url", "datetime":
		return "Invalid " + fe.Tag()
	case "oneof":
		return fmt.Sprintf("Invalid enum value. Expected one of: %s", fe.Param())
	default:
		return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
	}
}

func isLengthKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// Shape reflects over T. Fields without a required rule are optional,
// pointer or not.
func (s *Struct[T]) Shape() *Node {
	return structNode(s.typ, make(map[reflect.Type]bool))
}

var timeType = reflect.TypeOf(time.Time{})

func structNode(t reflect.Type, visiting map[reflect.Type]bool) *Node {
	if t.Kind() == reflect.Pointer {
		return &Node{Kind: KindOptional, Inner: structNode(t.Elem(), visiting)}
	}
	if t == timeType {
		return &Node{Kind: KindDate}
	}

	switch t.Kind() {
	case reflect.String:
		return &Node{Kind: KindString}
	case reflect.Bool:
		return &Node{Kind: KindBoolean}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Node{Kind: KindInteger}
	case reflect.Float32, reflect.Float64:
		return &Node{Kind: KindNumber}
	case reflect.Slice, reflect.Array:
		return &Node{Kind: KindArray, Elem: structNode(t.Elem(), visiting)}
	case reflect.Map:
		return &Node{Kind: KindObject}
	case reflect.Struct:
		if visiting[t] {
			return &Node{Kind: KindUnknown}
		}
		visiting[t] = true
		defer delete(visiting, t)
		return structObject(t, visiting)
	default:
		return &Node{Kind: KindUnknown}
	}
}

func structObject(t reflect.Type, visiting map[reflect.Type]bool) *Node {
	tags := validation.ParseStruct(t)
	n := &Node{Kind: KindObject, Fields: make([]Field, 0, len(tags))}
	for i := range tags {
		tag := &tags[i]
		field := structNode(tag.Type, visiting)
		annotateField(field, tag)
		switch {
		case tag.Required && field.Kind == KindOptional:
			field = field.Inner
		case !tag.Required && field.Kind != KindOptional:
			field = &Node{Kind: KindOptional, Inner: field}
		}
		n.Fields = append(n.Fields, Field{Name: tag.JSONName, Node: field})
	}
	return n
}

// annotateField copies format, enum and description onto the innermost node.
func annotateField(n *Node, tag *validation.FieldTags) {
	inner, _ := Unwrap(n)
	if inner == nil {
		return
	}
	inner.Description = tag.Description
	if inner.Kind != KindString {
		return
	}
	switch tag.Format() {
	case "uuid":
		inner.Format = FormatUUID
	case "email":
		inner.Format = FormatEmail
	case "url":
		inner.Format = FormatURL
	case "datetime":
		inner.Format = FormatDateTime
	}
	for _, v := range tag.Enum() {
		inner.Enum = append(inner.Enum, v)
	}
}
