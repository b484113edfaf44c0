// Package schema provides the validation schemas attached to routes.
// A schema validates (and may coerce) request data and exposes its declared
// shape as a tree of Nodes so documentation can be generated from the same
// source of truth. Three engines are available: the native builder DSL,
// JSON Schema documents and Go structs with validate tags.
package schema

import (
	"context"
	"fmt"
	"strings"
)

// Engine identifies the implementation backing a Schema.
type Engine int

const (
	// EngineNative is the builder DSL in this package (String, Object, ...).
	EngineNative Engine = iota
	// EngineJSONSchema is a compiled JSON Schema document.
	EngineJSONSchema
	// EngineStruct is a Go struct validated through validate tags.
	EngineStruct
)

func (e Engine) String() string {
	switch e {
	case EngineNative:
		return "native"
	case EngineJSONSchema:
		return "jsonschema"
	case EngineStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Kind is the discriminant of a shape Node.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindDate
	KindObject
	KindArray
	KindOptional
	KindUnion
	KindEffect
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindString:   "string",
	KindNumber:   "number",
	KindInteger:  "integer",
	KindBoolean:  "boolean",
	KindDate:     "date",
	KindObject:   "object",
	KindArray:    "array",
	KindOptional: "optional",
	KindUnion:    "union",
	KindEffect:   "effect",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Format is a semantic constraint declared on a string schema.
type Format string

const (
	FormatNone     Format = ""
	FormatUUID     Format = "uuid"
	FormatEmail    Format = "email"
	FormatURL      Format = "url"
	FormatDateTime Format = "datetime"
)

// Node describes the declared shape of a schema.
//
// Which fields are meaningful depends on Kind:
//   - KindObject: Fields (declaration order)
//   - KindArray: Elem (nil when the element shape is unknown)
//   - KindOptional, KindEffect: Inner
//   - KindUnion: Options
//   - KindString: Format, Enum
type Node struct {
	Kind        Kind
	Format      Format
	Enum        []any
	Fields      []Field
	Elem        *Node
	Inner       *Node
	Options     []*Node
	Description string
}

// Field is a named member of an object Node.
type Field struct {
	Name string
	Node *Node
}

// Schema is a validator that can also describe its own shape.
type Schema interface {
	// Engine reports which implementation backs the schema.
	Engine() Engine
	// Validate checks data and returns the parsed (possibly coerced) value.
	// Validation failures are reported as *ValidationError.
	Validate(ctx context.Context, data any) (any, error)
	// Shape returns the declared structure. Callers must not modify it.
	Shape() *Node
}

// Issue codes reported by the engines.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeInvalidString = "invalid_string"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeInvalidEnum   = "invalid_enum_value"
	CodeInvalidUnion  = "invalid_union"
	CodeCustom        = "custom"
)

// Issue is a single validation problem.
type Issue struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// PathString joins the issue path with dots, e.g. "items.0.name".
func (i Issue) PathString() string {
	return strings.Join(i.Path, ".")
}

// ValidationError is returned by Validate when data does not satisfy a schema.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "validation failed"
	case 1:
		if p := e.Issues[0].PathString(); p != "" {
			return fmt.Sprintf("validation failed: %s: %s", p, e.Issues[0].Message)
		}
		return fmt.Sprintf("validation failed: %s", e.Issues[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d issues", len(e.Issues))
	}
}

// Unwrap strips Optional and Effect layers and returns the innermost node.
// The second result reports whether an Optional layer was crossed.
func Unwrap(n *Node) (inner *Node, optional bool) {
	for n != nil {
		switch n.Kind {
		case KindOptional:
			optional = true
			n = n.Inner
		case KindEffect:
			n = n.Inner
		default:
			return n, optional
		}
	}
	return nil, optional
}
