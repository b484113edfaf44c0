package schema

import (
	"context"
)

// Type is a schema built with the native DSL. Types are immutable: every
// modifier returns a new Type and leaves the receiver untouched, so a Type
// can be shared by any number of routes and requests.
type Type struct {
	kind        Kind
	format      Format
	enum        []any
	props       []Prop
	elem        *Type
	inner       *Type
	options     []*Type
	min, max    *float64
	coerce      bool
	refine      func(ctx context.Context, value any) bool
	message     string
	transform   func(ctx context.Context, value any) (any, error)
	description string
}

// Prop is a named member of an Object type.
type Prop struct {
	Name string
	Type *Type
}

var _ Schema = (*Type)(nil)

// P is shorthand for declaring an object member.
func P(name string, t *Type) Prop {
	return Prop{Name: name, Type: t}
}

func String() *Type { return &Type{kind: KindString} }

func Number() *Type { return &Type{kind: KindNumber} }

// Int accepts whole numbers only and produces int64 values.
func Int() *Type { return &Type{kind: KindInteger} }

func Bool() *Type { return &Type{kind: KindBoolean} }

// Date accepts time.Time values and RFC 3339 (or YYYY-MM-DD) strings and
// produces time.Time values.
func Date() *Type { return &Type{kind: KindDate} }

// Any accepts every value unchanged. Its shape is reported as unknown.
func Any() *Type { return &Type{kind: KindUnknown} }

// Enum is a string restricted to the given values.
func Enum(values ...string) *Type {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &Type{kind: KindString, enum: enum}
}

// Object declares a map with the given members. Members are reported in
// declaration order and undeclared keys are stripped from parsed output.
func Object(props ...Prop) *Type {
	return &Type{kind: KindObject, props: append([]Prop(nil), props...)}
}

// Array declares a list whose elements all satisfy elem.
func Array(elem *Type) *Type {
	return &Type{kind: KindArray, elem: elem}
}

// Union accepts a value satisfying any of the options; the first matching
// option produces the parsed value.
func Union(options ...*Type) *Type {
	return &Type{kind: KindUnion, options: append([]*Type(nil), options...)}
}

func (t *Type) clone() *Type {
	c := *t
	return &c
}

func (t *Type) withFormat(f Format) *Type {
	c := t.clone()
	c.format = f
	return c
}

func (t *Type) UUID() *Type { return t.withFormat(FormatUUID) }

func (t *Type) Email() *Type { return t.withFormat(FormatEmail) }

func (t *Type) URL() *Type { return t.withFormat(FormatURL) }

// DateTime requires an RFC 3339 timestamp string.
func (t *Type) DateTime() *Type { return t.withFormat(FormatDateTime) }

// Min sets the lower bound: length for strings and arrays, value for numbers.
func (t *Type) Min(n float64) *Type {
	c := t.clone()
	c.min = &n
	return c
}

// Max sets the upper bound: length for strings and arrays, value for numbers.
func (t *Type) Max(n float64) *Type {
	c := t.clone()
	c.max = &n
	return c
}

// Coerce makes primitives accept string input (query strings, path params,
// headers) and parse it into the declared type. On arrays it wraps a single
// scalar into a one-element list.
func (t *Type) Coerce() *Type {
	c := t.clone()
	c.coerce = true
	return c
}

// Describe attaches a human readable description to the shape.
func (t *Type) Describe(description string) *Type {
	c := t.clone()
	c.description = description
	return c
}

// Optional allows the value to be absent or null.
func (t *Type) Optional() *Type {
	return &Type{kind: KindOptional, inner: t}
}

// Refine wraps the type with a predicate evaluated on the parsed value.
// message is reported when the predicate returns false.
func (t *Type) Refine(fn func(ctx context.Context, value any) bool, message string) *Type {
	return &Type{kind: KindEffect, inner: t, refine: fn, message: message}
}

// Transform wraps the type with a function mapping the parsed value to a new one.
func (t *Type) Transform(fn func(ctx context.Context, value any) (any, error)) *Type {
	return &Type{kind: KindEffect, inner: t, transform: fn}
}

// Kind reports the discriminant of the outermost layer.
func (t *Type) Kind() Kind { return t.kind }

func (t *Type) Engine() Engine { return EngineNative }

// Shape builds the Node tree for the type.
func (t *Type) Shape() *Node {
	if t == nil {
		return nil
	}
	n := &Node{
		Kind:        t.kind,
		Format:      t.format,
		Description: t.description,
	}
	if len(t.enum) > 0 {
		n.Enum = append([]any(nil), t.enum...)
	}
	switch t.kind {
	case KindObject:
		n.Fields = make([]Field, 0, len(t.props))
		for _, p := range t.props {
			n.Fields = append(n.Fields, Field{Name: p.Name, Node: p.Type.Shape()})
		}
	case KindArray:
		n.Elem = t.elem.Shape()
	case KindOptional, KindEffect:
		n.Inner = t.inner.Shape()
	case KindUnion:
		n.Options = make([]*Node, 0, len(t.options))
		for _, o := range t.options {
			n.Options = append(n.Options, o.Shape())
		}
	}
	return n
}
