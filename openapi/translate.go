// Package openapi turns the routes recorded by the server package into an
// OpenAPI 3.0 path document and serves it.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/vaso991/echo-schema-swagger/schema"
)

// JSON types used in descriptions.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Formats used in descriptions.
const (
	FormatUUID     = "uuid"
	FormatEmail    = "email"
	FormatURI      = "uri"
	FormatDateTime = "date-time"
	FormatBinary   = "binary"
)

// FieldDescription is the structural description of a schema shape.
// SchemaRef turns it into the schema object written to documents.
type FieldDescription struct {
	Type        string                       `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string                       `json:"format,omitempty" yaml:"format,omitempty"`
	Description string                       `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []any                        `json:"enum,omitempty" yaml:"enum,omitempty"`
	Properties  map[string]*FieldDescription `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string                     `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *FieldDescription            `json:"items,omitempty" yaml:"items,omitempty"`

	// IsRequired reports whether the described value was not optional.
	// It decides membership in the parent's Required list.
	IsRequired bool `json:"-" yaml:"-"`
}

// SchemaRef converts d into the document schema. A nil description yields nil.
func (d *FieldDescription) SchemaRef() *openapi3.SchemaRef {
	if d == nil {
		return nil
	}
	s := &openapi3.Schema{
		Type:        d.Type,
		Format:      d.Format,
		Description: d.Description,
		Enum:        append([]any(nil), d.Enum...),
		Required:    append([]string(nil), d.Required...),
		Items:       d.Items.SchemaRef(),
	}
	if len(d.Properties) > 0 {
		s.Properties = make(openapi3.Schemas, len(d.Properties))
		for name, prop := range d.Properties {
			s.Properties[name] = prop.SchemaRef()
		}
	}
	return openapi3.NewSchemaRef("", s)
}

// Translate describes the shape of s. A nil schema yields nil.
func Translate(s schema.Schema) *FieldDescription {
	if s == nil {
		return nil
	}
	return TranslateNode(s.Shape())
}

// TranslateNode describes n. Effects are transparent and optional layers
// clear IsRequired. Shapes without a JSON counterpart become plain strings.
func TranslateNode(n *schema.Node) *FieldDescription {
	required := true
	description := ""
	for n != nil && (n.Kind == schema.KindOptional || n.Kind == schema.KindEffect) {
		if n.Kind == schema.KindOptional {
			required = false
		}
		if description == "" {
			description = n.Description
		}
		n = n.Inner
	}

	d := describe(n)
	if d.Description == "" {
		d.Description = description
	}
	d.IsRequired = required
	return d
}

func describe(n *schema.Node) *FieldDescription {
	if n == nil {
		return &FieldDescription{Type: TypeString}
	}

	d := &FieldDescription{Description: n.Description}
	if len(n.Enum) > 0 {
		d.Enum = append([]any(nil), n.Enum...)
	}

	switch n.Kind {
	case schema.KindString:
		d.Type = TypeString
		d.Format = stringFormat(n.Format)
	case schema.KindDate:
		d.Type = TypeString
		d.Format = FormatDateTime
	case schema.KindNumber:
		d.Type = TypeNumber
	case schema.KindInteger:
		d.Type = TypeInteger
	case schema.KindBoolean:
		d.Type = TypeBoolean
	case schema.KindObject:
		d.Type = TypeObject
		for _, f := range n.Fields {
			child := TranslateNode(f.Node)
			if d.Properties == nil {
				d.Properties = make(map[string]*FieldDescription, len(n.Fields))
			}
			d.Properties[f.Name] = child
			if child.IsRequired {
				d.Required = append(d.Required, f.Name)
			}
		}
	case schema.KindArray:
		d.Type = TypeArray
		d.Items = itemsOf(n.Elem)
	case schema.KindUnion:
		// The first option stands for the whole union.
		if len(n.Options) == 0 {
			d.Type = TypeString
			break
		}
		first := TranslateNode(n.Options[0])
		if first.Description == "" {
			first.Description = n.Description
		}
		return first
	default:
		d.Type = TypeString
	}
	return d
}

// itemsOf describes an array element; an unknown element is described by
// the empty (any) schema.
func itemsOf(elem *schema.Node) *FieldDescription {
	inner, _ := schema.Unwrap(elem)
	if inner == nil || inner.Kind == schema.KindUnknown {
		return &FieldDescription{}
	}
	return TranslateNode(elem)
}

func stringFormat(f schema.Format) string {
	switch f {
	case schema.FormatUUID:
		return FormatUUID
	case schema.FormatEmail:
		return FormatEmail
	case schema.FormatURL:
		return FormatURI
	case schema.FormatDateTime:
		return FormatDateTime
	default:
		return ""
	}
}
