package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const jsonSchemaResource = "schema.json"

// JSONSchema is a Schema backed by a compiled JSON Schema document.
// Documents without a $schema keyword are compiled as draft-07.
type JSONSchema struct {
	compiled *jsonschema.Schema
}

var _ Schema = (*JSONSchema)(nil)

// FromJSONSchema compiles a JSON Schema document. Format keywords are asserted.
func FromJSONSchema(raw []byte) (*JSONSchema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	compiler.AssertFormat()
	if err := compiler.AddResource(jsonSchemaResource, doc); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	compiled, err := compiler.Compile(jsonSchemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &JSONSchema{compiled: compiled}, nil
}

// MustJSONSchema is like FromJSONSchema but panics on error. It is meant for
// schemas declared at route registration time.
func MustJSONSchema(raw string) *JSONSchema {
	s, err := FromJSONSchema([]byte(raw))
	if err != nil {
		panic(err)
	}
	return s
}

func (s *JSONSchema) Engine() Engine { return EngineJSONSchema }

// Validate normalizes data to its JSON representation and validates it.
// The normalized value is returned as the parsed output.
func (s *JSONSchema) Validate(ctx context.Context, data any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for JSON schema validation: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode value for JSON schema validation: %w", err)
	}

	if err := s.compiled.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, &ValidationError{Issues: jsonSchemaIssues(ve)}
		}
		return nil, err
	}
	return inst, nil
}

var issuePrinter = message.NewPrinter(language.English)

func jsonSchemaIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectJSONSchemaIssues(ve, &issues)
	if len(issues) == 0 {
		issues = append(issues, Issue{Code: CodeCustom, Path: []string{}, Message: ve.Error()})
	}
	return issues
}

func collectJSONSchemaIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectJSONSchemaIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	location := append([]string{}, ve.InstanceLocation...)
	if required, ok := ve.ErrorKind.(*kind.Required); ok {
		for _, missing := range required.Missing {
			*issues = append(*issues, Issue{
				Code:    CodeRequired,
				Path:    append(append([]string{}, location...), missing),
				Message: "Required",
			})
		}
		return
	}

	*issues = append(*issues, Issue{
		Code:    keywordCode(ve.ErrorKind.KeywordPath()),
		Path:    location,
		Message: ve.ErrorKind.LocalizedString(issuePrinter),
	})
}

func keywordCode(keywordPath []string) string {
	if len(keywordPath) == 0 {
		return CodeCustom
	}
	switch keywordPath[len(keywordPath)-1] {
	case "type":
		return CodeInvalidType
	case "required":
		return CodeRequired
	case "format", "pattern":
		return CodeInvalidString
	case "minimum", "exclusiveMinimum", "minLength", "minItems", "minProperties":
		return CodeTooSmall
	case "maximum", "exclusiveMaximum", "maxLength", "maxItems", "maxProperties":
		return CodeTooBig
	case "enum", "const":
		return CodeInvalidEnum
	case "oneOf", "anyOf":
		return CodeInvalidUnion
	default:
		return CodeCustom
	}
}

// Shape converts the compiled document into a Node tree. Members not listed
// in "required" are wrapped as optional, and a "null" entry in a type list
// makes the value optional. Recursive references resolve to unknown nodes.
func (s *JSONSchema) Shape() *Node {
	return jsonSchemaNode(s.compiled, make(map[*jsonschema.Schema]bool))
}

func jsonSchemaNode(s *jsonschema.Schema, visiting map[*jsonschema.Schema]bool) *Node {
	if s == nil || visiting[s] {
		return &Node{Kind: KindUnknown}
	}
	visiting[s] = true
	defer delete(visiting, s)

	types := jsonSchemaTypes(s)
	if len(types) == 0 {
		switch {
		case s.Ref != nil:
			return jsonSchemaNode(s.Ref, visiting)
		case len(s.OneOf) > 0:
			return jsonSchemaUnion(s.OneOf, visiting)
		case len(s.AnyOf) > 0:
			return jsonSchemaUnion(s.AnyOf, visiting)
		case len(s.AllOf) > 0:
			return jsonSchemaNode(s.AllOf[0], visiting)
		}
		return &Node{Kind: KindUnknown, Description: s.Description}
	}

	nullable := false
	primary := ""
	for _, t := range types {
		if t == "null" {
			nullable = true
			continue
		}
		if primary == "" {
			primary = t
		}
	}

	n := &Node{Description: s.Description}
	switch primary {
	case "string":
		n.Kind = KindString
		n.Format = jsonSchemaFormat(s)
	case "number":
		n.Kind = KindNumber
	case "integer":
		n.Kind = KindInteger
	case "boolean":
		n.Kind = KindBoolean
	case "object":
		n.Kind = KindObject
		n.Fields = jsonSchemaFields(s, visiting)
	case "array":
		n.Kind = KindArray
		if items := jsonSchemaItems(s); items != nil {
			n.Elem = jsonSchemaNode(items, visiting)
		}
	default:
		n.Kind = KindUnknown
	}
	if s.Enum != nil {
		n.Enum = append([]any(nil), s.Enum.Values...)
	}

	if nullable {
		return &Node{Kind: KindOptional, Inner: n}
	}
	return n
}

func jsonSchemaTypes(s *jsonschema.Schema) []string {
	if s.Types == nil || s.Types.IsEmpty() {
		return nil
	}
	return s.Types.ToStrings()
}

func jsonSchemaUnion(options []*jsonschema.Schema, visiting map[*jsonschema.Schema]bool) *Node {
	n := &Node{Kind: KindUnion, Options: make([]*Node, 0, len(options))}
	for _, o := range options {
		n.Options = append(n.Options, jsonSchemaNode(o, visiting))
	}
	return n
}

func jsonSchemaFields(s *jsonschema.Schema, visiting map[*jsonschema.Schema]bool) []Field {
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	// JSON objects are unordered; sort for deterministic output.
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		node := jsonSchemaNode(s.Properties[name], visiting)
		if !required[name] && node.Kind != KindOptional {
			node = &Node{Kind: KindOptional, Inner: node}
		}
		fields = append(fields, Field{Name: name, Node: node})
	}
	return fields
}

func jsonSchemaItems(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Items2020 != nil {
		return s.Items2020
	}
	if items, ok := s.Items.(*jsonschema.Schema); ok {
		return items
	}
	return nil
}

func jsonSchemaFormat(s *jsonschema.Schema) Format {
	if s.Format == nil {
		return FormatNone
	}
	switch s.Format.Name {
	case "uuid":
		return FormatUUID
	case "email", "idn-email":
		return FormatEmail
	case "uri", "iri", "url":
		return FormatURL
	case "date-time":
		return FormatDateTime
	default:
		return FormatNone
	}
}
