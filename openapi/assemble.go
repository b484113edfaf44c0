package openapi

import (
	"slices"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/vaso991/echo-schema-swagger/schema"
	"github.com/vaso991/echo-schema-swagger/server"
)

// Parameter locations.
const (
	InPath   = openapi3.ParameterInPath
	InQuery  = openapi3.ParameterInQuery
	InHeader = openapi3.ParameterInHeader
)

// Media types.
const (
	MediaTypeJSON      = "application/json"
	MediaTypeMultipart = "multipart/form-data"
)

// Assembly is the parameter list and request body derived from a bundle.
type Assembly struct {
	Parameters []*openapi3.Parameter
	Body       *openapi3.RequestBody
}

// Assemble derives parameters (path, query, header, in that order) and the
// request body from props. A nil bundle yields an empty assembly.
func Assemble(props *server.ValidatorProps) Assembly {
	out := Assembly{Parameters: []*openapi3.Parameter{}}
	if props == nil {
		return out
	}

	out.Parameters = appendParameters(out.Parameters, InPath, props.Params)
	out.Parameters = appendParameters(out.Parameters, InQuery, props.Query)
	out.Parameters = appendParameters(out.Parameters, InHeader, props.Header)
	out.Body = assembleBody(props.Body, props.Files)
	return out
}

func appendParameters(params []*openapi3.Parameter, in string, s schema.Schema) []*openapi3.Parameter {
	if s == nil {
		return params
	}
	root, optional := schema.Unwrap(s.Shape())
	if root == nil || root.Kind != schema.KindObject {
		return params
	}
	return appendObjectParameters(params, in, "", root, !optional)
}

// appendObjectParameters adds one parameter per leaf of obj. Nested objects
// are flattened into dotted names ("filter.status"); a leaf is required only
// when all its ancestors are.
func appendObjectParameters(params []*openapi3.Parameter, in, prefix string, obj *schema.Node, ancestorsRequired bool) []*openapi3.Parameter {
	for _, f := range obj.Fields {
		d := TranslateNode(f.Node)
		required := ancestorsRequired && d.IsRequired
		name := prefix + f.Name

		if inner, _ := schema.Unwrap(f.Node); inner != nil && inner.Kind == schema.KindObject {
			params = appendObjectParameters(params, in, name+".", inner, required)
			continue
		}

		p := &openapi3.Parameter{
			In:          in,
			Name:        name,
			Description: d.Description,
			Required:    required,
		}
		if d.Type == TypeArray {
			p.Explode = openapi3.BoolPtr(true)
			if d.Items == nil {
				d.Items = &FieldDescription{}
			}
		}
		p.Schema = d.SchemaRef()
		params = append(params, p)
	}
	return params
}

func assembleBody(body schema.Schema, files map[string]server.FileRule) *openapi3.RequestBody {
	hasFiles := len(files) > 0
	if body == nil && !hasFiles {
		return nil
	}

	d := Translate(body)
	if d == nil {
		d = &FieldDescription{Type: TypeObject, IsRequired: true}
	}

	contentType := MediaTypeJSON
	if hasFiles {
		contentType = MediaTypeMultipart
		mergeFiles(d, files)
	}
	return &openapi3.RequestBody{Content: openapi3.Content{
		contentType: &openapi3.MediaType{Schema: d.SchemaRef()},
	}}
}

// mergeFiles adds a binary property per file field, in key order.
func mergeFiles(d *FieldDescription, files map[string]server.FileRule) {
	if d.Type == "" {
		d.Type = TypeObject
	}
	if d.Properties == nil {
		d.Properties = make(map[string]*FieldDescription, len(files))
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		rule := files[name]
		if rule.Skip {
			continue
		}
		binary := &FieldDescription{Type: TypeString, Format: FormatBinary}
		if rule.Multiple {
			d.Properties[name] = &FieldDescription{Type: TypeArray, Items: binary, IsRequired: !rule.Optional}
		} else {
			binary.IsRequired = !rule.Optional
			d.Properties[name] = binary
		}
		switch {
		case rule.Optional:
			d.Required = slices.DeleteFunc(d.Required, func(r string) bool { return r == name })
		case !slices.Contains(d.Required, name):
			d.Required = append(d.Required, name)
		}
	}
}
