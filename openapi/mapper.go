package openapi

import (
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/vaso991/echo-schema-swagger/server"
)

// documentedMethods are the methods that produce operations, lower-cased.
var documentedMethods = []string{"get", "put", "patch", "post", "delete"}

// Operation is an OpenAPI operation object. Unlike openapi3.Operation it
// always writes the parameter list and keeps responses in declared order.
type Operation struct {
	Summary     string                `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string              `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []*openapi3.Parameter `json:"parameters" yaml:"parameters"`
	RequestBody *openapi3.RequestBody `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   *Responses            `json:"responses" yaml:"responses"`
}

// Paths maps a path template to its operations keyed by lower-case method.
type Paths map[string]map[string]*Operation

// Generate builds the path document for routes. A route is documented under
// the first of its methods that is get, put, patch, post or delete; other
// routes are skipped. A later route with the same path and method replaces
// an earlier one.
func Generate(routes []server.RouteDescriptor) Paths {
	paths := make(Paths)
	for i := range routes {
		method, ok := documentedMethod(routes[i].Methods)
		if !ok {
			continue
		}

		op := BuildOperation(&routes[i])
		path := formatPath(routes[i].Path, op.Parameters)
		if paths[path] == nil {
			paths[path] = make(map[string]*Operation)
		}
		paths[path][method] = op
	}
	return paths
}

// BuildOperation describes one route from the validator bundle found in its
// handler chain. Routes without a bundle get the default responses only.
func BuildOperation(route *server.RouteDescriptor) *Operation {
	props := findProps(route.Stack)

	op := &Operation{Parameters: []*openapi3.Parameter{}}
	if route.Prefix != "" {
		op.Tags = []string{route.Prefix}
	}
	if props == nil {
		op.Responses = BuildResponses(nil)
		return op
	}

	assembly := Assemble(props)
	op.Summary = props.Summary
	op.Description = props.Description
	op.Parameters = assembly.Parameters
	op.RequestBody = assembly.Body
	op.Responses = BuildResponses(props.Response)
	return op
}

func findProps(stack []server.Layer) *server.ValidatorProps {
	v, ok := server.FindAnnotation(stack, server.ValidatorPropsKey)
	if !ok {
		return nil
	}
	props, _ := v.(*server.ValidatorProps)
	return props
}

func documentedMethod(methods []string) (string, bool) {
	for _, m := range methods {
		lower := strings.ToLower(m)
		if slices.Contains(documentedMethods, lower) {
			return lower, true
		}
	}
	return "", false
}

// formatPath rewrites ":name" segments to "{name}" for declared path parameters.
func formatPath(path string, params []*openapi3.Parameter) string {
	names := make(map[string]struct{})
	for _, p := range params {
		if p.In == InPath {
			names[p.Name] = struct{}{}
		}
	}
	if len(names) == 0 {
		return path
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		name, ok := strings.CutPrefix(seg, ":")
		if !ok {
			continue
		}
		if _, declared := names[name]; declared {
			segments[i] = "{" + name + "}"
		}
	}
	return strings.Join(segments, "/")
}
