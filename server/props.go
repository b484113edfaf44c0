package server

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vaso991/echo-schema-swagger/schema"
)

// ValidatorPropsKey is the layer annotation holding *ValidatorProps.
const ValidatorPropsKey = "validator.props"

// ValidatorProps is the validation bundle attached to a route. Every field is
// optional. A bundle must not be modified once passed to Validate.
type ValidatorProps struct {
	Summary     string
	Description string

	Query  schema.Schema
	Params schema.Schema
	Header schema.Schema
	Body   schema.Schema

	// Files documents multipart file fields by name.
	Files map[string]FileRule
	// FilesValidator validates the uploaded files, keyed by field name.
	FilesValidator schema.Schema

	Response *ResponseContract

	// Assign overrides the process-wide policy when set.
	Assign AssignPolicy
}

// ResponseContract documents (and optionally validates) the response.
type ResponseContract struct {
	// Description replaces the description of the first status code.
	Description string
	// PossibleStatusCodes replaces the default 200, 201, 400, 500.
	PossibleStatusCodes []int
	// Body documents the payload of the first status code.
	Body schema.Schema
	// Validate checks the JSON response body against Body after the handler ran.
	Validate bool
}

// FileRule describes one multipart file field.
type FileRule struct {
	// Skip omits the field from the document.
	Skip bool
	// Multiple documents an array of files.
	Multiple bool
	// Optional documents the field as not required.
	Optional bool
}

var (
	// FileRequired is a single required file.
	FileRequired = FileRule{}
	// FileOptional is a single optional file.
	FileOptional = FileRule{Optional: true}
	// FileMultiple is a required list of files.
	FileMultiple = FileRule{Multiple: true}
	// FileSkip excludes the field.
	FileSkip = FileRule{Skip: true}
)

// Assign targets.
const (
	TargetQuery  = "query"
	TargetParams = "params"
	TargetHeader = "header"
	TargetBody   = "body"
	TargetFiles  = "files"
)

var allTargets = []string{TargetQuery, TargetParams, TargetHeader, TargetBody, TargetFiles}

// AssignPolicy selects the request parts whose parsed values replace the
// raw ones. The zero value is unset and defers to the next level.
type AssignPolicy struct {
	set     bool
	targets []string
}

// AssignAll writes back every part.
func AssignAll() AssignPolicy {
	return AssignPolicy{set: true, targets: allTargets}
}

// AssignNone writes back nothing.
func AssignNone() AssignPolicy {
	return AssignPolicy{set: true}
}

// AssignTargets writes back the named parts only. Unknown names are ignored.
func AssignTargets(targets ...string) AssignPolicy {
	p := AssignPolicy{set: true}
	for _, t := range targets {
		t = strings.TrimSpace(strings.ToLower(t))
		if slices.Contains(allTargets, t) && !slices.Contains(p.targets, t) {
			p.targets = append(p.targets, t)
		}
	}
	return p
}

// IsSet reports whether the policy was explicitly configured.
func (p AssignPolicy) IsSet() bool { return p.set }

// Has reports whether target is written back.
func (p AssignPolicy) Has(target string) bool {
	return slices.Contains(p.targets, target)
}

// Targets returns the written back parts.
func (p AssignPolicy) Targets() []string {
	return append([]string(nil), p.targets...)
}

func (p AssignPolicy) String() string {
	if !p.set {
		return "unset"
	}
	if len(p.targets) == 0 {
		return "none"
	}
	return strings.Join(p.targets, ",")
}

// ParseAssignPolicy converts a configuration value: nil (unset), a bool,
// "all", "none", a comma separated list, or a list of target names.
func ParseAssignPolicy(v any) (AssignPolicy, error) {
	switch value := v.(type) {
	case nil:
		return AssignPolicy{}, nil
	case AssignPolicy:
		return value, nil
	case bool:
		if value {
			return AssignAll(), nil
		}
		return AssignNone(), nil
	case string:
		switch strings.TrimSpace(strings.ToLower(value)) {
		case "":
			return AssignPolicy{}, nil
		case "all", "true":
			return AssignAll(), nil
		case "none", "false":
			return AssignNone(), nil
		}
		return parseTargets(strings.Split(value, ","))
	case []string:
		return parseTargets(value)
	case []any:
		names := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return AssignPolicy{}, fmt.Errorf("assign target must be a string, got %T", item)
			}
			names = append(names, s)
		}
		return parseTargets(names)
	default:
		return AssignPolicy{}, fmt.Errorf("unsupported assign policy type %T", v)
	}
}

func parseTargets(names []string) (AssignPolicy, error) {
	for _, name := range names {
		if !slices.Contains(allTargets, strings.TrimSpace(strings.ToLower(name))) {
			return AssignPolicy{}, fmt.Errorf("unknown assign target %q (must be one of: %s)", name, strings.Join(allTargets, ", "))
		}
	}
	return AssignTargets(names...), nil
}
