package openapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/vaso991/echo-schema-swagger/server"
)

// DefaultStatusCodes are documented when a route declares none.
var DefaultStatusCodes = []int{http.StatusOK, http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError}

const unknownStatusText = "Unknown Status Code"

// Responses maps status codes to responses and keeps their declared order
// when encoded. openapi3.Responses is a plain map and loses that order.
type Responses struct {
	codes   []int
	entries map[int]*openapi3.Response
}

// NewResponses creates an empty response set.
func NewResponses() *Responses {
	return &Responses{entries: make(map[int]*openapi3.Response)}
}

// Set adds or replaces the response for code. New codes are appended.
func (r *Responses) Set(code int, resp *openapi3.Response) {
	if _, ok := r.entries[code]; !ok {
		r.codes = append(r.codes, code)
	}
	r.entries[code] = resp
}

// Get returns the response for code, or nil.
func (r *Responses) Get(code int) *openapi3.Response {
	return r.entries[code]
}

// Codes returns the status codes in declared order.
func (r *Responses) Codes() []int {
	return append([]int(nil), r.codes...)
}

// Len returns the number of responses.
func (r *Responses) Len() int {
	return len(r.codes)
}

// MarshalJSON encodes the responses as an object keyed by status code.
func (r *Responses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, code := range r.codes {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(code)))
		buf.WriteByte(':')
		value, err := json.Marshal(r.entries[code])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the responses as an ordered mapping.
func (r *Responses) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, code := range r.codes {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strconv.Itoa(code)}
		value := &yaml.Node{}
		if err := value.Encode(r.entries[code]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

// StatusText returns the reason phrase for code, or "Unknown Status Code".
func StatusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return unknownStatusText
}

// BuildResponses describes the responses of a route. The description and
// body of the contract apply to the first status code only.
func BuildResponses(contract *server.ResponseContract) *Responses {
	codes := DefaultStatusCodes
	if contract != nil && len(contract.PossibleStatusCodes) > 0 {
		codes = contract.PossibleStatusCodes
	}

	out := NewResponses()
	for _, code := range codes {
		if out.Get(code) == nil {
			out.Set(code, openapi3.NewResponse().WithDescription(StatusText(code)))
		}
	}
	if contract == nil {
		return out
	}

	first := out.Get(codes[0])
	if contract.Description != "" {
		first.WithDescription(contract.Description)
	}
	if body := Translate(contract.Body); body != nil {
		first.WithJSONSchemaRef(body.SchemaRef())
	}
	return out
}
