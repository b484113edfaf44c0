package openapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vaso991/echo-schema-swagger/schema"
	"github.com/vaso991/echo-schema-swagger/server"
)

func TestBuildResponsesDefaults(t *testing.T) {
	r := BuildResponses(nil)
	assert.Equal(t, DefaultStatusCodes, r.Codes())
	assert.Equal(t, "OK", *r.Get(http.StatusOK).Description)
	assert.Equal(t, "Created", *r.Get(http.StatusCreated).Description)
	assert.Equal(t, "Bad Request", *r.Get(http.StatusBadRequest).Description)
	assert.Equal(t, "Internal Server Error", *r.Get(http.StatusInternalServerError).Description)
	assert.Nil(t, r.Get(http.StatusOK).Content)
}

func TestBuildResponsesContract(t *testing.T) {
	r := BuildResponses(&server.ResponseContract{
		Description:         "The pet",
		PossibleStatusCodes: []int{404, 200, 799},
		Body:                schema.Object(schema.P("id", schema.Int())),
	})

	assert.Equal(t, []int{404, 200, 799}, r.Codes())
	first := r.Get(404)
	assert.Equal(t, "The pet", *first.Description)
	require.Contains(t, first.Content, MediaTypeJSON)
	assert.Equal(t, TypeObject, first.Content[MediaTypeJSON].Schema.Value.Type)

	assert.Equal(t, "OK", *r.Get(200).Description)
	assert.Nil(t, r.Get(200).Content)
	assert.Equal(t, "Unknown Status Code", *r.Get(799).Description)
}

func TestBuildResponsesDuplicateCodes(t *testing.T) {
	r := BuildResponses(&server.ResponseContract{PossibleStatusCodes: []int{200, 200, 400}})
	assert.Equal(t, []int{200, 400}, r.Codes())
}

func TestResponsesEncodeInOrder(t *testing.T) {
	r := BuildResponses(&server.ResponseContract{PossibleStatusCodes: []int{500, 201, 404}})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"500":{"description":"Internal Server Error"},"201":{"description":"Created"},"404":{"description":"Not Found"}}`,
		string(data))

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &node))
	require.Len(t, node.Content, 1)
	mapping := node.Content[0]
	var keys []string
	for i := 0; i < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	assert.Equal(t, []string{"500", "201", "404"}, keys)
	assert.Equal(t, "!!str", mapping.Content[0].Tag)
}
