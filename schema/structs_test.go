package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type structOwner struct {
	Email string `json:"email" validate:"required,email"`
}

type structPet struct {
	ID       string       `json:"id" validate:"required,uuid" doc:"Pet identifier"`
	Name     string       `json:"name" validate:"required,min=2"`
	Kind     string       `json:"kind,omitempty" validate:"omitempty,oneof=dog cat"`
	Age      *int         `json:"age,omitempty" validate:"omitempty,gte=0"`
	Weight   float64      `json:"weight"`
	Born     time.Time    `json:"born"`
	Tags     []string     `json:"tags" validate:"dive,min=2"`
	Owner    *structOwner `json:"owner,omitempty" validate:"omitempty"`
	Vaccined bool         `json:"vaccined"`
}

type structTree struct {
	Children []structTree `json:"children"`
}

func TestFromStructPanicsOnNonStruct(t *testing.T) {
	assert.Panics(t, func() { FromStruct[string]() })
}

func TestStructValidate(t *testing.T) {
	s := FromStruct[structPet]()
	assert.Equal(t, EngineStruct, s.Engine())

	t.Run("decodes maps with weak typing", func(t *testing.T) {
		out, err := s.Validate(context.Background(), map[string]any{
			"id":     "0b6f3ad2-53f0-4e8b-9f0d-0e2b4c41a4d9",
			"name":   "rex",
			"age":    "4",
			"weight": 12.5,
			"born":   "2020-02-03T04:05:06Z",
			"tags":   []any{"good", "boy"},
		})
		require.NoError(t, err)
		pet, ok := out.(structPet)
		require.True(t, ok)
		assert.Equal(t, "rex", pet.Name)
		require.NotNil(t, pet.Age)
		assert.Equal(t, 4, *pet.Age)
		assert.Equal(t, []string{"good", "boy"}, pet.Tags)
		assert.Equal(t, 2020, pet.Born.Year())
	})

	t.Run("accepts typed values", func(t *testing.T) {
		out, err := s.Validate(context.Background(), &structPet{ID: "0b6f3ad2-53f0-4e8b-9f0d-0e2b4c41a4d9", Name: "rex"})
		require.NoError(t, err)
		assert.Equal(t, "rex", out.(structPet).Name)
	})

	t.Run("reports rule failures with json paths", func(t *testing.T) {
		_, err := s.Validate(context.Background(), map[string]any{
			"id":    "nope",
			"kind":  "cow",
			"tags":  []any{"ok", "x"},
			"owner": map[string]any{"email": "bad"},
		})
		issues := issuesOf(t, err)
		byPath := make(map[string]Issue, len(issues))
		for _, issue := range issues {
			byPath[issue.PathString()] = issue
		}
		assert.Equal(t, CodeInvalidString, byPath["id"].Code)
		assert.Equal(t, Issue{Code: CodeRequired, Path: []string{"name"}, Message: "Required"}, byPath["name"])
		assert.Equal(t, CodeInvalidEnum, byPath["kind"].Code)
		assert.Equal(t, CodeTooSmall, byPath["tags.1"].Code)
		assert.Equal(t, CodeInvalidString, byPath["owner.email"].Code)
	})

	t.Run("decode failures", func(t *testing.T) {
		_, err := s.Validate(context.Background(), map[string]any{"weight": "heavy"})
		issues := issuesOf(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, CodeInvalidType, issues[0].Code)
	})
}

func TestStructShape(t *testing.T) {
	n := FromStruct[structPet]().Shape()
	require.Equal(t, KindObject, n.Kind)

	fields := make(map[string]*Node)
	var names []string
	for _, f := range n.Fields {
		names = append(names, f.Name)
		fields[f.Name] = f.Node
	}
	assert.Equal(t, []string{"id", "name", "kind", "age", "weight", "born", "tags", "owner", "vaccined"}, names)

	assert.Equal(t, &Node{Kind: KindString, Format: FormatUUID, Description: "Pet identifier"}, fields["id"])
	assert.Equal(t, &Node{Kind: KindString}, fields["name"])

	kind, optional := Unwrap(fields["kind"])
	assert.True(t, optional)
	assert.Equal(t, []any{"dog", "cat"}, kind.Enum)

	age, optional := Unwrap(fields["age"])
	assert.True(t, optional)
	assert.Equal(t, KindInteger, age.Kind)

	weight, optional := Unwrap(fields["weight"])
	assert.True(t, optional, "no required rule")
	assert.Equal(t, KindNumber, weight.Kind)

	born, _ := Unwrap(fields["born"])
	assert.Equal(t, KindDate, born.Kind)

	tags, _ := Unwrap(fields["tags"])
	require.Equal(t, KindArray, tags.Kind)
	assert.Equal(t, KindString, tags.Elem.Kind)

	owner, optional := Unwrap(fields["owner"])
	assert.True(t, optional)
	require.Len(t, owner.Fields, 1)
	assert.Equal(t, &Node{Kind: KindString, Format: FormatEmail}, owner.Fields[0].Node)
}

func TestStructShapeRecursive(t *testing.T) {
	n := FromStruct[structTree]().Shape()
	children, _ := Unwrap(n.Fields[0].Node)
	require.Equal(t, KindArray, children.Kind)
	assert.Equal(t, KindUnknown, children.Elem.Kind)
}

func TestNamespacePath(t *testing.T) {
	tests := []struct {
		namespace string
		expected  []string
	}{
		{"Pet", []string{}},
		{"Pet.name", []string{"name"}},
		{"Pet.tags[1]", []string{"tags", "1"}},
		{"Pet.owner.email", []string{"owner", "email"}},
		{"Pet.items[0].name", []string{"items", "0", "name"}},
		{"Pet.labels[en]", []string{"labels", "en"}},
	}
	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			assert.Equal(t, tt.expected, namespacePath(tt.namespace))
		})
	}
}
