package petstore

import (
	"context"
	"strings"
	"time"

	"github.com/vaso991/echo-schema-swagger/schema"
)

// MaxPhotoSize is the largest accepted photo upload in bytes.
const MaxPhotoSize = 5 << 20

// CreatePetRequest is the body of POST /pets.
type CreatePetRequest struct {
	Name   string     `json:"name" validate:"required,min=1,max=64" doc:"Display name"`
	Status string     `json:"status" validate:"required,oneof=available pending sold" doc:"Adoption status"`
	Tags   []string   `json:"tags,omitempty" doc:"Free-form labels"`
	Born   *time.Time `json:"born,omitempty" doc:"Date of birth"`
}

var (
	petIDParams = schema.Object(
		schema.P("id", schema.String().UUID().Describe("Pet identifier")),
	)

	listQuery = schema.Object(
		schema.P("limit", schema.Int().Coerce().Min(1).Max(100).Optional().Describe("Maximum number of pets")),
		schema.P("status", schema.Enum(Statuses...).Optional()),
		schema.P("tags", schema.Array(schema.String()).Coerce().Optional().Describe("Pets must carry every tag")),
	)

	photoShape = schema.Object(
		schema.P("filename", schema.String()),
		schema.P("size", schema.Int()),
		schema.P("contentType", schema.String()),
		schema.P("caption", schema.String().Optional()),
	)

	petShape = schema.Object(
		schema.P("id", schema.String().UUID()),
		schema.P("name", schema.String()),
		schema.P("status", schema.Enum(Statuses...)),
		schema.P("tags", schema.Array(schema.String())),
		schema.P("born", schema.Date().Optional()),
		schema.P("photos", schema.Array(photoShape)),
	)

	petListShape = schema.Array(petShape)

	createPetBody = schema.FromStruct[CreatePetRequest]()

	updatePetBody = schema.MustJSONSchema(`{
		"type": "object",
		"description": "Fields to change",
		"minProperties": 1,
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 64},
			"status": {"type": "string", "enum": ["available", "pending", "sold"]},
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}`)

	photoBody = schema.Object(
		schema.P("caption", schema.String().Max(140).Optional()),
	)

	uploadedPhoto = schema.Object(
		schema.P("filename", schema.String().Min(1)),
		schema.P("size", schema.Int().Max(MaxPhotoSize)),
		schema.P("contentType", schema.Enum("image/png", "image/jpeg", "image/gif")),
	)

	photoFiles = schema.Object(
		schema.P("photo", uploadedPhoto),
		schema.P("extras", schema.Union(schema.Array(uploadedPhoto).Max(4), uploadedPhoto).Optional()),
	)

	adminHeader = schema.Object(
		schema.P("authorization", schema.String().Refine(isBearer, "Expected a bearer token").Describe("Bearer token")),
	)

	statsShape = schema.Object(
		schema.P("available", schema.Int()),
		schema.P("pending", schema.Int()),
		schema.P("sold", schema.Int()),
	)
)

func isBearer(_ context.Context, v any) bool {
	s, _ := v.(string)
	token, ok := strings.CutPrefix(s, "Bearer ")
	return ok && strings.TrimSpace(token) != ""
}
