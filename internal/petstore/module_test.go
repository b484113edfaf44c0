package petstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaso991/echo-schema-swagger/config"
	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/openapi"
	"github.com/vaso991/echo-schema-swagger/server"
)

const unknownPetID = "1f0c9a5e-7a55-4d53-9a51-3e8f4a6f2f10"

type fixture struct {
	srv   *server.Server
	store *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		App:    config.AppConfig{Name: "petstore-test", Env: config.EnvDevelopment},
		Server: config.ServerConfig{Path: config.PathConfig{Health: "/health"}},
	}
	srv, err := server.New(cfg, logger.Nop())
	require.NoError(t, err)

	store := NewStore()
	NewModule(store, logger.Nop()).RegisterRoutes(srv.Registrar(), srv.Validator())
	return &fixture{srv: srv, store: store}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return f.do(req)
}

func decodePet(t *testing.T, rec *httptest.ResponseRecorder) Pet {
	t.Helper()
	var p Pet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func issueCodes(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var issues []struct {
		Code string   `json:"code"`
		Path []string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issues))
	codes := make([]string, 0, len(issues))
	for _, i := range issues {
		codes = append(codes, i.Code)
	}
	return codes
}

func TestCreatePet(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name         string
		body         string
		expectStatus int
	}{
		{name: "valid", body: `{"name":"Rex","status":"available","tags":["dog"],"born":"2020-05-01T00:00:00Z"}`, expectStatus: http.StatusCreated},
		{name: "missing_name", body: `{"status":"available"}`, expectStatus: http.StatusBadRequest},
		{name: "unknown_status", body: `{"name":"Rex","status":"lost"}`, expectStatus: http.StatusBadRequest},
		{name: "malformed_json", body: `{"name":`, expectStatus: http.StatusBadRequest},
		{name: "duplicate_name", body: `{"name":"rex","status":"pending"}`, expectStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doJSON(http.MethodPost, "/pets", tt.body)
			assert.Equal(t, tt.expectStatus, rec.Code, rec.Body.String())
		})
	}

	pets := f.store.List(ListFilter{})
	require.Len(t, pets, 1)
	assert.Equal(t, "Rex", pets[0].Name)
	require.NotNil(t, pets[0].Born)
	assert.Equal(t, 2020, pets[0].Born.Year())
}

func TestCreatePetConflictBody(t *testing.T) {
	f := newFixture(t)
	mustCreate(t, f.store, NewPet{Name: "Rex"})

	rec := f.doJSON(http.MethodPost, "/pets", `{"name":"REX","status":"available"}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var resp server.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
	assert.Len(t, f.store.List(ListFilter{}), 1)
}

func TestGetPet(t *testing.T) {
	f := newFixture(t)
	rex := mustCreate(t, f.store, NewPet{Name: "Rex"})

	rec := f.doJSON(http.MethodGet, "/pets/"+rex.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rex, decodePet(t, rec))

	rec = f.doJSON(http.MethodGet, "/pets/"+unknownPetID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.doJSON(http.MethodGet, "/pets/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"invalid_string"}, issueCodes(t, rec))
}

func TestListPets(t *testing.T) {
	f := newFixture(t)
	mustCreate(t, f.store, NewPet{Name: "a", Tags: []string{"dog", "small"}})
	mustCreate(t, f.store, NewPet{Name: "b", Status: StatusSold, Tags: []string{"dog"}})
	mustCreate(t, f.store, NewPet{Name: "c", Tags: []string{"cat"}})

	tests := []struct {
		name         string
		query        string
		expectStatus int
		expectNames  []string
	}{
		{name: "all", query: "", expectStatus: http.StatusOK, expectNames: []string{"a", "b", "c"}},
		{name: "coerced_limit", query: "?limit=2", expectStatus: http.StatusOK, expectNames: []string{"a", "b"}},
		{name: "single_tag", query: "?tags=dog", expectStatus: http.StatusOK, expectNames: []string{"a", "b"}},
		{name: "repeated_tags", query: "?tags=dog&tags=small", expectStatus: http.StatusOK, expectNames: []string{"a"}},
		{name: "status", query: "?status=sold", expectStatus: http.StatusOK, expectNames: []string{"b"}},
		{name: "limit_too_big", query: "?limit=500", expectStatus: http.StatusBadRequest},
		{name: "limit_not_a_number", query: "?limit=many", expectStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doJSON(http.MethodGet, "/pets"+tt.query, "")
			require.Equal(t, tt.expectStatus, rec.Code, rec.Body.String())
			if tt.expectStatus != http.StatusOK {
				return
			}
			var pets []Pet
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pets))
			names := []string{}
			for _, p := range pets {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.expectNames, names)
		})
	}
}

func TestUpdatePet(t *testing.T) {
	f := newFixture(t)
	rex := mustCreate(t, f.store, NewPet{Name: "Rex", Tags: []string{"dog"}})
	mustCreate(t, f.store, NewPet{Name: "Tom"})

	tests := []struct {
		name         string
		id           string
		body         string
		expectStatus int
	}{
		{name: "change_status", id: rex.ID, body: `{"status":"pending"}`, expectStatus: http.StatusOK},
		{name: "clear_tags", id: rex.ID, body: `{"tags":[]}`, expectStatus: http.StatusOK},
		{name: "empty_patch", id: rex.ID, body: `{}`, expectStatus: http.StatusBadRequest},
		{name: "unknown_field", id: rex.ID, body: `{"owner":"me"}`, expectStatus: http.StatusBadRequest},
		{name: "unknown_pet", id: unknownPetID, body: `{"name":"Ghost"}`, expectStatus: http.StatusNotFound},
		{name: "name_taken", id: rex.ID, body: `{"name":"tom"}`, expectStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doJSON(http.MethodPut, "/pets/"+tt.id, tt.body)
			assert.Equal(t, tt.expectStatus, rec.Code, rec.Body.String())
		})
	}

	got, err := f.store.Get(rex.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "Rex", got.Name)
	assert.Empty(t, got.Tags)
}

func TestDeletePet(t *testing.T) {
	f := newFixture(t)
	rex := mustCreate(t, f.store, NewPet{Name: "Rex"})

	assert.Equal(t, http.StatusNoContent, f.doJSON(http.MethodDelete, "/pets/"+rex.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, f.doJSON(http.MethodDelete, "/pets/"+rex.ID, "").Code)
}

type upload struct {
	field       string
	filename    string
	contentType string
	size        int
}

func photoRequest(t *testing.T, id, caption string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if caption != "" {
		require.NoError(t, w.WriteField("caption", caption))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set(echo.HeaderContentType, f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0x1}, f.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/pets/"+id+"/photos", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadPhotos(t *testing.T) {
	f := newFixture(t)
	rex := mustCreate(t, f.store, NewPet{Name: "Rex"})

	rec := f.do(photoRequest(t, rex.ID, "at the beach",
		upload{field: "photo", filename: "beach.png", contentType: "image/png", size: 16},
		upload{field: "extras", filename: "a.jpg", contentType: "image/jpeg", size: 8},
		upload{field: "extras", filename: "b.jpg", contentType: "image/jpeg", size: 8},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	pet := decodePet(t, rec)
	require.Len(t, pet.Photos, 3)
	assert.Equal(t, Photo{Filename: "beach.png", Size: 16, ContentType: "image/png", Caption: "at the beach"}, pet.Photos[0])
	assert.Equal(t, "b.jpg", pet.Photos[2].Filename)

	tests := []struct {
		name  string
		files []upload
	}{
		{name: "missing_photo", files: []upload{{field: "extras", filename: "a.jpg", contentType: "image/jpeg", size: 8}}},
		{name: "wrong_type", files: []upload{{field: "photo", filename: "a.txt", contentType: "text/plain", size: 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(photoRequest(t, rex.ID, "", tt.files...))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	mustCreate(t, f.store, NewPet{Name: "a", Status: StatusSold})

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", http.NoBody)
	req.Header.Set(echo.HeaderAuthorization, "Bearer secret")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":0,"pending":0,"sold":1}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/admin/stats", http.NoBody)
	req.Header.Set(echo.HeaderAuthorization, "Basic abc")
	rec = f.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"custom"}, issueCodes(t, rec))
}

func TestDocumentDescribesRoutes(t *testing.T) {
	f := newFixture(t)
	paths := openapi.Generate(f.srv.Routes().Routes())

	require.Contains(t, paths, "/pets")
	require.Contains(t, paths, "/pets/{id}")
	require.Contains(t, paths, "/pets/{id}/photos")
	require.Contains(t, paths, "/admin/stats")

	assert.ElementsMatch(t, []string{"get", "post"}, keys(paths["/pets"]))
	assert.ElementsMatch(t, []string{"get", "put", "delete"}, keys(paths["/pets/{id}"]))

	create := paths["/pets"]["post"]
	require.NotNil(t, create.RequestBody)
	body := create.RequestBody.Content[openapi.MediaTypeJSON].Schema.Value
	assert.ElementsMatch(t, []string{"name", "status"}, body.Required)
	assert.Equal(t, []any{StatusAvailable, StatusPending, StatusSold}, body.Properties["status"].Value.Enum)
	assert.Equal(t, []int{http.StatusCreated, http.StatusBadRequest, http.StatusConflict}, create.Responses.Codes())

	upload := paths["/pets/{id}/photos"]["post"]
	require.Contains(t, upload.RequestBody.Content, openapi.MediaTypeMultipart)
	assert.Equal(t, []string{"/pets"}, upload.Tags)

	stats := paths["/admin/stats"]["get"]
	require.Len(t, stats.Parameters, 1)
	assert.Equal(t, openapi.InHeader, stats.Parameters[0].In)
	assert.Equal(t, "authorization", stats.Parameters[0].Name)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
