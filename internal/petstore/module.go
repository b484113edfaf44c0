package petstore

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/server"
)

// Module registers the pet routes.
type Module struct {
	store  *Store
	logger logger.Logger
}

// NewModule creates a module backed by store.
func NewModule(store *Store, log logger.Logger) *Module {
	if log == nil {
		log = logger.Nop()
	}
	return &Module{store: store, logger: log}
}

// RegisterRoutes adds the pet routes under /pets and the admin routes under
// /admin.
func (m *Module) RegisterRoutes(r server.RouteRegistrar, v *server.RequestValidator) {
	pets := r.Group("/pets")

	pets.Add(http.MethodGet, "", m.listPets, v.Validate(&server.ValidatorProps{
		Summary: "List pets",
		Query:   listQuery,
		Response: &server.ResponseContract{
			Description:         "Matching pets",
			PossibleStatusCodes: []int{http.StatusOK, http.StatusBadRequest},
			Body:                petListShape,
			Validate:            true,
		},
		Assign: server.AssignTargets(server.TargetQuery),
	}))

	pets.Add(http.MethodPost, "", m.createPet, v.Validate(&server.ValidatorProps{
		Summary: "Create a pet",
		Body:    createPetBody,
		Response: &server.ResponseContract{
			Description:         "The created pet",
			PossibleStatusCodes: []int{http.StatusCreated, http.StatusBadRequest, http.StatusConflict},
			Body:                petShape,
		},
		Assign: server.AssignTargets(server.TargetBody),
	}))

	pets.Add(http.MethodGet, "/:id", m.getPet, v.Validate(&server.ValidatorProps{
		Summary: "Get a pet",
		Params:  petIDParams,
		Response: &server.ResponseContract{
			PossibleStatusCodes: []int{http.StatusOK, http.StatusNotFound},
			Body:                petShape,
			Validate:            true,
		},
	}))

	pets.Add(http.MethodPut, "/:id", m.updatePet, v.Validate(&server.ValidatorProps{
		Summary:     "Update a pet",
		Description: "Changes only the fields present in the body.",
		Params:      petIDParams,
		Body:        updatePetBody,
		Response: &server.ResponseContract{
			PossibleStatusCodes: []int{http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
			Body:                petShape,
		},
		Assign: server.AssignTargets(server.TargetBody),
	}))

	pets.Add(http.MethodDelete, "/:id", m.deletePet, v.Validate(&server.ValidatorProps{
		Summary: "Delete a pet",
		Params:  petIDParams,
		Response: &server.ResponseContract{
			PossibleStatusCodes: []int{http.StatusNoContent, http.StatusNotFound},
		},
	}))

	pets.Add(http.MethodPost, "/:id/photos", m.uploadPhotos, v.Validate(&server.ValidatorProps{
		Summary: "Upload pet photos",
		Params:  petIDParams,
		Body:    photoBody,
		Files: map[string]server.FileRule{
			"photo":  server.FileRequired,
			"extras": {Multiple: true, Optional: true},
		},
		FilesValidator: photoFiles,
		Response: &server.ResponseContract{
			PossibleStatusCodes: []int{http.StatusCreated, http.StatusBadRequest, http.StatusNotFound},
			Body:                petShape,
		},
		Assign: server.AssignTargets(server.TargetBody, server.TargetFiles),
	}))

	admin := r.Group("/admin", server.Use("admin-audit", m.audit))
	admin.Add(http.MethodGet, "/stats", m.stats, v.Validate(&server.ValidatorProps{
		Summary: "Count pets by status",
		Header:  adminHeader,
		Response: &server.ResponseContract{
			PossibleStatusCodes: []int{http.StatusOK, http.StatusBadRequest},
			Body:                statsShape,
			Validate:            true,
		},
	}))
}

func (m *Module) listPets(c echo.Context) error {
	query := server.GetRequestData(c).Query

	var filter ListFilter
	if limit, ok := query["limit"].(int64); ok {
		filter.Limit = int(limit)
	}
	filter.Status, _ = query["status"].(string)
	filter.Tags = stringList(query["tags"])

	return c.JSON(http.StatusOK, m.store.List(filter))
}

func (m *Module) createPet(c echo.Context) error {
	req, ok := server.GetRequestData(c).Body.(CreatePetRequest)
	if !ok {
		return server.NewBadRequestError("invalid pet")
	}

	pet, err := m.store.Create(NewPet{Name: req.Name, Status: req.Status, Tags: req.Tags, Born: req.Born})
	if err != nil {
		return storeError(err)
	}
	m.logger.WithContext(c.Request().Context()).Info().
		Str("pet_id", pet.ID).
		Str("status", pet.Status).
		Msg("Pet created")
	return c.JSON(http.StatusCreated, pet)
}

func (m *Module) getPet(c echo.Context) error {
	pet, err := m.store.Get(c.Param("id"))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, pet)
}

func (m *Module) updatePet(c echo.Context) error {
	body, _ := server.GetRequestData(c).Body.(map[string]any)

	var patch PetPatch
	if name, ok := body["name"].(string); ok {
		patch.Name = &name
	}
	if status, ok := body["status"].(string); ok {
		patch.Status = &status
	}
	if _, ok := body["tags"]; ok {
		patch.Tags = stringList(body["tags"])
	}

	pet, err := m.store.Update(c.Param("id"), patch)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, pet)
}

func (m *Module) deletePet(c echo.Context) error {
	if err := m.store.Delete(c.Param("id")); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (m *Module) uploadPhotos(c echo.Context) error {
	data := server.GetRequestData(c)
	files, _ := data.Files.(map[string]any)
	if files["photo"] == nil {
		return server.NewBadRequestError("photo is required")
	}

	body, _ := data.Body.(map[string]any)
	caption, _ := body["caption"].(string)

	photos := []Photo{toPhoto(files["photo"], caption)}
	switch extras := files["extras"].(type) {
	case []any:
		for _, extra := range extras {
			photos = append(photos, toPhoto(extra, ""))
		}
	case map[string]any:
		photos = append(photos, toPhoto(extras, ""))
	}

	pet, err := m.store.AddPhotos(c.Param("id"), photos...)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, pet)
}

func (m *Module) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, m.store.CountByStatus())
}

func (m *Module) audit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		m.logger.WithContext(c.Request().Context()).Info().
			Str("http.route", c.Path()).
			Str("remote_ip", c.RealIP()).
			Msg("Admin route accessed")
		return next(c)
	}
}

func toPhoto(v any, caption string) Photo {
	f, _ := v.(map[string]any)
	p := Photo{Caption: caption}
	p.Filename, _ = f["filename"].(string)
	p.ContentType, _ = f["contentType"].(string)
	p.Size, _ = f["size"].(int64)
	return p
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{list}
	}
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrPetNotFound):
		return server.NewNotFoundError("pet")
	case errors.Is(err, ErrDuplicateName):
		return server.NewConflictError("a pet with this name already exists")
	}
	return err
}
