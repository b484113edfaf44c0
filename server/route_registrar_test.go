package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingLayer(name string, trace *[]string) Layer {
	return Use(name, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			*trace = append(*trace, name)
			return next(c)
		}
	})
}

func TestRouteGroupAddNormalizesPaths(t *testing.T) {
	e := echo.New()
	registry := NewRouteRegistry()
	rg := newRouteGroup(e.Group("/api"), "/api", registry)

	var hits int
	handler := func(c echo.Context) error {
		hits++
		return c.NoContent(http.StatusOK)
	}
	rg.Add(http.MethodGet, "/users", handler)
	rg.Add(http.MethodGet, "/api/orders", handler)
	rg.Add(http.MethodGet, "/", handler)

	for _, path := range []string{"/api/users", "/api/orders", "/api"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Equal(t, 3, hits)

	routes := registry.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/api/users", routes[0].Path)
	assert.Equal(t, "/api/orders", routes[1].Path)
	assert.Equal(t, "/api", routes[2].Path)
	assert.Equal(t, "/api", routes[0].Prefix)
}

func TestRouteGroupNestedPrefixAndLayers(t *testing.T) {
	e := echo.New()
	registry := NewRouteRegistry()
	var trace []string

	root := newRouteGroup(e.Group(""), "", registry)
	api := root.Group("/api", recordingLayer("api", &trace))
	v1 := api.Group("v1/", recordingLayer("v1", &trace))
	assert.Equal(t, "/api/v1", v1.Prefix())

	v1.Add(http.MethodGet, "/widgets", func(c echo.Context) error {
		trace = append(trace, "handler")
		return c.String(http.StatusOK, "widgets")
	}, recordingLayer("route", &trace))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/widgets", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api", "v1", "route", "handler"}, trace)

	routes := registry.ByPath("/api/v1/widgets")
	require.Len(t, routes, 1)
	stack := routes[0].Stack
	require.Len(t, stack, 4)
	assert.Equal(t, "api", stack[0].Name)
	assert.Equal(t, "v1", stack[1].Name)
	assert.Equal(t, "route", stack[2].Name)
	assert.NotNil(t, stack[3].Handler)
}

func TestRouteGroupUseAffectsLaterRoutesOnly(t *testing.T) {
	e := echo.New()
	registry := NewRouteRegistry()
	var trace []string
	rg := newRouteGroup(e.Group(""), "", registry)

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	rg.Add(http.MethodGet, "/before", ok)
	rg.Use(recordingLayer("late", &trace))
	rg.Add(http.MethodGet, "/after", ok)

	for _, path := range []string{"/before", "/after"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, []string{"late"}, trace)

	assert.Len(t, registry.ByPath("/before")[0].Stack, 1)
	assert.Len(t, registry.ByPath("/after")[0].Stack, 2)
}

func TestRouteGroupMatchRegistersOneDescriptor(t *testing.T) {
	e := echo.New()
	registry := NewRouteRegistry()
	rg := newRouteGroup(e.Group("/v2"), "v2", registry)

	routes := rg.Match([]string{http.MethodPut, http.MethodPatch}, "/pets/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	require.Len(t, routes, 2)

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, "/v2/pets/1", http.NoBody))
		assert.Equal(t, http.StatusNoContent, rec.Code, method)
	}

	require.Equal(t, 1, registry.Count())
	d := registry.Routes()[0]
	assert.Equal(t, []string{http.MethodPut, http.MethodPatch}, d.Methods)
	assert.Equal(t, "/v2/pets/:id", d.Path)
	assert.Equal(t, "/v2", d.Prefix)
}

func TestRouteGroupFullPath(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		path   string
		expect string
	}{
		{name: "root_slash", prefix: "", path: "/", expect: "/"},
		{name: "root_relative", prefix: "", path: "pets", expect: "/pets"},
		{name: "prefixed_slash", prefix: "/api", path: "/", expect: "/api"},
		{name: "prefixed_relative", prefix: "/api", path: "/pets", expect: "/api/pets"},
		{name: "already_prefixed", prefix: "/api", path: "/api/pets", expect: "/api/pets"},
		{name: "similar_prefix_not_stripped", prefix: "/api", path: "/apiary", expect: "/api/apiary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rg := newRouteGroup(echo.New().Group(tt.prefix), tt.prefix, NewRouteRegistry())
			assert.Equal(t, tt.expect, rg.FullPath(tt.path))
		})
	}
}
