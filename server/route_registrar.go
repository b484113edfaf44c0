package server

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// RouteRegistrar registers routes on Echo and records them, with their
// handler chains, in a RouteRegistry.
type RouteRegistrar interface {
	// Add registers handler for one method. Layers run in order before it.
	Add(method, path string, handler echo.HandlerFunc, layers ...Layer) *echo.Route
	// Match registers the same chain for several methods as a single route.
	Match(methods []string, path string, handler echo.HandlerFunc, layers ...Layer) []*echo.Route
	// Group returns a registrar for prefix. Its layers run before route layers.
	Group(prefix string, layers ...Layer) RouteRegistrar
	// Use appends layers for routes added afterwards.
	Use(layers ...Layer)
	// FullPath resolves path against the registrar prefix.
	FullPath(path string) string
	// Prefix is the combined group prefix, "" at the root.
	Prefix() string
}

type routeGroup struct {
	group    *echo.Group
	prefix   string
	layers   []Layer
	registry *RouteRegistry
}

func newRouteGroup(group *echo.Group, prefix string, registry *RouteRegistry) RouteRegistrar {
	return &routeGroup{
		group:    group,
		prefix:   normalizePrefix(prefix),
		registry: registry,
	}
}

func (rg *routeGroup) Add(method, path string, handler echo.HandlerFunc, layers ...Layer) *echo.Route {
	return rg.Match([]string{method}, path, handler, layers...)[0]
}

func (rg *routeGroup) Match(methods []string, path string, handler echo.HandlerFunc, layers ...Layer) []*echo.Route {
	stack := make([]Layer, 0, len(rg.layers)+len(layers)+1)
	stack = append(stack, rg.layers...)
	stack = append(stack, layers...)

	chain := middlewareChain(stack)
	relative := rg.relativePath(path)
	routes := make([]*echo.Route, 0, len(methods))
	for _, method := range methods {
		routes = append(routes, rg.group.Add(method, relative, handler, chain...))
	}

	name := ""
	if len(routes) > 0 {
		name = routes[0].Name
	}
	stack = append(stack, Layer{Name: name, Handler: handler})
	rg.registry.Register(&RouteDescriptor{
		Methods: append([]string(nil), methods...),
		Path:    rg.FullPath(path),
		Prefix:  rg.prefix,
		Name:    name,
		Stack:   stack,
	})
	return routes
}

func (rg *routeGroup) Group(prefix string, layers ...Layer) RouteRegistrar {
	normalized := normalizePrefix(prefix)
	return &routeGroup{
		group:    rg.group.Group(normalized),
		prefix:   rg.combinePrefix(normalized),
		layers:   append(append([]Layer(nil), rg.layers...), layers...),
		registry: rg.registry,
	}
}

func (rg *routeGroup) Use(layers ...Layer) {
	rg.layers = append(rg.layers, layers...)
}

func (rg *routeGroup) Prefix() string {
	return rg.prefix
}

func (rg *routeGroup) FullPath(path string) string {
	relative := rg.relativePath(path)
	if relative == "" {
		if rg.prefix == "" {
			return "/"
		}
		return rg.prefix
	}
	return rg.prefix + relative
}

// relativePath accepts paths with or without the group prefix.
func (rg *routeGroup) relativePath(path string) string {
	normalized := ensureLeadingSlash(path)
	if normalized == "/" {
		return ""
	}
	if trimmed, ok := stripPathPrefix(normalized, rg.prefix); ok {
		return trimmed
	}
	return normalized
}

func (rg *routeGroup) combinePrefix(suffix string) string {
	if suffix == "" {
		return rg.prefix
	}
	return rg.prefix + suffix
}

func ensureLeadingSlash(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

func stripPathPrefix(path, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return path, false
	}
	remainder := strings.TrimPrefix(path, prefix)
	if remainder == "" || strings.HasPrefix(remainder, "/") {
		return remainder, true
	}
	return path, false
}
