package server

import (
	"sync"
)

// RouteDescriptor captures a registered route and its handler chain.
type RouteDescriptor struct {
	Methods []string // HTTP methods in registration order (GET, POST, ...)
	Path    string   // full path template, e.g. /api/pets/:id
	Prefix  string   // prefix of the group the route was added to, "" at the root
	Name    string   // optional route name
	Stack   []Layer  // group layers, route layers and the terminal handler layer
}

// RouteRegistry records routes in registration order.
type RouteRegistry struct {
	mu     sync.RWMutex
	routes []RouteDescriptor
}

// NewRouteRegistry creates an empty registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{}
}

// Register adds a copy of descriptor.
func (r *RouteRegistry) Register(descriptor *RouteDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, cloneDescriptor(descriptor))
}

// Routes returns a copy of all registered routes.
func (r *RouteRegistry) Routes() []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]RouteDescriptor, len(r.routes))
	for i := range r.routes {
		result[i] = cloneDescriptor(&r.routes[i])
	}
	return result
}

// ByPath returns routes registered for a path template.
func (r *RouteRegistry) ByPath(path string) []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []RouteDescriptor
	for i := range r.routes {
		if r.routes[i].Path == path {
			result = append(result, cloneDescriptor(&r.routes[i]))
		}
	}
	return result
}

// Clear removes all registered routes (useful for testing)
func (r *RouteRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
}

// Count returns the number of registered routes
func (r *RouteRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// cloneDescriptor deep-copies slice fields to prevent external mutation.
// Annotation maps are shared; they are never modified after registration.
func cloneDescriptor(d *RouteDescriptor) RouteDescriptor {
	if d == nil {
		return RouteDescriptor{}
	}
	out := *d
	if d.Methods != nil {
		out.Methods = append([]string(nil), d.Methods...)
	}
	out.Stack = cloneLayers(d.Stack)
	return out
}
