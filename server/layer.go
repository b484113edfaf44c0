package server

import (
	"maps"

	"github.com/labstack/echo/v4"
)

// Layer is one element of a route's handler chain. A layer either wraps the
// next handler (Middleware), terminates the chain (Handler) or groups other
// layers (Stack). Annotations carry metadata that documentation tooling can
// discover without executing the chain.
type Layer struct {
	Name        string
	Middleware  echo.MiddlewareFunc
	Handler     echo.HandlerFunc
	Annotations map[string]any
	Stack       []Layer
}

// Use wraps a plain Echo middleware as a named layer.
func Use(name string, mw echo.MiddlewareFunc) Layer {
	return Layer{Name: name, Middleware: mw}
}

// Compose groups layers under a single name. The nested layers run in order.
func Compose(name string, layers ...Layer) Layer {
	return Layer{Name: name, Stack: append([]Layer(nil), layers...)}
}

// Annotate returns a copy of l with key set to value.
func (l Layer) Annotate(key string, value any) Layer {
	annotations := make(map[string]any, len(l.Annotations)+1)
	maps.Copy(annotations, l.Annotations)
	annotations[key] = value
	l.Annotations = annotations
	return l
}

// Annotation returns the value stored under key on this layer only.
func (l Layer) Annotation(key string) (any, bool) {
	v, ok := l.Annotations[key]
	return v, ok
}

// FindAnnotation searches stack depth-first and returns the first value
// stored under key.
func FindAnnotation(stack []Layer, key string) (any, bool) {
	for i := range stack {
		if v, ok := stack[i].Annotation(key); ok {
			return v, true
		}
		if v, ok := FindAnnotation(stack[i].Stack, key); ok {
			return v, true
		}
	}
	return nil, false
}

// middlewareChain flattens layers into Echo middleware, outermost first.
func middlewareChain(layers []Layer) []echo.MiddlewareFunc {
	var chain []echo.MiddlewareFunc
	for i := range layers {
		if layers[i].Middleware != nil {
			chain = append(chain, layers[i].Middleware)
		}
		chain = append(chain, middlewareChain(layers[i].Stack)...)
	}
	return chain
}

func cloneLayers(layers []Layer) []Layer {
	if layers == nil {
		return nil
	}
	out := make([]Layer, len(layers))
	for i := range layers {
		out[i] = layers[i]
		out[i].Stack = cloneLayers(layers[i].Stack)
	}
	return out
}
