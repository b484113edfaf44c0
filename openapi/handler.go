package openapi

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/vaso991/echo-schema-swagger/config"
	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/server"
)

// RouteAdder is satisfied by *echo.Echo and *echo.Group. Document routes
// are added directly so they stay out of the route registry.
type RouteAdder interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// HandlerConfig configures the document endpoints.
type HandlerConfig struct {
	// Path is the docs page; the documents are served at Path/openapi.json
	// and Path/openapi.yaml.
	Path string
	// Title is the page title.
	Title string
	// UI is config.UISwagger, config.UIRedoc or config.UINone.
	UI string
	// Meta is merged under the generated keys.
	Meta map[string]any
}

// Handler serves the path document of a route registry. The document is
// generated once, on the first request, so every route registered before
// serving starts is included.
type Handler struct {
	registry *server.RouteRegistry
	cfg      HandlerConfig
	logger   logger.Logger

	once     sync.Once
	jsonBody []byte
	yamlBody []byte
	buildErr error
}

// NewHandler creates a handler for registry.
func NewHandler(registry *server.RouteRegistry, cfg HandlerConfig, log logger.Logger) *Handler {
	cfg.Path = strings.TrimRight(cfg.Path, "/")
	if cfg.UI == "" {
		cfg.UI = config.UISwagger
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{registry: registry, cfg: cfg, logger: log}
}

// JSONPath is where the JSON document is served.
func (h *Handler) JSONPath() string { return h.cfg.Path + "/openapi.json" }

// YAMLPath is where the YAML document is served.
func (h *Handler) YAMLPath() string { return h.cfg.Path + "/openapi.yaml" }

// Register adds the document endpoints and, unless disabled, the docs page.
func (h *Handler) Register(r RouteAdder) {
	r.GET(h.JSONPath(), h.serveJSON)
	r.GET(h.YAMLPath(), h.serveYAML)
	if h.cfg.UI == config.UINone {
		return
	}
	page := h.cfg.Path
	if page == "" {
		page = "/"
	}
	r.GET(page, h.serveUI)
}

// Document generates the document for the current registry contents.
func (h *Handler) Document() map[string]any {
	return NewDocument(h.cfg.Meta, Generate(h.registry.Routes()))
}

func (h *Handler) build() {
	h.once.Do(func() {
		doc := h.Document()

		var jsonBuf, yamlBuf bytes.Buffer
		if err := WriteJSON(&jsonBuf, doc); err != nil {
			h.buildErr = err
			return
		}
		if err := WriteYAML(&yamlBuf, doc); err != nil {
			h.buildErr = err
			return
		}
		h.jsonBody = jsonBuf.Bytes()
		h.yamlBody = yamlBuf.Bytes()

		paths, _ := doc["paths"].(Paths)
		h.logger.Info().
			Int("paths", len(paths)).
			Str("json_path", h.JSONPath()).
			Msg("OpenAPI document generated")
	})
}

func (h *Handler) serveJSON(c echo.Context) error {
	h.build()
	if h.buildErr != nil {
		return server.NewInternalServerError("failed to generate OpenAPI document")
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, h.jsonBody)
}

func (h *Handler) serveYAML(c echo.Context) error {
	h.build()
	if h.buildErr != nil {
		return server.NewInternalServerError("failed to generate OpenAPI document")
	}
	return c.Blob(http.StatusOK, "application/yaml", h.yamlBody)
}

func (h *Handler) serveUI(c echo.Context) error {
	tmpl := swaggerUIPage
	if h.cfg.UI == config.UIRedoc {
		tmpl = redocPage
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Title":   h.cfg.Title,
		"SpecURL": h.JSONPath(),
	}); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

var swaggerUIPage = template.Must(template.New("swagger-ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "{{.SpecURL}}", dom_id: "#swagger-ui"});
</script>
</body>
</html>`))

var redocPage = template.Must(template.New("redoc").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
</head>
<body>
<redoc spec-url="{{.SpecURL}}"></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`))
