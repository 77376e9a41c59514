package apiserver

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger *zap.Logger
	spec   map[string]interface{}
	json   []byte
}

// NewOpenAPIHandler parses the embedded OpenAPI document
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger.Named("openapi")}

	if err := yaml.Unmarshal(openAPISpec, &h.spec); err != nil {
		h.logger.Error("Failed to parse OpenAPI spec", zap.Error(err))
		return h
	}
	raw, err := json.Marshal(h.spec)
	if err != nil {
		h.logger.Error("Failed to convert OpenAPI spec to JSON", zap.Error(err))
		return h
	}
	h.json = raw
	return h
}

// ServeOpenAPISpec serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPISpec)
}

// ServeOpenAPIJSON serves the OpenAPI document in JSON format
func (h *OpenAPIHandler) ServeOpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	if h.json == nil {
		http.Error(w, "OpenAPI spec not available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.json)
}

type docOperation struct {
	Method  string
	Path    string
	Summary string
	Secured bool
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;margin:2rem}td{padding:.3rem .8rem}code{font-weight:bold}</style>
</head>
<body>
<h1>{{.Title}} <small>{{.Version}}</small></h1>
<p>Machine readable: <a href="openapi.yaml">openapi.yaml</a>, <a href="openapi.json">openapi.json</a></p>
<table>
{{range .Operations}}<tr><td><code>{{.Method}}</code></td><td>{{.Path}}</td><td>{{.Summary}}</td><td>{{if .Secured}}🔒{{end}}</td></tr>
{{end}}</table>
</body>
</html>`))

// ServeDocs renders a plain HTML index of the documented operations
func (h *OpenAPIHandler) ServeDocs(w http.ResponseWriter, _ *http.Request) {
	info, _ := h.spec["info"].(map[string]interface{})
	data := struct {
		Title      string
		Version    interface{}
		Operations []docOperation
	}{
		Title:      "Gourmet Guru API",
		Version:    info["version"],
		Operations: h.operations(),
	}
	if title, ok := info["title"].(string); ok {
		data.Title = title
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := docsTemplate.Execute(w, data); err != nil {
		h.logger.Error("Failed to render API docs", zap.Error(err))
	}
}

func (h *OpenAPIHandler) operations() []docOperation {
	paths, _ := h.spec["paths"].(map[string]interface{})

	var ops []docOperation
	for path, item := range paths {
		methods, _ := item.(map[string]interface{})
		for method, raw := range methods {
			op, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			summary, _ := op["summary"].(string)
			_, secured := op["security"]
			ops = append(ops, docOperation{
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: summary,
				Secured: secured,
			})
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops
}
