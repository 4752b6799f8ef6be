// Package web renders the letter pages from embedded html/template files.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutName = "layout.html"

// TemplateRenderer реализует render.HTMLRender для gin.
// Каждая страница парсится вместе с layout в отдельный набор шаблонов.
type TemplateRenderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer parses every page template at startup.
func NewTemplateRenderer(logger *zap.Logger, funcMap template.FuncMap) (*TemplateRenderer, error) {
	log := logger.Named("TemplateRenderer")
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == layoutName {
			continue
		}
		tmpl, err := template.New(layoutName).Funcs(funcMap).
			ParseFS(templatesFS, "templates/"+layoutName, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	log.Info("Templates loaded", zap.Int("count", len(pages)))
	return &TemplateRenderer{pages: pages, logger: log}, nil
}

// Instance implements render.HTMLRender.
func (t *TemplateRenderer) Instance(name string, data any) render.Render {
	tmpl, ok := t.pages[name]
	if !ok {
		t.logger.Error("Template not found", zap.String("templateName", name))
		return missingTemplate{name: name}
	}
	return render.HTML{Template: tmpl, Name: layoutName, Data: data}
}

type missingTemplate struct{ name string }

func (m missingTemplate) Render(http.ResponseWriter) error {
	return fmt.Errorf("template %s not found", m.name)
}

func (m missingTemplate) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}
