package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
)

var templateFuncs = template.FuncMap{
	"money": func(amount float64) string {
		return fmt.Sprintf("₹%.2f", amount)
	},
	"lower": strings.ToLower,
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
}

// Renderer executes page and partial templates. Pages get a full layout;
// partials are HTMX fragment responses.
type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseGlob("web/templates/*.html"))
	return &Renderer{
		templates: tmpl,
		logger:    logger,
	}
}

func (re *Renderer) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := re.templates.ExecuteTemplate(w, name, data); err != nil {
		re.logger.Error("render template", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (re *Renderer) RenderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := re.templates.ExecuteTemplate(w, name, data); err != nil {
		re.logger.Error("render partial", "template", name, "error", err)
		fmt.Fprintf(w, `<div class="alert alert-error">Template error</div>`)
	}
}
