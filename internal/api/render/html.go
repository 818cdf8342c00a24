package render

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds the parsed HTML templates. One Renderer serves the whole
// process; it is read-only after New.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"markdown": markdown,
		"selected": func(values []string, option string) bool {
			for _, v := range values {
				if v == option {
					return true
				}
			}
			return false
		},
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (rd *Renderer) writeHTML(w http.ResponseWriter, status int, name string, page Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.templates.ExecuteTemplate(w, name+".html", page); err != nil {
		slog.Error("failed to execute template", "template", name, "error", err)
	}
}
