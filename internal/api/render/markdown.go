package render

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/yuin/goldmark"
)

// markdown converts a markdown description to HTML for the detail views.
// On conversion failure the source is shown escaped rather than lost.
func markdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		slog.Warn("markdown conversion failed", "error", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(buf.String())
}
