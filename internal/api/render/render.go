// Package render turns a handler-produced payload into the negotiated
// response representation. Handlers only build Page values; they never
// write bytes themselves.
package render

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"sigs.k8s.io/yaml"
)

// Format enumerates the supported response representations.
type Format int

const (
	JSON Format = iota
	Text
	HTML
)

// String returns the URL suffix for the format.
func (f Format) String() string {
	switch f {
	case Text:
		return "txt"
	case HTML:
		return "html"
	default:
		return "json"
	}
}

// ParseFormat maps a URL format suffix to a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "json":
		return JSON, true
	case "txt":
		return Text, true
	case "html":
		return HTML, true
	}
	return JSON, false
}

// Link is a navigation entry offered to the client.
type Link struct {
	Title    string `json:"title"`
	Resource string `json:"resource,omitempty"`
	Href     string `json:"href"`
}

// Page is the intermediate data structure every handler produces. The JSON
// and text representations serialize it as-is; the HTML representation
// feeds it to the named template.
type Page struct {
	Title string `json:"title"`
	Login string `json:"login,omitempty"`
	Links []Link `json:"links,omitempty"`
	Data  any    `json:"data"`
}

// Negotiate picks the response format. An explicit format suffix from the
// URL wins; otherwise the Accept header decides. The second return value is
// false when the client only accepts representations we cannot produce.
func Negotiate(r *http.Request, suffix Format, haveSuffix bool) (Format, bool) {
	if haveSuffix {
		return suffix, true
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		return JSON, true
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mediaType {
		case "application/json", "application/*":
			return JSON, true
		case "text/plain":
			return Text, true
		case "text/html", "application/xhtml+xml":
			return HTML, true
		case "*/*", "text/*":
			return JSON, true
		}
	}
	return JSON, false
}

// Write renders the page in the given format. The template name is only
// used for HTML.
func (rd *Renderer) Write(w http.ResponseWriter, status int, format Format, template string, page Page) {
	switch format {
	case Text:
		writeYAML(w, status, page)
	case HTML:
		rd.writeHTML(w, status, template, page)
	default:
		writeJSON(w, status, page)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeYAML(w http.ResponseWriter, status int, body any) {
	out, err := yaml.Marshal(body)
	if err != nil {
		slog.Error("failed to marshal text response", "error", err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		slog.Error("failed to write text response", "error", err)
	}
}

// NotAcceptable rejects a request whose Accept header matched no supported
// representation.
func NotAcceptable(w http.ResponseWriter) {
	http.Error(w, "no acceptable representation", http.StatusNotAcceptable)
}
