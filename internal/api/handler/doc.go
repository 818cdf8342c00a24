package handler

import (
	_ "embed"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/whoyou/whoyou/internal/api/middleware"
	"github.com/whoyou/whoyou/internal/api/render"
)

//go:embed api.yaml
var apiSpecYAML []byte

// DocHandler serves the API description. Text clients get the raw YAML,
// everyone else gets it converted to JSON on first request.
type DocHandler struct {
	rawYAML  []byte
	jsonOnce sync.Once
	jsonSpec []byte
	jsonErr  error
}

// NewDocHandler creates a handler serving the embedded API description.
func NewDocHandler() *DocHandler {
	return &DocHandler{rawYAML: apiSpecYAML}
}

// Get handles GET /doc.
func (h *DocHandler) Get(w http.ResponseWriter, r *http.Request) {
	format, ok := render.Negotiate(r, 0, false)
	if !ok {
		render.NotAcceptable(w)
		return
	}

	if format == render.Text {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(h.rawYAML); err != nil {
			slog.Error("failed to write API doc response", "error", err)
		}
		return
	}

	h.jsonOnce.Do(func() {
		h.jsonSpec, h.jsonErr = yaml.YAMLToJSON(h.rawYAML)
	})
	if h.jsonErr != nil {
		slog.Error("failed to convert API doc to JSON", "error", h.jsonErr)
		requestID := middleware.GetRequestID(r.Context())
		render.Error(w, format, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert API doc", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		slog.Error("failed to write API doc response", "error", err)
	}
}
