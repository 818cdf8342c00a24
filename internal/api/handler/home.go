package handler

import (
	"fmt"
	"net/http"

	"github.com/whoyou/whoyou/internal/api/render"
)

const homeDescription = `WhoYou is a simple accounts and teams directory for web
applications. It stores user accounts and team memberships and serves them
over a web resource API in JSON, plain text or HTML.

Use the links to browse your account, and (for site administrators) the
account and team lists. The **/doc** resource describes the API itself.`

type homeData struct {
	Resource string `json:"resource"`
	Version  string `json:"version"`
	Descr    string `json:"descr"`
}

// HomeHandler serves the home page.
type HomeHandler struct {
	renderer *render.Renderer
	version  string
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(renderer *render.Renderer, version string) *HomeHandler {
	return &HomeHandler{renderer: renderer, version: version}
}

// Get handles GET /.
func (h *HomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)

	format, ok := render.Negotiate(r, 0, false)
	if !ok {
		render.NotAcceptable(w)
		return
	}

	links, err := navLinks(r.Context(), d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build home page", err)
		return
	}

	h.renderer.Write(w, http.StatusOK, format, "home", render.Page{
		Title: fmt.Sprintf("WhoYou %s", h.version),
		Login: login.Name,
		Links: links,
		Data: homeData{
			Resource: "Home",
			Version:  h.version,
			Descr:    homeDescription,
		},
	})
}
