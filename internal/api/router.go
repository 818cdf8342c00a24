package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/whoyou/whoyou/internal/api/handler"
	"github.com/whoyou/whoyou/internal/api/middleware"
	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/credential"
	"github.com/whoyou/whoyou/internal/directory"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Store                  directory.Store
	Hasher                 *credential.Hasher
	Renderer               *render.Renderer
	MinPasswordLength      int
	AllowPasswordlessLogin bool
	Version                string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.WithDirectory(deps.Store, deps.Hasher, deps.AllowPasswordlessLogin))
	r.Use(middleware.Auth(deps.AllowPasswordlessLogin))

	homeHandler := handler.NewHomeHandler(deps.Renderer, deps.Version)
	accountHandler := handler.NewAccountHandler(deps.Renderer, deps.MinPasswordLength)
	teamHandler := handler.NewTeamHandler(deps.Renderer)
	docHandler := handler.NewDocHandler()

	r.Get("/", homeHandler.Get)
	r.Get("/doc", docHandler.Get)

	r.Get("/accounts", accountHandler.List)
	r.Get("/account", accountHandler.CreateForm)
	r.Post("/account", accountHandler.Create)
	r.Get("/account/{name}", accountHandler.Get)
	r.Get("/account/{name}/edit", accountHandler.EditForm)
	r.Post("/account/{name}/edit", accountHandler.Edit)

	r.Get("/teams", teamHandler.List)
	r.Get("/team", teamHandler.CreateForm)
	r.Post("/team", teamHandler.Create)
	r.Get("/team/{name}", teamHandler.Get)
	r.Get("/team/{name}/edit", teamHandler.EditForm)
	r.Post("/team/{name}/edit", teamHandler.Edit)

	return r
}
