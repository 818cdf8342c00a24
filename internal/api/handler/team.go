package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/whoyou/whoyou/internal/access"
	"github.com/whoyou/whoyou/internal/api/form"
	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/api/validation"
	"github.com/whoyou/whoyou/internal/directory"
)

// TeamHandler handles the team resources.
type TeamHandler struct {
	renderer *render.Renderer
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(renderer *render.Renderer) *TeamHandler {
	return &TeamHandler{renderer: renderer}
}

func (h *TeamHandler) editForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "description", Kind: form.Text, Title: "Description"},
		{Name: "administrators", Kind: form.MultiSelect, Title: "Administrators",
			Descr: "Check the members who are to administer this team."},
		{Name: "url", Kind: form.Hidden, Descr: "Referring URL."},
	}}
}

func (h *TeamHandler) createForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "name", Kind: form.String, Title: "Name", Required: true,
			Descr: "Team name, which must be unique. May contain alphanumerical characters, dash (-), underscore (_) and dot (.)"},
		{Name: "description", Kind: form.Text, Title: "Description"},
	}}
}

// List handles GET /teams. Site admins only.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()

	format, ok := render.Negotiate(r, 0, false)
	if !ok {
		render.NotAcceptable(w)
		return
	}

	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return
	}
	if !siteAdmin {
		forbidden(w, format, login, requestID)
		return
	}

	teams, err := d.ListTeams(ctx)
	if err != nil {
		internalError(w, format, requestID, "Failed to list teams", err)
		return
	}

	views := make([]teamView, 0, len(teams))
	for i := range teams {
		members, admins, err := teamMembersView(ctx, d, &teams[i])
		if err != nil {
			internalError(w, format, requestID, "Failed to load team members", err)
			return
		}
		views = append(views, teamView{
			Name:        teams[i].Name,
			Description: teams[i].Description,
			Members:     members,
			Admins:      admins,
			Properties:  teams[i].Properties,
			Href:        teamHref(teams[i].Name),
		})
	}

	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	h.renderer.Write(w, http.StatusOK, format, "teams", render.Page{
		Title: "Teams",
		Login: login.Name,
		Links: links,
		Data: teamsData{
			Teams:      views,
			Operations: []render.Link{{Title: "Create team", Href: "/team"}},
		},
	})
}

// Get handles GET /team/{name}. Accessible to team members and site admins.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()
	segment := chi.URLParam(r, "name")

	team, suffix, haveSuffix, err := resolveTeam(ctx, d, segment)
	format, ok := render.Negotiate(r, suffix, haveSuffix)
	if !ok {
		render.NotAcceptable(w)
		return
	}
	if err != nil {
		if errors.Is(err, directory.ErrTeamNotFound) {
			notFound(w, format, "team", segment, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to resolve team", err)
		return
	}

	if err := h.authorizeMemberOrAdmin(w, r, format, team); err != nil {
		return
	}

	members, admins, err := teamMembersView(ctx, d, team)
	if err != nil {
		internalError(w, format, requestID, "Failed to load team members", err)
		return
	}
	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	h.renderer.Write(w, http.StatusOK, format, "team", render.Page{
		Title: fmt.Sprintf("Team %s", team.Name),
		Login: login.Name,
		Links: links,
		Data: teamData{
			Team: teamView{
				Name:        team.Name,
				Description: team.Description,
				Members:     members,
				Admins:      admins,
				Properties:  team.Properties,
				Href:        teamHref(team.Name),
			},
			Operations: []render.Link{{Title: "Edit team", Href: teamHref(team.Name) + "/edit"}},
		},
	})
}

// EditForm handles GET /team/{name}/edit. Team admins and site admins.
func (h *TeamHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()
	segment := chi.URLParam(r, "name")

	team, suffix, haveSuffix, err := resolveTeam(ctx, d, segment)
	format, ok := render.Negotiate(r, suffix, haveSuffix)
	if !ok {
		render.NotAcceptable(w)
		return
	}
	if err != nil {
		if errors.Is(err, directory.ErrTeamNotFound) {
			notFound(w, format, "team", segment, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to resolve team", err)
		return
	}

	if err := h.authorizeTeamAdmin(w, r, format, team); err != nil {
		return
	}

	members, admins, err := teamMembersView(ctx, d, team)
	if err != nil {
		internalError(w, format, requestID, "Failed to load team members", err)
		return
	}
	options := make([]string, 0, len(members))
	for _, m := range members {
		options = append(options, m.Name)
	}

	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	f := h.editForm().WithOptions("administrators", options, admins)
	h.renderer.Write(w, http.StatusOK, format, "form", render.Page{
		Title: fmt.Sprintf("Edit team %s", team.Name),
		Login: login.Name,
		Links: links,
		Data: formData{
			Fields: f.Fields,
			Values: map[string]string{"description": team.Description},
			Href:   teamHref(team.Name) + "/edit",
			Submit: "Modify team data",
			Cancel: teamHref(team.Name),
		},
	})
}

// Edit handles POST /team/{name}/edit. Team admins and site admins.
func (h *TeamHandler) Edit(w http.ResponseWriter, r *http.Request) {
	d, _, requestID := requestContext(r)
	ctx := r.Context()
	segment := chi.URLParam(r, "name")

	team, suffix, haveSuffix, err := resolveTeam(ctx, d, segment)
	format, ok := render.Negotiate(r, suffix, haveSuffix)
	if !ok {
		render.NotAcceptable(w)
		return
	}
	if err != nil {
		if errors.Is(err, directory.ErrTeamNotFound) {
			notFound(w, format, "team", segment, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to resolve team", err)
		return
	}

	if err := h.authorizeTeamAdmin(w, r, format, team); err != nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		render.Error(w, format, http.StatusBadRequest, "INVALID_FORM", "Request body must be a valid form", requestID)
		return
	}

	members, _, err := teamMembersView(ctx, d, team)
	if err != nil {
		internalError(w, format, requestID, "Failed to load team members", err)
		return
	}
	options := make([]string, 0, len(members))
	for _, m := range members {
		options = append(options, m.Name)
	}

	f := h.editForm().WithOptions("administrators", options, nil)
	values, fieldErrors := f.Parse(r.PostForm)
	if len(fieldErrors) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	team.Description = values.Get("description")
	if err := d.SaveTeam(ctx, team); err != nil {
		internalError(w, format, requestID, "Failed to save team", err)
		return
	}
	if err := d.SetTeamAdmins(ctx, team, values.List("administrators")); err != nil {
		internalError(w, format, requestID, "Failed to update team administrators", err)
		return
	}

	h.respondAfterWrite(w, r, format, team.Name, values.Get("url"), http.StatusOK)
}

// CreateForm handles GET /team. Site admins only.
func (h *TeamHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()

	format, ok := render.Negotiate(r, 0, false)
	if !ok {
		render.NotAcceptable(w)
		return
	}

	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return
	}
	if !siteAdmin {
		forbidden(w, format, login, requestID)
		return
	}

	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	f := h.createForm()
	h.renderer.Write(w, http.StatusOK, format, "form", render.Page{
		Title: "Create team",
		Login: login.Name,
		Links: links,
		Data: formData{
			Fields: f.Fields,
			Href:   "/team",
			Submit: "Enter data for new team",
			Cancel: "/teams",
		},
	})
}

// Create handles POST /team. Site admins only.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()

	format, ok := render.Negotiate(r, 0, false)
	if !ok {
		render.NotAcceptable(w)
		return
	}

	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return
	}
	if !siteAdmin {
		forbidden(w, format, login, requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		render.Error(w, format, http.StatusBadRequest, "INVALID_FORM", "Request body must be a valid form", requestID)
		return
	}

	values, fieldErrors := h.createForm().Parse(r.PostForm)
	if len(fieldErrors) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	name := strings.TrimSpace(values.Get("name"))
	if errs := validation.ValidateEntityName("name", name); len(errs) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, requestID)
		return
	}

	team, err := d.CreateTeam(ctx, name, values.Get("description"))
	if err != nil {
		if errors.Is(err, directory.ErrAlreadyExists) {
			message := fmt.Sprintf("team name %q already in use", name)
			render.Error(w, format, http.StatusBadRequest, "ALREADY_EXISTS", message, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to create team", err)
		return
	}

	h.respondAfterWrite(w, r, format, team.Name, "", http.StatusCreated)
}

// authorizeMemberOrAdmin enforces the team view predicate: a team member or
// a site admin.
func (h *TeamHandler) authorizeMemberOrAdmin(w http.ResponseWriter, r *http.Request, format render.Format, team *directory.Team) error {
	d, login, requestID := requestContext(r)
	ctx := r.Context()

	member, err := access.IsTeamMember(ctx, d, login, team)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return err
	}
	if member {
		return nil
	}
	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return err
	}
	if !siteAdmin {
		forbidden(w, format, login, requestID)
		return errors.New("forbidden")
	}
	return nil
}

// authorizeTeamAdmin enforces the team edit predicate: a team admin or a
// site admin.
func (h *TeamHandler) authorizeTeamAdmin(w http.ResponseWriter, r *http.Request, format render.Format, team *directory.Team) error {
	d, login, requestID := requestContext(r)
	ctx := r.Context()

	admin, err := access.IsTeamAdmin(ctx, d, login, team)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return err
	}
	if admin {
		return nil
	}
	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return err
	}
	if !siteAdmin {
		forbidden(w, format, login, requestID)
		return errors.New("forbidden")
	}
	return nil
}

func (h *TeamHandler) respondAfterWrite(w http.ResponseWriter, r *http.Request, format render.Format, name, redirect string, status int) {
	if format == render.HTML {
		if redirect == "" {
			redirect = teamHref(name)
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}

	d, login, requestID := requestContext(r)
	ctx := r.Context()
	team, err := d.GetTeam(ctx, name)
	if err != nil {
		internalError(w, format, requestID, "Failed to reload team", err)
		return
	}
	members, admins, err := teamMembersView(ctx, d, team)
	if err != nil {
		internalError(w, format, requestID, "Failed to load team members", err)
		return
	}
	h.renderer.Write(w, status, format, "team", render.Page{
		Title: fmt.Sprintf("Team %s", team.Name),
		Login: login.Name,
		Data: teamData{
			Team: teamView{
				Name:        team.Name,
				Description: team.Description,
				Members:     members,
				Admins:      admins,
				Properties:  team.Properties,
				Href:        teamHref(team.Name),
			},
		},
	})
}
