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

// maxFormBytes caps the size of submitted form bodies.
const maxFormBytes = 1 << 20

// AccountHandler handles the account resources.
type AccountHandler struct {
	renderer          *render.Renderer
	minPasswordLength int
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(renderer *render.Renderer, minPasswordLength int) *AccountHandler {
	return &AccountHandler{renderer: renderer, minPasswordLength: minPasswordLength}
}

func (h *AccountHandler) editForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "password", Kind: form.Password, Title: "Current password", Required: true},
		{Name: "new_password", Kind: form.Password, Title: "New password", MinLength: h.minPasswordLength,
			Descr: fmt.Sprintf("If blank, then password will not be changed. If given, must be at least %d characters.", h.minPasswordLength)},
		{Name: "confirm_new_password", Kind: form.Password, Title: "Confirm new password",
			Descr: "Must be given if a new password is specified above."},
		{Name: "email", Kind: form.String, Title: "Email"},
		{Name: "description", Kind: form.Text, Title: "Description"},
		{Name: "teams", Kind: form.MultiSelect, Title: "Teams",
			Descr: "Check the teams this account is to be member of."},
		{Name: "url", Kind: form.Hidden, Descr: "Referring URL."},
	}}
}

func (h *AccountHandler) createForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "name", Kind: form.String, Title: "Name", Required: true,
			Descr: "Account name, which must be unique. May contain alphanumerical characters, dash (-), underscore (_) and dot (.)"},
		{Name: "password", Kind: form.Password, Title: "Password", Required: true, MinLength: h.minPasswordLength,
			Descr: fmt.Sprintf("At least %d characters.", h.minPasswordLength)},
		{Name: "confirm_password", Kind: form.Password, Title: "Confirm password", Required: true},
		{Name: "email", Kind: form.String, Title: "Email"},
		{Name: "description", Kind: form.Text, Title: "Description"},
		{Name: "teams", Kind: form.MultiSelect, Title: "Teams", Descr: "Check teams for membership."},
	}}
}

// List handles GET /accounts. Site admins only.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
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

	accounts, err := d.ListAccounts(ctx)
	if err != nil {
		internalError(w, format, requestID, "Failed to list accounts", err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		teams, err := accountTeamsView(ctx, d, &accounts[i])
		if err != nil {
			internalError(w, format, requestID, "Failed to load account teams", err)
			return
		}
		views = append(views, accountView{
			Name:        accounts[i].Name,
			Email:       accounts[i].Email,
			Description: accounts[i].Description,
			Teams:       teams,
			Properties:  accounts[i].Properties,
			Href:        accountHref(accounts[i].Name),
		})
	}

	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	h.renderer.Write(w, http.StatusOK, format, "accounts", render.Page{
		Title: "Accounts",
		Login: login.Name,
		Links: links,
		Data: accountsData{
			Accounts:   views,
			Operations: []render.Link{{Title: "Create account", Href: "/account"}},
		},
	})
}

// Get handles GET /account/{name}. Accessible to the account itself and to
// site admins.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()
	segment := chi.URLParam(r, "name")

	account, suffix, haveSuffix, err := resolveAccount(ctx, d, segment)
	format, ok := render.Negotiate(r, suffix, haveSuffix)
	if !ok {
		render.NotAcceptable(w)
		return
	}
	if err != nil {
		if errors.Is(err, directory.ErrAccountNotFound) {
			notFound(w, format, "account", segment, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to resolve account", err)
		return
	}

	if err := h.authorizeSelfOrAdmin(w, r, format, account); err != nil {
		return
	}

	teams, err := accountTeamsView(ctx, d, account)
	if err != nil {
		internalError(w, format, requestID, "Failed to load account teams", err)
		return
	}
	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	h.renderer.Write(w, http.StatusOK, format, "account", render.Page{
		Title: fmt.Sprintf("Account %s", account.Name),
		Login: login.Name,
		Links: links,
		Data: accountData{
			Account: accountView{
				Name:        account.Name,
				Email:       account.Email,
				Description: account.Description,
				Teams:       teams,
				Properties:  account.Properties,
				Href:        accountHref(account.Name),
			},
			Operations: []render.Link{{Title: "Edit account", Href: accountHref(account.Name) + "/edit"}},
		},
	})
}

// EditForm handles GET /account/{name}/edit.
func (h *AccountHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()
	segment := chi.URLParam(r, "name")

	account, suffix, haveSuffix, err := resolveAccount(ctx, d, segment)
	format, ok := render.Negotiate(r, suffix, haveSuffix)
	if !ok {
		render.NotAcceptable(w)
		return
	}
	if err != nil {
		if errors.Is(err, directory.ErrAccountNotFound) {
			notFound(w, format, "account", segment, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to resolve account", err)
		return
	}

	if err := h.authorizeSelfOrAdmin(w, r, format, account); err != nil {
		return
	}
	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return
	}

	f := h.editForm()
	if siteAdmin {
		// The current-password check does not apply to site admins, and
		// only they may reassign team membership.
		f = f.Without("password")
		options, defaults, err := teamOptions(r, d, account)
		if err != nil {
			internalError(w, format, requestID, "Failed to load team options", err)
			return
		}
		f = f.WithOptions("teams", options, defaults)
	} else {
		f = f.Without("teams")
	}

	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	h.renderer.Write(w, http.StatusOK, format, "form", render.Page{
		Title: fmt.Sprintf("Edit account %s", account.Name),
		Login: login.Name,
		Links: links,
		Data: formData{
			Fields: f.Fields,
			Values: map[string]string{
				"email":       account.Email,
				"description": account.Description,
			},
			Href:   accountHref(account.Name) + "/edit",
			Submit: "Modify account data",
			Cancel: accountHref(account.Name),
		},
	})
}

// Edit handles POST /account/{name}/edit.
func (h *AccountHandler) Edit(w http.ResponseWriter, r *http.Request) {
	d, login, requestID := requestContext(r)
	ctx := r.Context()
	segment := chi.URLParam(r, "name")

	account, suffix, haveSuffix, err := resolveAccount(ctx, d, segment)
	format, ok := render.Negotiate(r, suffix, haveSuffix)
	if !ok {
		render.NotAcceptable(w)
		return
	}
	if err != nil {
		if errors.Is(err, directory.ErrAccountNotFound) {
			notFound(w, format, "account", segment, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to resolve account", err)
		return
	}

	if err := h.authorizeSelfOrAdmin(w, r, format, account); err != nil {
		return
	}
	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to check access", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		render.Error(w, format, http.StatusBadRequest, "INVALID_FORM", "Request body must be a valid form", requestID)
		return
	}

	f := h.editForm()
	if siteAdmin {
		f = f.Without("password")
		options, _, err := teamOptions(r, d, account)
		if err != nil {
			internalError(w, format, requestID, "Failed to load team options", err)
			return
		}
		f = f.WithOptions("teams", options, nil)
	} else {
		f = f.Without("teams")
	}

	values, fieldErrors := f.Parse(r.PostForm)
	if len(fieldErrors) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if !siteAdmin {
		if err := d.CheckPassword(account, values.Get("password")); err != nil {
			render.Error(w, format, http.StatusForbidden, "FORBIDDEN", "invalid current password", requestID)
			return
		}
	}

	if newPassword := values.Get("new_password"); newPassword != "" {
		confirm := values.Get("confirm_new_password")
		if errs := validation.ValidateNewPassword(newPassword, confirm, h.minPasswordLength); len(errs) > 0 {
			render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, requestID)
			return
		}
		d.SetPassword(account, newPassword)
	}

	account.Email = values.Get("email")
	account.Description = values.Get("description")
	if err := d.SaveAccount(ctx, account); err != nil {
		internalError(w, format, requestID, "Failed to save account", err)
		return
	}

	if siteAdmin {
		if err := d.SetTeamMembership(ctx, account, values.List("teams")); err != nil {
			internalError(w, format, requestID, "Failed to update team membership", err)
			return
		}
	}

	h.respondAfterWrite(w, r, format, account.Name, values.Get("url"), http.StatusOK)
}

// CreateForm handles GET /account. Site admins only.
func (h *AccountHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
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
	options := make([]string, 0, len(teams))
	for _, t := range teams {
		options = append(options, t.Name)
	}

	links, err := navLinks(ctx, d, login)
	if err != nil {
		internalError(w, format, requestID, "Failed to build links", err)
		return
	}

	f := h.createForm().WithOptions("teams", options, nil)
	h.renderer.Write(w, http.StatusOK, format, "form", render.Page{
		Title: "Create account",
		Login: login.Name,
		Links: links,
		Data: formData{
			Fields: f.Fields,
			Href:   "/account",
			Submit: "Enter data for new account",
			Cancel: "/accounts",
		},
	})
}

// Create handles POST /account. Site admins only.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	teams, err := d.ListTeams(ctx)
	if err != nil {
		internalError(w, format, requestID, "Failed to list teams", err)
		return
	}
	options := make([]string, 0, len(teams))
	for _, t := range teams {
		options = append(options, t.Name)
	}

	f := h.createForm().WithOptions("teams", options, nil)
	values, fieldErrors := f.Parse(r.PostForm)
	if len(fieldErrors) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	name := strings.TrimSpace(values.Get("name"))
	if errs := validation.ValidateEntityName("name", name); len(errs) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, requestID)
		return
	}
	password := values.Get("password")
	if errs := validation.ValidateNewPassword(password, values.Get("confirm_password"), h.minPasswordLength); len(errs) > 0 {
		render.ErrorWithDetails(w, format, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, requestID)
		return
	}

	account, err := d.CreateAccount(ctx, name, password, values.Get("description"))
	if err != nil {
		if errors.Is(err, directory.ErrAlreadyExists) {
			message := fmt.Sprintf("account name %q already in use", name)
			render.Error(w, format, http.StatusBadRequest, "ALREADY_EXISTS", message, requestID)
			return
		}
		internalError(w, format, requestID, "Failed to create account", err)
		return
	}

	if email := values.Get("email"); email != "" {
		account.Email = email
		if err := d.SaveAccount(ctx, account); err != nil {
			internalError(w, format, requestID, "Failed to save account", err)
			return
		}
	}
	if teams := values.List("teams"); len(teams) > 0 {
		if err := d.SetTeamMembership(ctx, account, teams); err != nil {
			internalError(w, format, requestID, "Failed to set team membership", err)
			return
		}
	}

	h.respondAfterWrite(w, r, format, account.Name, "", http.StatusCreated)
}

// authorizeSelfOrAdmin enforces the account resource predicate: the account
// itself or a site admin. It writes the error response and returns non-nil
// when access is denied.
func (h *AccountHandler) authorizeSelfOrAdmin(w http.ResponseWriter, r *http.Request, format render.Format, target *directory.Account) error {
	d, login, requestID := requestContext(r)

	if access.IsSelf(login, target) {
		return nil
	}
	siteAdmin, err := access.IsSiteAdmin(r.Context(), d, login)
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

// respondAfterWrite finishes a mutating request: JSON clients get the
// updated account rendered in place, browser clients get a redirect to the
// referring URL or the account page.
func (h *AccountHandler) respondAfterWrite(w http.ResponseWriter, r *http.Request, format render.Format, name, redirect string, status int) {
	if format == render.HTML {
		if redirect == "" {
			redirect = accountHref(name)
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}

	d, login, requestID := requestContext(r)
	ctx := r.Context()
	account, err := d.GetAccount(ctx, name)
	if err != nil {
		internalError(w, format, requestID, "Failed to reload account", err)
		return
	}
	teams, err := accountTeamsView(ctx, d, account)
	if err != nil {
		internalError(w, format, requestID, "Failed to load account teams", err)
		return
	}
	h.renderer.Write(w, status, format, "account", render.Page{
		Title: fmt.Sprintf("Account %s", account.Name),
		Login: login.Name,
		Data: accountData{
			Account: accountView{
				Name:        account.Name,
				Email:       account.Email,
				Description: account.Description,
				Teams:       teams,
				Properties:  account.Properties,
				Href:        accountHref(account.Name),
			},
		},
	})
}

// teamOptions returns all team names as multi-select options plus the
// account's current memberships as defaults.
func teamOptions(r *http.Request, d *directory.Directory, account *directory.Account) ([]string, []string, error) {
	ctx := r.Context()
	teams, err := d.ListTeams(ctx)
	if err != nil {
		return nil, nil, err
	}
	options := make([]string, 0, len(teams))
	for _, t := range teams {
		options = append(options, t.Name)
	}
	refs, err := d.AccountTeams(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	defaults := make([]string, 0, len(refs))
	for _, ref := range refs {
		defaults = append(defaults, ref.Name)
	}
	return options, defaults, nil
}
