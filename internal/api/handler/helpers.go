package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/whoyou/whoyou/internal/access"
	"github.com/whoyou/whoyou/internal/api/middleware"
	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/directory"
)

// forbidden renders the terminal 403 outcome of a failed access predicate,
// naming the offending login.
func forbidden(w http.ResponseWriter, format render.Format, login *directory.Account, requestID string) {
	message := fmt.Sprintf("disallowed for login %q", login.Name)
	render.Error(w, format, http.StatusForbidden, "FORBIDDEN", message, requestID)
}

// internalError logs the error and renders an opaque 500.
func internalError(w http.ResponseWriter, format render.Format, requestID, message string, err error) {
	slog.Error(message, "error", err, "requestId", requestID)
	render.Error(w, format, http.StatusInternalServerError, "INTERNAL_ERROR", message, requestID)
}

// notFound renders a 404 for an unresolved entity name.
func notFound(w http.ResponseWriter, format render.Format, kind, segment, requestID string) {
	message := fmt.Sprintf("no such %s %q", kind, segment)
	render.Error(w, format, http.StatusNotFound, "NOT_FOUND", message, requestID)
}

// navLinks builds the common navigation section. Admin-only resources are
// listed only for site admins.
func navLinks(ctx context.Context, d *directory.Directory, login *directory.Account) ([]render.Link, error) {
	siteAdmin, err := access.IsSiteAdmin(ctx, d, login)
	if err != nil {
		return nil, err
	}

	var links []render.Link
	if siteAdmin {
		links = append(links, render.Link{Title: "Accounts", Resource: "Account list", Href: "/accounts"})
	}
	links = append(links, render.Link{Title: "My account", Resource: "Account", Href: accountHref(login.Name)})
	if siteAdmin {
		links = append(links, render.Link{Title: "Teams", Resource: "Team list", Href: "/teams"})
	}
	links = append(links, render.Link{Title: "Documentation: API", Resource: "Documentation API", Href: "/doc"})
	return links, nil
}

// requestContext pulls the per-request directory, login and request ID out
// of the context in one call.
func requestContext(r *http.Request) (*directory.Directory, *directory.Account, string) {
	ctx := r.Context()
	return middleware.GetDirectory(ctx), middleware.GetLogin(ctx), middleware.GetRequestID(ctx)
}

// accountTeamsView loads the account's team refs as view data.
func accountTeamsView(ctx context.Context, d *directory.Directory, a *directory.Account) ([]teamRefView, error) {
	refs, err := d.AccountTeams(ctx, a)
	if err != nil {
		return nil, err
	}
	views := make([]teamRefView, 0, len(refs))
	for _, ref := range refs {
		views = append(views, teamRefView{Name: ref.Name, Href: teamHref(ref.Name), IsAdmin: ref.Admin})
	}
	return views, nil
}

// teamMembersView loads the team's member refs as view data.
func teamMembersView(ctx context.Context, d *directory.Directory, t *directory.Team) ([]memberRefView, []string, error) {
	refs, err := d.TeamMembers(ctx, t)
	if err != nil {
		return nil, nil, err
	}
	members := make([]memberRefView, 0, len(refs))
	admins := []string{}
	for _, ref := range refs {
		members = append(members, memberRefView{Name: ref.Name, Href: accountHref(ref.Name), IsAdmin: ref.Admin})
		if ref.Admin {
			admins = append(admins, ref.Name)
		}
	}
	return members, admins, nil
}
