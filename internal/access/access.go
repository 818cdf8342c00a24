// Package access holds the authorization predicates evaluated before any
// handler logic runs. They are pure reads over directory state; composing
// them and mapping failures to Forbidden responses is the handlers' job.
package access

import (
	"context"
	"errors"

	"github.com/whoyou/whoyou/internal/directory"
)

// SiteAdminName is the account name with unconditional admin access; a team
// of the same name grants the same access to its members.
const SiteAdminName = "admin"

// IsSiteAdmin reports whether the login is the "admin" account or a member
// of the "admin" team. A missing admin team is not an error.
func IsSiteAdmin(ctx context.Context, d *directory.Directory, login *directory.Account) (bool, error) {
	if login.Name == SiteAdminName {
		return true, nil
	}
	team, err := d.GetTeam(ctx, SiteAdminName)
	if errors.Is(err, directory.ErrTeamNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.IsMember(ctx, team, login)
}

// IsSelf reports whether the login is the target account.
func IsSelf(login, target *directory.Account) bool {
	return login.Name == target.Name
}

// IsTeamAdmin reports whether the login is an admin member of the team.
func IsTeamAdmin(ctx context.Context, d *directory.Directory, login *directory.Account, team *directory.Team) (bool, error) {
	return d.IsAdmin(ctx, team, login)
}

// IsTeamMember reports whether the login is a member of the team.
func IsTeamMember(ctx context.Context, d *directory.Directory, login *directory.Account, team *directory.Team) (bool, error) {
	return d.IsMember(ctx, team, login)
}
