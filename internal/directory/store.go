package directory

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned when an account record is not found.
var ErrAccountNotFound = errors.New("account not found")

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrAlreadyExists is returned when creating an account or team whose name is taken.
var ErrAlreadyExists = errors.New("name already exists")

// ErrIdentityConflict is returned when a save finds a store row whose
// identifier differs from the one the caller holds. It indicates a logic or
// concurrency bug and is never silently ignored.
var ErrIdentityConflict = errors.New("identity conflict")

// ErrInvalidCredential is returned when a supplied password does not match
// the stored digest.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrNotMember is returned when setting the admin flag for an account that
// is not a member of the team.
var ErrNotMember = errors.New("account is not a team member")

// ErrInUse is returned when deleting an account or team still referenced by
// a membership row.
var ErrInUse = errors.New("entity referenced by team membership")

// Store provides the persistence operations behind the Directory. All list
// operations return entities ordered by name ascending.
type Store interface {
	GetAccount(ctx context.Context, name string) (*Account, error)
	InsertAccount(ctx context.Context, a *Account) error
	UpdateAccount(ctx context.Context, a *Account) error
	ListAccounts(ctx context.Context) ([]Account, error)

	GetTeam(ctx context.Context, name string) (*Team, error)
	InsertTeam(ctx context.Context, t *Team) error
	UpdateTeam(ctx context.Context, t *Team) error
	ListTeams(ctx context.Context) ([]Team, error)

	// TeamNames returns the names of all teams the account belongs to.
	TeamNames(ctx context.Context, accountID int64) ([]string, error)
	// MemberNames returns the names of all member accounts of the team.
	MemberNames(ctx context.Context, teamID int64) ([]string, error)
	// AdminNames returns the names of all admin member accounts of the team.
	AdminNames(ctx context.Context, teamID int64) ([]string, error)

	IsMember(ctx context.Context, accountID, teamID int64) (bool, error)
	IsAdmin(ctx context.Context, accountID, teamID int64) (bool, error)

	// ApplyMembershipChanges applies the whole batch in one transaction.
	ApplyMembershipChanges(ctx context.Context, changes []MembershipChange) error
}
