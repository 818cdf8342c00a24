// Package directory owns account and team persistence, the membership join
// between them, and the reconciliation of desired membership and admin sets.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/whoyou/whoyou/internal/credential"
)

// Directory is the per-request view over the Store. It keeps a name-keyed
// cache of the entities it has loaded, so repeated lookups within one
// request hit the store only once. Instances are cheap to create and must
// not be shared across requests.
type Directory struct {
	store             Store
	hasher            *credential.Hasher
	allowPasswordless bool

	accounts map[string]*Account
	teams    map[string]*Team
}

// New creates a Directory for a single request's lifetime. When
// allowPasswordless is true, accounts with an empty stored digest accept
// any credential (anonymous-style logins); otherwise they can never
// authenticate.
func New(store Store, hasher *credential.Hasher, allowPasswordless bool) *Directory {
	return &Directory{
		store:             store,
		hasher:            hasher,
		allowPasswordless: allowPasswordless,
		accounts:          make(map[string]*Account),
		teams:             make(map[string]*Team),
	}
}

// GetAccount returns the account with the given name.
func (d *Directory) GetAccount(ctx context.Context, name string) (*Account, error) {
	if a, ok := d.accounts[name]; ok {
		return a, nil
	}
	a, err := d.store.GetAccount(ctx, name)
	if err != nil {
		return nil, err
	}
	d.accounts[a.Name] = a
	return a, nil
}

// Authenticate returns the account with the given name after checking the
// clear-text password against the stored digest. It returns
// ErrInvalidCredential on mismatch.
func (d *Directory) Authenticate(ctx context.Context, name, password string) (*Account, error) {
	a, err := d.GetAccount(ctx, name)
	if err != nil {
		return nil, err
	}

	if a.PasswordDigest == "" {
		if d.allowPasswordless {
			return a, nil
		}
		return nil, fmt.Errorf("account %q has no password: %w", name, ErrInvalidCredential)
	}
	if !d.hasher.Verify(a.PasswordDigest, password) {
		return nil, ErrInvalidCredential
	}

	return a, nil
}

// GetTeam returns the team with the given name.
func (d *Directory) GetTeam(ctx context.Context, name string) (*Team, error) {
	if t, ok := d.teams[name]; ok {
		return t, nil
	}
	t, err := d.store.GetTeam(ctx, name)
	if err != nil {
		return nil, err
	}
	d.teams[t.Name] = t
	return t, nil
}

// ListAccounts returns all accounts ordered by name ascending.
func (d *Directory) ListAccounts(ctx context.Context) ([]Account, error) {
	accounts, err := d.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		d.accounts[accounts[i].Name] = &accounts[i]
	}
	return accounts, nil
}

// ListTeams returns all teams ordered by name ascending.
func (d *Directory) ListTeams(ctx context.Context) ([]Team, error) {
	teams, err := d.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		d.teams[teams[i].Name] = &teams[i]
	}
	return teams, nil
}

// CreateAccount creates a new account, hashing the password if one is
// given. It returns ErrAlreadyExists if the name is taken.
func (d *Directory) CreateAccount(ctx context.Context, name, password, description string) (*Account, error) {
	a := &Account{
		Name:        name,
		Description: description,
		Properties:  Properties{},
	}
	if password != "" {
		a.PasswordDigest = d.hasher.Digest(password)
	}
	if err := d.store.InsertAccount(ctx, a); err != nil {
		return nil, err
	}
	d.accounts[a.Name] = a
	return a, nil
}

// CreateTeam creates a new team. It returns ErrAlreadyExists if the name is taken.
func (d *Directory) CreateTeam(ctx context.Context, name, description string) (*Team, error) {
	t := &Team{
		Name:        name,
		Description: description,
		Properties:  Properties{},
	}
	if err := d.store.InsertTeam(ctx, t); err != nil {
		return nil, err
	}
	d.teams[t.Name] = t
	return t, nil
}

// SaveAccount upserts the account. If a row with the same name exists its
// identifier must match the one the caller holds; a mismatch returns
// ErrIdentityConflict.
func (d *Directory) SaveAccount(ctx context.Context, a *Account) error {
	existing, err := d.store.GetAccount(ctx, a.Name)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		if err := d.store.InsertAccount(ctx, a); err != nil {
			return err
		}
	case err != nil:
		return err
	case existing.ID != a.ID:
		return fmt.Errorf("account %q: %w", a.Name, ErrIdentityConflict)
	default:
		if err := d.store.UpdateAccount(ctx, a); err != nil {
			return err
		}
	}
	d.accounts[a.Name] = a
	return nil
}

// SaveTeam upserts the team with the same identity guard as SaveAccount.
func (d *Directory) SaveTeam(ctx context.Context, t *Team) error {
	existing, err := d.store.GetTeam(ctx, t.Name)
	switch {
	case errors.Is(err, ErrTeamNotFound):
		if err := d.store.InsertTeam(ctx, t); err != nil {
			return err
		}
	case err != nil:
		return err
	case existing.ID != t.ID:
		return fmt.Errorf("team %q: %w", t.Name, ErrIdentityConflict)
	default:
		if err := d.store.UpdateTeam(ctx, t); err != nil {
			return err
		}
	}
	d.teams[t.Name] = t
	return nil
}

// SetPassword replaces the account's stored digest with the digest of the
// given clear-text password. The caller still has to save the account.
func (d *Directory) SetPassword(a *Account, password string) {
	a.PasswordDigest = d.hasher.Digest(password)
}

// CheckPassword returns ErrInvalidCredential when the clear-text password
// does not match the account's stored digest.
func (d *Directory) CheckPassword(a *Account, password string) error {
	if a.PasswordDigest == "" && d.allowPasswordless {
		return nil
	}
	if !d.hasher.Verify(a.PasswordDigest, password) {
		return ErrInvalidCredential
	}
	return nil
}

// UpdateAccountProperties merges one application's properties into the
// account without clobbering other applications' sub-mappings, and saves.
func (d *Directory) UpdateAccountProperties(ctx context.Context, name, application string, values map[string]any) error {
	a, err := d.GetAccount(ctx, name)
	if err != nil {
		return err
	}
	if a.Properties == nil {
		a.Properties = Properties{}
	}
	a.Properties.Merge(application, values)
	return d.SaveAccount(ctx, a)
}

// AccountTeams returns the teams the account belongs to, with admin flags,
// ordered by team name.
func (d *Directory) AccountTeams(ctx context.Context, a *Account) ([]TeamRef, error) {
	names, err := d.store.TeamNames(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	refs := make([]TeamRef, 0, len(names))
	for _, name := range names {
		t, err := d.GetTeam(ctx, name)
		if err != nil {
			return nil, err
		}
		admin, err := d.store.IsAdmin(ctx, a.ID, t.ID)
		if err != nil {
			return nil, err
		}
		refs = append(refs, TeamRef{Name: name, Admin: admin})
	}
	return refs, nil
}

// TeamMembers returns the members of the team, with admin flags, ordered by
// account name.
func (d *Directory) TeamMembers(ctx context.Context, t *Team) ([]MemberRef, error) {
	names, err := d.store.MemberNames(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	admins, err := d.store.AdminNames(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	adminSet := make(map[string]bool, len(admins))
	for _, name := range admins {
		adminSet[name] = true
	}
	refs := make([]MemberRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, MemberRef{Name: name, Admin: adminSet[name]})
	}
	return refs, nil
}

// TeamAdmins returns the names of the team's admin members, ordered by name.
func (d *Directory) TeamAdmins(ctx context.Context, t *Team) ([]string, error) {
	return d.store.AdminNames(ctx, t.ID)
}

// IsMember reports whether the account is a member of the team.
func (d *Directory) IsMember(ctx context.Context, t *Team, a *Account) (bool, error) {
	return d.store.IsMember(ctx, a.ID, t.ID)
}

// IsAdmin reports whether the account is an admin member of the team.
func (d *Directory) IsAdmin(ctx context.Context, t *Team, a *Account) (bool, error) {
	return d.store.IsAdmin(ctx, a.ID, t.ID)
}

// AddMember adds the account to the team as a non-admin member. Adding an
// existing member is a no-op.
func (d *Directory) AddMember(ctx context.Context, t *Team, a *Account) error {
	return d.store.ApplyMembershipChanges(ctx, []MembershipChange{
		{AccountID: a.ID, TeamID: t.ID, Op: OpAdd},
	})
}

// RemoveMember removes the account from the team, dropping any admin flag
// with the membership row. Removing a non-member is a no-op.
func (d *Directory) RemoveMember(ctx context.Context, t *Team, a *Account) error {
	return d.store.ApplyMembershipChanges(ctx, []MembershipChange{
		{AccountID: a.ID, TeamID: t.ID, Op: OpRemove},
	})
}

// SetAdmin sets or clears the admin flag on an existing membership. It
// returns ErrNotMember when no membership row exists.
func (d *Directory) SetAdmin(ctx context.Context, t *Team, a *Account, admin bool) error {
	member, err := d.store.IsMember(ctx, a.ID, t.ID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("account %q in team %q: %w", a.Name, t.Name, ErrNotMember)
	}
	op := OpDemote
	if admin {
		op = OpPromote
	}
	return d.store.ApplyMembershipChanges(ctx, []MembershipChange{
		{AccountID: a.ID, TeamID: t.ID, Op: op},
	})
}

// SetTeamMembership makes the account's memberships exactly equal to the
// desired set of team names. Accounts are removed from teams not mentioned
// and added as non-admin members to teams not yet joined; names that no
// longer resolve to a team are skipped silently. All reads happen before
// any write, and the computed changes are committed in one transaction.
// Calling it twice with the same set issues zero mutations the second time.
func (d *Directory) SetTeamMembership(ctx context.Context, a *Account, teamNames []string) error {
	current, err := d.store.TeamNames(ctx, a.ID)
	if err != nil {
		return err
	}
	currentSet := make(map[string]bool, len(current))
	for _, name := range current {
		currentSet[name] = true
	}
	desired := make(map[string]bool, len(teamNames))
	for _, name := range teamNames {
		desired[name] = true
	}

	var changes []MembershipChange
	for _, name := range current {
		if desired[name] {
			continue
		}
		t, err := d.GetTeam(ctx, name)
		if errors.Is(err, ErrTeamNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		changes = append(changes, MembershipChange{AccountID: a.ID, TeamID: t.ID, Op: OpRemove})
	}
	for _, name := range teamNames {
		if currentSet[name] {
			continue
		}
		currentSet[name] = true // tolerate duplicates in the desired list
		t, err := d.GetTeam(ctx, name)
		if errors.Is(err, ErrTeamNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		changes = append(changes, MembershipChange{AccountID: a.ID, TeamID: t.ID, Op: OpAdd})
	}

	return d.store.ApplyMembershipChanges(ctx, changes)
}

// SetTeamAdmins makes the team's admin set exactly equal to the desired set
// of account names, demoting admins not mentioned and promoting members not
// yet flagged. Names that do not resolve to an account, or accounts that
// are not members of the team, are skipped silently: promotion never adds
// members. Same read-then-commit-once shape as SetTeamMembership.
func (d *Directory) SetTeamAdmins(ctx context.Context, t *Team, accountNames []string) error {
	current, err := d.store.AdminNames(ctx, t.ID)
	if err != nil {
		return err
	}
	currentSet := make(map[string]bool, len(current))
	for _, name := range current {
		currentSet[name] = true
	}
	desired := make(map[string]bool, len(accountNames))
	for _, name := range accountNames {
		desired[name] = true
	}

	var changes []MembershipChange
	for _, name := range current {
		if desired[name] {
			continue
		}
		a, err := d.GetAccount(ctx, name)
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		changes = append(changes, MembershipChange{AccountID: a.ID, TeamID: t.ID, Op: OpDemote})
	}
	for _, name := range accountNames {
		if currentSet[name] {
			continue
		}
		currentSet[name] = true
		a, err := d.GetAccount(ctx, name)
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		member, err := d.store.IsMember(ctx, a.ID, t.ID)
		if err != nil {
			return err
		}
		if !member {
			continue
		}
		changes = append(changes, MembershipChange{AccountID: a.ID, TeamID: t.ID, Op: OpPromote})
	}

	return d.store.ApplyMembershipChanges(ctx, changes)
}
