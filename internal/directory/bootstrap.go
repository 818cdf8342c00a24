package directory

import (
	"context"
	"fmt"
	"log/slog"
)

// Bootstrap seeds an empty store with the site administration entities: an
// "admin" account holding the given password, an "admin" team with that
// account as admin member, and a password-less "anonymous" account. It does
// nothing when any account already exists.
func (d *Directory) Bootstrap(ctx context.Context, adminPassword string) (bool, error) {
	accounts, err := d.ListAccounts(ctx)
	if err != nil {
		return false, fmt.Errorf("checking for existing accounts: %w", err)
	}
	if len(accounts) > 0 {
		return false, nil
	}

	admin, err := d.CreateAccount(ctx, "admin", adminPassword, "Site administrator.")
	if err != nil {
		return false, fmt.Errorf("creating admin account: %w", err)
	}
	team, err := d.CreateTeam(ctx, "admin", "Accounts with admin privileges.")
	if err != nil {
		return false, fmt.Errorf("creating admin team: %w", err)
	}
	if err := d.AddMember(ctx, team, admin); err != nil {
		return false, fmt.Errorf("adding admin to admin team: %w", err)
	}
	if err := d.SetAdmin(ctx, team, admin, true); err != nil {
		return false, fmt.Errorf("flagging admin as team admin: %w", err)
	}
	if _, err := d.CreateAccount(ctx, "anonymous", "", "Anonymous user without password."); err != nil {
		return false, fmt.Errorf("creating anonymous account: %w", err)
	}

	slog.Info("bootstrapped directory", "accounts", []string{"admin", "anonymous"}, "teams", []string{"admin"})
	return true, nil
}
