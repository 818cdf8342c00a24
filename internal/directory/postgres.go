package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &PostgresStore{pool: pool}
}

// GetAccount retrieves a single account by name.
func (s *PostgresStore) GetAccount(ctx context.Context, name string) (*Account, error) {
	query := `
		SELECT id, name, password, email, description, properties
		FROM accounts
		WHERE name = $1`

	var (
		a     Account
		props []byte
	)
	err := s.pool.QueryRow(ctx, query, name).Scan(&a.ID, &a.Name, &a.PasswordDigest, &a.Email, &a.Description, &props)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("querying account: %w", err)
	}
	if err := json.Unmarshal(props, &a.Properties); err != nil {
		return nil, fmt.Errorf("decoding account properties: %w", err)
	}
	if a.Properties == nil {
		a.Properties = Properties{}
	}

	return &a, nil
}

// InsertAccount inserts a new account record and captures its identifier.
func (s *PostgresStore) InsertAccount(ctx context.Context, a *Account) error {
	props, err := json.Marshal(properties(a.Properties))
	if err != nil {
		return fmt.Errorf("encoding account properties: %w", err)
	}

	query := `
		INSERT INTO accounts (name, password, email, description, properties)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err = s.pool.QueryRow(ctx, query, a.Name, a.PasswordDigest, a.Email, a.Description, props).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	return nil
}

// UpdateAccount updates an existing account record by its identifier.
func (s *PostgresStore) UpdateAccount(ctx context.Context, a *Account) error {
	props, err := json.Marshal(properties(a.Properties))
	if err != nil {
		return fmt.Errorf("encoding account properties: %w", err)
	}

	query := `
		UPDATE accounts
		SET password = $1, email = $2, description = $3, properties = $4
		WHERE id = $5`

	result, err := s.pool.Exec(ctx, query, a.PasswordDigest, a.Email, a.Description, props, a.ID)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// ListAccounts retrieves all accounts ordered by name.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]Account, error) {
	query := `
		SELECT id, name, password, email, description, properties
		FROM accounts
		ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		var (
			a     Account
			props []byte
		)
		err := rows.Scan(&a.ID, &a.Name, &a.PasswordDigest, &a.Email, &a.Description, &props)
		if err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		if err := json.Unmarshal(props, &a.Properties); err != nil {
			return nil, fmt.Errorf("decoding account properties: %w", err)
		}
		if a.Properties == nil {
			a.Properties = Properties{}
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

// GetTeam retrieves a single team by name.
func (s *PostgresStore) GetTeam(ctx context.Context, name string) (*Team, error) {
	query := `
		SELECT id, name, description, properties
		FROM teams
		WHERE name = $1`

	var (
		t     Team
		props []byte
	)
	err := s.pool.QueryRow(ctx, query, name).Scan(&t.ID, &t.Name, &t.Description, &props)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}
	if err := json.Unmarshal(props, &t.Properties); err != nil {
		return nil, fmt.Errorf("decoding team properties: %w", err)
	}
	if t.Properties == nil {
		t.Properties = Properties{}
	}

	return &t, nil
}

// InsertTeam inserts a new team record and captures its identifier.
func (s *PostgresStore) InsertTeam(ctx context.Context, t *Team) error {
	props, err := json.Marshal(properties(t.Properties))
	if err != nil {
		return fmt.Errorf("encoding team properties: %w", err)
	}

	query := `
		INSERT INTO teams (name, description, properties)
		VALUES ($1, $2, $3)
		RETURNING id`

	err = s.pool.QueryRow(ctx, query, t.Name, t.Description, props).Scan(&t.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting team: %w", err)
	}

	return nil
}

// UpdateTeam updates an existing team record by its identifier.
func (s *PostgresStore) UpdateTeam(ctx context.Context, t *Team) error {
	props, err := json.Marshal(properties(t.Properties))
	if err != nil {
		return fmt.Errorf("encoding team properties: %w", err)
	}

	query := `
		UPDATE teams
		SET description = $1, properties = $2
		WHERE id = $3`

	result, err := s.pool.Exec(ctx, query, t.Description, props, t.ID)
	if err != nil {
		return fmt.Errorf("updating team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// ListTeams retrieves all teams ordered by name.
func (s *PostgresStore) ListTeams(ctx context.Context) ([]Team, error) {
	query := `
		SELECT id, name, description, properties
		FROM teams
		ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		var (
			t     Team
			props []byte
		)
		err := rows.Scan(&t.ID, &t.Name, &t.Description, &props)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		if err := json.Unmarshal(props, &t.Properties); err != nil {
			return nil, fmt.Errorf("decoding team properties: %w", err)
		}
		if t.Properties == nil {
			t.Properties = Properties{}
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	return teams, nil
}

// TeamNames returns the names of all teams the account belongs to, ordered by name.
func (s *PostgresStore) TeamNames(ctx context.Context, accountID int64) ([]string, error) {
	query := `
		SELECT t.name
		FROM teams t
		JOIN account_teams at ON at.team_id = t.id
		WHERE at.account_id = $1
		ORDER BY t.name ASC`

	return s.queryNames(ctx, query, accountID)
}

// MemberNames returns the names of all member accounts of the team, ordered by name.
func (s *PostgresStore) MemberNames(ctx context.Context, teamID int64) ([]string, error) {
	query := `
		SELECT a.name
		FROM accounts a
		JOIN account_teams at ON at.account_id = a.id
		WHERE at.team_id = $1
		ORDER BY a.name ASC`

	return s.queryNames(ctx, query, teamID)
}

// AdminNames returns the names of all admin members of the team, ordered by name.
func (s *PostgresStore) AdminNames(ctx context.Context, teamID int64) ([]string, error) {
	query := `
		SELECT a.name
		FROM accounts a
		JOIN account_teams at ON at.account_id = a.id
		WHERE at.team_id = $1 AND at.admin
		ORDER BY a.name ASC`

	return s.queryNames(ctx, query, teamID)
}

func (s *PostgresStore) queryNames(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating name rows: %w", err)
	}

	return names, nil
}

// IsMember reports whether a membership row exists for the pair.
func (s *PostgresStore) IsMember(ctx context.Context, accountID, teamID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM account_teams
			WHERE account_id = $1 AND team_id = $2
		)`

	var member bool
	if err := s.pool.QueryRow(ctx, query, accountID, teamID).Scan(&member); err != nil {
		return false, fmt.Errorf("querying membership: %w", err)
	}
	return member, nil
}

// IsAdmin reports whether an admin membership row exists for the pair.
func (s *PostgresStore) IsAdmin(ctx context.Context, accountID, teamID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM account_teams
			WHERE account_id = $1 AND team_id = $2 AND admin
		)`

	var admin bool
	if err := s.pool.QueryRow(ctx, query, accountID, teamID).Scan(&admin); err != nil {
		return false, fmt.Errorf("querying admin membership: %w", err)
	}
	return admin, nil
}

// ApplyMembershipChanges applies the whole batch in a single transaction.
// Adds are idempotent and removes of absent rows are no-ops, so applying a
// change set computed from a stale read cannot fail on row existence.
func (s *PostgresStore) ApplyMembershipChanges(ctx context.Context, changes []MembershipChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning membership transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range changes {
		var query string
		switch c.Op {
		case OpAdd:
			query = `
				INSERT INTO account_teams (account_id, team_id, admin)
				VALUES ($1, $2, FALSE)
				ON CONFLICT (account_id, team_id) DO NOTHING`
		case OpRemove:
			query = `DELETE FROM account_teams WHERE account_id = $1 AND team_id = $2`
		case OpPromote:
			query = `UPDATE account_teams SET admin = TRUE WHERE account_id = $1 AND team_id = $2`
		case OpDemote:
			query = `UPDATE account_teams SET admin = FALSE WHERE account_id = $1 AND team_id = $2`
		default:
			return fmt.Errorf("unknown membership change op %d", c.Op)
		}

		if _, err := tx.Exec(ctx, query, c.AccountID, c.TeamID); err != nil {
			return fmt.Errorf("applying membership change: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing membership transaction: %w", err)
	}

	return nil
}

// properties normalizes a nil map to an empty one so the JSONB column never
// stores SQL NULL.
func properties(p Properties) Properties {
	if p == nil {
		return Properties{}
	}
	return p
}
