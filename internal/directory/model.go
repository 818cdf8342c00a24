package directory

// Account represents a row in the accounts table. The numeric ID is assigned
// by the store on first insert and is never exposed outside the directory;
// accounts are addressed by name everywhere else.
type Account struct {
	ID             int64
	Name           string
	PasswordDigest string
	Email          string
	Description    string
	Properties     Properties
}

// Team represents a row in the teams table.
type Team struct {
	ID          int64
	Name        string
	Description string
	Properties  Properties
}

// TeamRef names a team an account belongs to, with its admin flag.
type TeamRef struct {
	Name  string
	Admin bool
}

// MemberRef names an account in a team, with its admin flag.
type MemberRef struct {
	Name  string
	Admin bool
}

// Properties is a free-form mapping namespaced by consuming application:
// each top-level key is an application name holding that application's own
// sub-mapping.
type Properties map[string]map[string]any

// Merge updates one application's sub-mapping without touching the entries
// of other applications.
func (p Properties) Merge(application string, values map[string]any) {
	sub, ok := p[application]
	if !ok {
		sub = make(map[string]any, len(values))
		p[application] = sub
	}
	for k, v := range values {
		sub[k] = v
	}
}

// ChangeOp identifies a single membership mutation.
type ChangeOp int

const (
	// OpAdd inserts a non-admin membership row.
	OpAdd ChangeOp = iota
	// OpRemove deletes a membership row, dropping any admin flag with it.
	OpRemove
	// OpPromote sets the admin flag on an existing membership row.
	OpPromote
	// OpDemote clears the admin flag on an existing membership row.
	OpDemote
)

// MembershipChange is one mutation of the account/team join table. Batches
// of changes are applied in a single transaction by the store.
type MembershipChange struct {
	AccountID int64
	TeamID    int64
	Op        ChangeOp
}
