package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and local experiments. It
// mirrors the relational semantics of PostgresStore: unique names, numeric
// identifiers assigned on insert, one membership row per (account, team)
// pair, batch changes applied atomically under a single lock.
type MemStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]*Account
	teams    map[string]*Team
	rows     map[memKey]bool // value is the admin flag

	// Mutations counts individual membership row mutations that actually
	// changed state, for asserting reconciliation idempotence.
	Mutations int
}

type memKey struct {
	accountID int64
	teamID    int64
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID:   1,
		accounts: make(map[string]*Account),
		teams:    make(map[string]*Team),
		rows:     make(map[memKey]bool),
	}
}

func (s *MemStore) GetAccount(_ context.Context, name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[name]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemStore) InsertAccount(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Name]; ok {
		return ErrAlreadyExists
	}
	a.ID = s.nextID
	s.nextID++
	cp := *a
	s.accounts[a.Name] = &cp
	return nil
}

func (s *MemStore) UpdateAccount(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.ID == a.ID {
			cp := *a
			s.accounts[existing.Name] = &cp
			return nil
		}
	}
	return ErrAccountNotFound
}

func (s *MemStore) ListAccounts(_ context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetTeam(_ context.Context, name string) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[name]
	if !ok {
		return nil, ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemStore) InsertTeam(_ context.Context, t *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.Name]; ok {
		return ErrAlreadyExists
	}
	t.ID = s.nextID
	s.nextID++
	cp := *t
	s.teams[t.Name] = &cp
	return nil
}

func (s *MemStore) UpdateTeam(_ context.Context, t *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.teams {
		if existing.ID == t.ID {
			cp := *t
			s.teams[existing.Name] = &cp
			return nil
		}
	}
	return ErrTeamNotFound
}

func (s *MemStore) ListTeams(_ context.Context) ([]Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) TeamNames(_ context.Context, accountID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for _, t := range s.teams {
		if _, ok := s.rows[memKey{accountID, t.ID}]; ok {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) MemberNames(_ context.Context, teamID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for _, a := range s.accounts {
		if _, ok := s.rows[memKey{a.ID, teamID}]; ok {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) AdminNames(_ context.Context, teamID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := []string{}
	for _, a := range s.accounts {
		if admin, ok := s.rows[memKey{a.ID, teamID}]; ok && admin {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) IsMember(_ context.Context, accountID, teamID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[memKey{accountID, teamID}]
	return ok, nil
}

func (s *MemStore) IsAdmin(_ context.Context, accountID, teamID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	admin, ok := s.rows[memKey{accountID, teamID}]
	return ok && admin, nil
}

func (s *MemStore) ApplyMembershipChanges(_ context.Context, changes []MembershipChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		key := memKey{c.AccountID, c.TeamID}
		switch c.Op {
		case OpAdd:
			if _, ok := s.rows[key]; !ok {
				s.rows[key] = false
				s.Mutations++
			}
		case OpRemove:
			if _, ok := s.rows[key]; ok {
				delete(s.rows, key)
				s.Mutations++
			}
		case OpPromote:
			if admin, ok := s.rows[key]; ok && !admin {
				s.rows[key] = true
				s.Mutations++
			}
		case OpDemote:
			if admin, ok := s.rows[key]; ok && admin {
				s.rows[key] = false
				s.Mutations++
			}
		default:
			return fmt.Errorf("unknown membership change op %d", c.Op)
		}
	}
	return nil
}
