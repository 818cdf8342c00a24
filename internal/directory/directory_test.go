package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoyou/whoyou/internal/credential"
	"github.com/whoyou/whoyou/internal/directory"
)

func newDirectory(t *testing.T) (*directory.Directory, *directory.MemStore) {
	t.Helper()
	store := directory.NewMemStore()
	return directory.New(store, credential.NewHasher("test-salt"), false), store
}

// countingStore wraps a Store and counts account lookups, for asserting the
// per-request cache behavior.
type countingStore struct {
	directory.Store
	accountGets int
}

func (c *countingStore) GetAccount(ctx context.Context, name string) (*directory.Account, error) {
	c.accountGets++
	return c.Store.GetAccount(ctx, name)
}

// --- Account CRUD ---

func TestCreateAccount_Roundtrip(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	created, err := d.CreateAccount(ctx, "jdoe", "secret1", "A test user.")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := d.GetAccount(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.Name)
	assert.Equal(t, "A test user.", got.Description)
	assert.NotEmpty(t, got.PasswordDigest)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	_, err = d.CreateAccount(ctx, "jdoe", "other", "")
	assert.ErrorIs(t, err, directory.ErrAlreadyExists)
}

func TestGetAccount_NotFound(t *testing.T) {
	d, _ := newDirectory(t)

	_, err := d.GetAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, directory.ErrAccountNotFound)
}

func TestGetAccount_CachedWithinRequest(t *testing.T) {
	store := directory.NewMemStore()
	counting := &countingStore{Store: store}
	d := directory.New(counting, credential.NewHasher("test-salt"), false)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	_, err = d.GetAccount(ctx, "jdoe")
	require.NoError(t, err)
	_, err = d.GetAccount(ctx, "jdoe")
	require.NoError(t, err)

	assert.Zero(t, counting.accountGets, "cached account should not hit the store")
}

func TestListAccounts_OrderedByName(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	for _, name := range []string{"zelda", "alice", "mallory"} {
		_, err := d.CreateAccount(ctx, name, "secret1", "")
		require.NoError(t, err)
	}

	accounts, err := d.ListAccounts(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"alice", "mallory", "zelda"}, names)
}

// --- Authentication ---

func TestAuthenticate_Success(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	a, err := d.Authenticate(ctx, "jdoe", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", a.Name)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	_, err = d.Authenticate(ctx, "jdoe", "wrong")
	assert.ErrorIs(t, err, directory.ErrInvalidCredential)
}

func TestAuthenticate_EmptyDigestRejectedByDefault(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "anonymous", "", "")
	require.NoError(t, err)

	_, err = d.Authenticate(ctx, "anonymous", "anything")
	assert.ErrorIs(t, err, directory.ErrInvalidCredential)
	_, err = d.Authenticate(ctx, "anonymous", "")
	assert.ErrorIs(t, err, directory.ErrInvalidCredential)
}

func TestAuthenticate_EmptyDigestAllowedWhenConfigured(t *testing.T) {
	store := directory.NewMemStore()
	d := directory.New(store, credential.NewHasher("test-salt"), true)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "anonymous", "", "")
	require.NoError(t, err)

	a, err := d.Authenticate(ctx, "anonymous", "whatever")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", a.Name)
}

// --- Save ---

func TestSaveAccount_Update(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	a, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	a.Email = "jdoe@example.com"
	require.NoError(t, d.SaveAccount(ctx, a))

	fresh, err := d.GetAccount(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", fresh.Email)
}

func TestSaveAccount_IdentityConflict(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	imposter := &directory.Account{ID: 999, Name: "jdoe"}
	err = d.SaveAccount(ctx, imposter)
	assert.ErrorIs(t, err, directory.ErrIdentityConflict)
}

func TestSaveTeam_InsertWhenUnassigned(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	team := &directory.Team{Name: "newteam", Description: "fresh"}
	require.NoError(t, d.SaveTeam(ctx, team))
	assert.NotZero(t, team.ID)

	got, err := d.GetTeam(ctx, "newteam")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Description)
}

// --- Properties ---

func TestUpdateAccountProperties_MergePreservesOtherApplications(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)

	require.NoError(t, d.UpdateAccountProperties(ctx, "jdoe", "app1", map[string]any{"theme": "dark"}))
	require.NoError(t, d.UpdateAccountProperties(ctx, "jdoe", "app2", map[string]any{"lang": "sv"}))
	require.NoError(t, d.UpdateAccountProperties(ctx, "jdoe", "app1", map[string]any{"rows": 50}))

	a, err := d.GetAccount(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "dark", a.Properties["app1"]["theme"])
	assert.Equal(t, 50, a.Properties["app1"]["rows"])
	assert.Equal(t, "sv", a.Properties["app2"]["lang"])
}

// --- Membership reconciliation ---

func seedMembership(t *testing.T, d *directory.Directory) *directory.Account {
	t.Helper()
	ctx := context.Background()
	a, err := d.CreateAccount(ctx, "jdoe", "secret1", "")
	require.NoError(t, err)
	for _, name := range []string{"team1", "team2", "team3"} {
		_, err := d.CreateTeam(ctx, name, "")
		require.NoError(t, err)
	}
	return a
}

func memberships(t *testing.T, d *directory.Directory, a *directory.Account) []string {
	t.Helper()
	refs, err := d.AccountTeams(context.Background(), a)
	require.NoError(t, err)
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

func TestSetTeamMembership_Roundtrip(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	a := seedMembership(t, d)

	require.NoError(t, d.SetTeamMembership(ctx, a, []string{"team1", "team2"}))
	assert.Equal(t, []string{"team1", "team2"}, memberships(t, d, a))

	require.NoError(t, d.SetTeamMembership(ctx, a, []string{"team2", "team3"}))
	assert.Equal(t, []string{"team2", "team3"}, memberships(t, d, a))

	// Membership is never an implicit promotion.
	team3, err := d.GetTeam(ctx, "team3")
	require.NoError(t, err)
	admin, err := d.IsAdmin(ctx, team3, a)
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestSetTeamMembership_Idempotent(t *testing.T) {
	d, store := newDirectory(t)
	ctx := context.Background()
	a := seedMembership(t, d)

	require.NoError(t, d.SetTeamMembership(ctx, a, []string{"team1", "team2"}))
	before := store.Mutations

	require.NoError(t, d.SetTeamMembership(ctx, a, []string{"team1", "team2"}))
	assert.Equal(t, before, store.Mutations, "second reconciliation should issue zero mutations")
	assert.Equal(t, []string{"team1", "team2"}, memberships(t, d, a))
}

func TestSetTeamMembership_UnknownTeamSkipped(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	a := seedMembership(t, d)

	require.NoError(t, d.SetTeamMembership(ctx, a, []string{"team1", "ghost"}))
	assert.Equal(t, []string{"team1"}, memberships(t, d, a))
}

func TestSetTeamMembership_RemovalDropsAdminFlag(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	a := seedMembership(t, d)

	team1, err := d.GetTeam(ctx, "team1")
	require.NoError(t, err)
	require.NoError(t, d.AddMember(ctx, team1, a))
	require.NoError(t, d.SetAdmin(ctx, team1, a, true))

	require.NoError(t, d.SetTeamMembership(ctx, a, nil))

	member, err := d.IsMember(ctx, team1, a)
	require.NoError(t, err)
	assert.False(t, member)
	admin, err := d.IsAdmin(ctx, team1, a)
	require.NoError(t, err)
	assert.False(t, admin)

	// Rejoining does not resurrect the flag.
	require.NoError(t, d.SetTeamMembership(ctx, a, []string{"team1"}))
	admin, err = d.IsAdmin(ctx, team1, a)
	require.NoError(t, err)
	assert.False(t, admin)
}

// --- Admin reconciliation ---

func TestSetTeamAdmins_PromoteAndDemote(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	team, err := d.CreateTeam(ctx, "ops-team", "")
	require.NoError(t, err)
	alice, err := d.CreateAccount(ctx, "alice", "secret1", "")
	require.NoError(t, err)
	bob, err := d.CreateAccount(ctx, "bobby", "secret1", "")
	require.NoError(t, err)
	require.NoError(t, d.AddMember(ctx, team, alice))
	require.NoError(t, d.AddMember(ctx, team, bob))
	require.NoError(t, d.SetAdmin(ctx, team, alice, true))

	require.NoError(t, d.SetTeamAdmins(ctx, team, []string{"bobby"}))

	admins, err := d.TeamAdmins(ctx, team)
	require.NoError(t, err)
	assert.Equal(t, []string{"bobby"}, admins)
}

func TestSetTeamAdmins_Idempotent(t *testing.T) {
	d, store := newDirectory(t)
	ctx := context.Background()

	team, err := d.CreateTeam(ctx, "ops-team", "")
	require.NoError(t, err)
	alice, err := d.CreateAccount(ctx, "alice", "secret1", "")
	require.NoError(t, err)
	require.NoError(t, d.AddMember(ctx, team, alice))

	require.NoError(t, d.SetTeamAdmins(ctx, team, []string{"alice"}))
	before := store.Mutations

	require.NoError(t, d.SetTeamAdmins(ctx, team, []string{"alice"}))
	assert.Equal(t, before, store.Mutations)
}

func TestSetTeamAdmins_NonMemberNotPromoted(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	team, err := d.CreateTeam(ctx, "ops-team", "")
	require.NoError(t, err)
	_, err = d.CreateAccount(ctx, "outsider", "secret1", "")
	require.NoError(t, err)

	require.NoError(t, d.SetTeamAdmins(ctx, team, []string{"outsider", "ghost"}))

	admins, err := d.TeamAdmins(ctx, team)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestSetAdmin_NonMemberRejected(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	team, err := d.CreateTeam(ctx, "ops-team", "")
	require.NoError(t, err)
	outsider, err := d.CreateAccount(ctx, "outsider", "secret1", "")
	require.NoError(t, err)

	err = d.SetAdmin(ctx, team, outsider, true)
	assert.ErrorIs(t, err, directory.ErrNotMember)
}

// --- Bootstrap ---

func TestBootstrap_SeedsAdminEntities(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	seeded, err := d.Bootstrap(ctx, "secret1")
	require.NoError(t, err)
	assert.True(t, seeded)

	admin, err := d.Authenticate(ctx, "admin", "secret1")
	require.NoError(t, err)
	team, err := d.GetTeam(ctx, "admin")
	require.NoError(t, err)
	isAdmin, err := d.IsAdmin(ctx, team, admin)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	anon, err := d.GetAccount(ctx, "anonymous")
	require.NoError(t, err)
	assert.Empty(t, anon.PasswordDigest)
}

func TestBootstrap_NoopWhenAccountsExist(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.CreateAccount(ctx, "existing", "secret1", "")
	require.NoError(t, err)

	seeded, err := d.Bootstrap(ctx, "secret1")
	require.NoError(t, err)
	assert.False(t, seeded)
}
