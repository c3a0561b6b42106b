package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-realm-auth/bootstrap"
	"github.com/jrsteele09/go-realm-auth/internal/config"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/tenancy/memstore"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type testFixture struct {
	ctx   context.Context
	store *memstore.Store
	cfg   *config.Settings
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	cfg := config.Defaults()
	cfg.Tenancy.AdminPassword = "Sup3rSecret"
	return &testFixture{ctx: context.Background(), store: memstore.New(), cfg: cfg}
}

func (f *testFixture) run(t *testing.T) *bootstrap.Result {
	t.Helper()
	res, err := bootstrap.Run(f.ctx, f.store, f.cfg, bootstrap.WithNowTime(func() time.Time { return testNow }))
	require.NoError(t, err)
	return res
}

func TestRun_CreatesHierarchy(t *testing.T) {
	f := setupTestFixture(t)
	res := f.run(t)
	require.True(t, res.Created)
	require.Empty(t, res.GeneratedPassword)

	realm, err := f.store.Realms().Get(f.ctx, res.Defaults.RealmID)
	require.NoError(t, err)
	require.Equal(t, "master", realm.Name)

	client, err := f.store.Clients().Get(f.ctx, res.Defaults.ClientID)
	require.NoError(t, err)
	require.Equal(t, "client", client.Name)
	require.Equal(t, realm.ID, client.RealmID)

	user, err := f.store.Users().Get(f.ctx, res.Defaults.UserID)
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Sup3rSecret", user.PasswordHash))

	group, err := f.store.Groups().Get(f.ctx, res.Defaults.GroupID)
	require.NoError(t, err)
	require.True(t, group.IsDefault)

	list, err := f.store.Resources().ListByGroup(f.ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"role": "admin", "realm": "master"}, resources.Identifiers(list))
	require.Len(t, res.Defaults.ResourceIDs, 2)
	require.True(t, res.Defaults.Protected(group.ID))
}

func TestRun_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	first := f.run(t)
	second := f.run(t)
	require.False(t, second.Created)
	require.Equal(t, first.Defaults, second.Defaults)

	realms, err := f.store.Realms().List(f.ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, realms, 1)
}

func TestRun_GeneratesPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.cfg.Tenancy.AdminPassword = ""
	res := f.run(t)
	require.NotEmpty(t, res.GeneratedPassword)
	require.NoError(t, users.ValidatePasswordStrength(res.GeneratedPassword))

	user, err := f.store.Users().Get(f.ctx, res.Defaults.UserID)
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash(res.GeneratedPassword, user.PasswordHash))
}

// failingStore fails the transaction after every step has written.
type failingStore struct {
	*memstore.Store
}

func (s failingStore) WithinTx(ctx context.Context, fn func(tx tenancy.Repos) error) error {
	return s.Store.WithinTx(ctx, func(tx tenancy.Repos) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("commit refused")
	})
}

func TestRun_RollsBackOnFailure(t *testing.T) {
	f := setupTestFixture(t)
	_, err := bootstrap.Run(f.ctx, failingStore{f.store}, f.cfg)
	require.Error(t, err)

	list, err := f.store.Realms().List(f.ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRun_InvalidAdminEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.cfg.Tenancy.AdminEmail = "not-an-email"
	_, err := bootstrap.Run(f.ctx, f.store, f.cfg)
	require.Error(t, err)

	list, err := f.store.Realms().List(f.ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, list)
}
