package tenancy_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/access"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	"github.com/jrsteele09/go-realm-auth/internal/cache/memory"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/internal/utils"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/tenancy/memstore"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type testFixture struct {
	ctx    context.Context
	store  *memstore.Store
	writer *tenancy.Writer
	realm  *realms.Realm
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		ctx:    context.Background(),
		store:  memstore.New(),
		writer: tenancy.NewWriter(func() time.Time { return testNow }),
	}
	f.realm = &realms.Realm{
		Name:                   "Acme Corp",
		MaxConcurrentSessions:  utils.Ptr(5),
		SessionLifetime:        time.Hour,
		RefreshTokenLifetime:   24 * time.Hour,
		RefreshTokenReuseLimit: 3,
	}
	require.NoError(t, f.writer.CreateRealm(f.ctx, f.store, f.realm))
	return f
}

func (f *testFixture) createTestClient(t *testing.T, name string, maxSessions int) *clients.Client {
	t.Helper()
	c := &clients.Client{RealmID: f.realm.ID, Name: name, MaxConcurrentSessions: maxSessions}
	require.NoError(t, f.writer.CreateClient(f.ctx, f.store, c))
	return c
}

func (f *testFixture) createTestUser(t *testing.T, email string) *users.User {
	t.Helper()
	u := &users.User{RealmID: f.realm.ID, Email: email, FirstName: "Test", PasswordHash: "hash"}
	require.NoError(t, f.writer.CreateUser(f.ctx, f.store, u))
	return u
}

func TestCreateRealm(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, "acme-corp", f.realm.Slug)
	require.NotEqual(t, uuid.Nil, f.realm.ID)

	t.Run("defaults", func(t *testing.T) {
		r := &realms.Realm{Name: "defaults"}
		require.NoError(t, f.writer.CreateRealm(f.ctx, f.store, r))
		require.Equal(t, 300*time.Second, r.SessionLifetime)
		require.Equal(t, 3600*time.Second, r.RefreshTokenLifetime)
		require.Equal(t, 0, r.RefreshTokenReuseLimit)
		require.Nil(t, r.MaxConcurrentSessions)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := f.writer.CreateRealm(f.ctx, f.store, &realms.Realm{Name: "Acme Corp"})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("slug follows renames", func(t *testing.T) {
		f.realm.Name = "Acme Holdings"
		require.NoError(t, f.writer.UpdateRealm(f.ctx, f.store, f.realm))
		got, err := f.store.Realms().Get(f.ctx, f.realm.ID)
		require.NoError(t, err)
		require.Equal(t, "acme-holdings", got.Slug)
	})

	t.Run("rename into a taken slug", func(t *testing.T) {
		other := &realms.Realm{Name: "Other"}
		require.NoError(t, f.writer.CreateRealm(f.ctx, f.store, other))
		other.Name = "acme holdings"
		err := f.writer.UpdateRealm(f.ctx, f.store, other)
		require.ErrorIs(t, err, apperrors.ErrValidation)

		got, err := f.store.Realms().Get(f.ctx, other.ID)
		require.NoError(t, err)
		require.Equal(t, "other", got.Slug)
	})

	t.Run("future lock rejected", func(t *testing.T) {
		r := *f.realm
		r.LockedAt = utils.Ptr(testNow.Add(time.Minute))
		err := f.writer.UpdateRealm(f.ctx, f.store, &r)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestClientBoundedByRealm(t *testing.T) {
	f := setupTestFixture(t)

	c := f.createTestClient(t, "web", 3)
	require.Equal(t, f.realm.SessionLifetime, c.SessionLifetime)
	require.Equal(t, f.realm.RefreshTokenLifetime, c.RefreshTokenLifetime)

	cases := []struct {
		name   string
		mutate func(c *clients.Client)
	}{
		{"session lifetime", func(c *clients.Client) { c.SessionLifetime = f.realm.SessionLifetime + time.Second }},
		{"refresh lifetime", func(c *clients.Client) { c.RefreshTokenLifetime = f.realm.RefreshTokenLifetime + time.Second }},
		{"reuse limit", func(c *clients.Client) { c.RefreshTokenReuseLimit = f.realm.RefreshTokenReuseLimit + 1 }},
		{"session quota", func(c *clients.Client) { c.MaxConcurrentSessions = 6 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			updated := *c
			tc.mutate(&updated)
			err := f.writer.UpdateClient(f.ctx, f.store, &updated)
			require.ErrorIs(t, err, apperrors.ErrValidation)

			stored, err := f.store.Clients().Get(f.ctx, c.ID)
			require.NoError(t, err)
			require.LessOrEqual(t, stored.SessionLifetime, f.realm.SessionLifetime)
			require.LessOrEqual(t, stored.RefreshTokenLifetime, f.realm.RefreshTokenLifetime)
			require.LessOrEqual(t, stored.RefreshTokenReuseLimit, f.realm.RefreshTokenReuseLimit)
		})
	}

	t.Run("realm-wide quota sum", func(t *testing.T) {
		f.createTestClient(t, "mobile", 2)
		err := f.writer.CreateClient(f.ctx, f.store, &clients.Client{RealmID: f.realm.ID, Name: "cli", MaxConcurrentSessions: 1})
		require.ErrorIs(t, err, apperrors.ErrValidation)

		// updating an existing client excludes its own previous value
		c.MaxConcurrentSessions = 2
		require.NoError(t, f.writer.UpdateClient(f.ctx, f.store, c))
		require.NoError(t, f.writer.CreateClient(f.ctx, f.store, &clients.Client{RealmID: f.realm.ID, Name: "cli", MaxConcurrentSessions: 1}))
	})

	t.Run("unknown realm", func(t *testing.T) {
		err := f.writer.CreateClient(f.ctx, f.store, &clients.Client{RealmID: uuid.New(), Name: "x", SessionLifetime: time.Second, RefreshTokenLifetime: time.Second})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("tightening realm below a client is rejected", func(t *testing.T) {
		r := *f.realm
		r.SessionLifetime = time.Minute
		err := f.writer.UpdateRealm(f.ctx, f.store, &r)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unlimited realm skips the sum", func(t *testing.T) {
		open := &realms.Realm{Name: "open", SessionLifetime: time.Hour, RefreshTokenLifetime: time.Hour}
		require.NoError(t, f.writer.CreateRealm(f.ctx, f.store, open))
		for i, name := range []string{"a", "b", "c"} {
			err := f.writer.CreateClient(f.ctx, f.store, &clients.Client{RealmID: open.ID, Name: name, MaxConcurrentSessions: 100 * (i + 1)})
			require.NoError(t, err)
		}
	})
}

func TestUserValidation(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, "jane@example.com")

	cases := []struct {
		name  string
		email string
		phone *string
		ok    bool
	}{
		{"plain", "john.doe+tag@mail.example.org", nil, true},
		{"phone with plus", "p1@example.com", utils.Ptr("+4915112345678"), true},
		{"phone without plus", "p2@example.com", utils.Ptr("0123456789"), true},
		{"no tld", "bad@example", nil, false},
		{"no at", "bad.example.com", nil, false},
		{"short phone", "p3@example.com", utils.Ptr("12345"), false},
		{"letters in phone", "p4@example.com", utils.Ptr("+49abc1234567"), false},
		{"duplicate email", "jane@example.com", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &users.User{RealmID: f.realm.ID, Email: tc.email, Phone: tc.phone, FirstName: "T", PasswordHash: "h"}
			err := f.writer.CreateUser(f.ctx, f.store, u)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func defaultCount(t *testing.T, f *testFixture, clientID, userID uuid.UUID) int {
	t.Helper()
	groups, err := f.store.Groups().ListByClientUser(f.ctx, clientID, userID)
	require.NoError(t, err)
	n := 0
	for _, g := range groups {
		if g.IsDefault {
			n++
		}
	}
	return n
}

func TestExactlyOneDefaultGroup(t *testing.T) {
	f := setupTestFixture(t)
	c := f.createTestClient(t, "web", 1)
	u := f.createTestUser(t, "jane@example.com")

	first := &resources.Group{RealmID: f.realm.ID, ClientID: c.ID, UserID: u.ID, Name: "first"}
	require.NoError(t, f.writer.CreateGroup(f.ctx, f.store, first))
	require.True(t, first.IsDefault, "first group of a pair is always default")

	second := &resources.Group{RealmID: f.realm.ID, ClientID: c.ID, UserID: u.ID, Name: "second"}
	require.NoError(t, f.writer.CreateGroup(f.ctx, f.store, second))
	require.False(t, second.IsDefault)
	require.Equal(t, 1, defaultCount(t, f, c.ID, u.ID))

	second.IsDefault = true
	require.NoError(t, f.writer.UpdateGroup(f.ctx, f.store, second))
	require.Equal(t, 1, defaultCount(t, f, c.ID, u.ID))
	got, err := f.store.Groups().Get(f.ctx, first.ID)
	require.NoError(t, err)
	require.False(t, got.IsDefault)

	// unsetting the only default re-asserts it
	second.IsDefault = false
	require.NoError(t, f.writer.UpdateGroup(f.ctx, f.store, second))
	require.True(t, second.IsDefault)
	require.Equal(t, 1, defaultCount(t, f, c.ID, u.ID))

	dup := &resources.Group{RealmID: f.realm.ID, ClientID: c.ID, UserID: u.ID, Name: "first"}
	require.ErrorIs(t, f.writer.CreateGroup(f.ctx, f.store, dup), apperrors.ErrValidation)
}

func TestResourceNamesUniquePerGroup(t *testing.T) {
	f := setupTestFixture(t)
	c := f.createTestClient(t, "web", 1)
	u := f.createTestUser(t, "jane@example.com")
	g := &resources.Group{RealmID: f.realm.ID, ClientID: c.ID, UserID: u.ID, Name: "default"}
	require.NoError(t, f.writer.CreateGroup(f.ctx, f.store, g))

	require.NoError(t, f.writer.CreateResource(f.ctx, f.store, &resources.Resource{GroupID: g.ID, Name: "role", Value: "admin"}))
	err := f.writer.CreateResource(f.ctx, f.store, &resources.Resource{GroupID: g.ID, Name: "role", Value: "user"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, f.store.Groups().Delete(f.ctx, g.ID))
	list, err := f.store.Resources().ListByGroup(f.ctx, g.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCredentialValidation(t *testing.T) {
	f := setupTestFixture(t)
	c := f.createTestClient(t, "web", 1)

	cred := &apicreds.Credential{
		RealmID: f.realm.ID, ClientID: c.ID, Name: "ci",
		Role: access.ClientAdmin, Access: access.Write, Expires: testNow.Add(time.Hour),
	}
	require.NoError(t, f.writer.CreateCredential(f.ctx, f.store, cred))
	require.NotEmpty(t, cred.Secret)

	expired := *cred
	expired.ID = uuid.Nil
	expired.Expires = testNow.Add(-time.Second)
	require.ErrorIs(t, f.writer.CreateCredential(f.ctx, f.store, &expired), apperrors.ErrValidation)

	badRole := *cred
	badRole.ID = uuid.Nil
	badRole.Role = "owner"
	require.ErrorIs(t, f.writer.CreateCredential(f.ctx, f.store, &badRole), apperrors.ErrValidation)
}

func TestUpdateCredentialInvalidatesCache(t *testing.T) {
	f := setupTestFixture(t)
	c := f.createTestClient(t, "web", 1)

	verifier := apicreds.NewVerifier(f.store.Credentials(),
		apicreds.WithCache(memory.New(time.Minute), time.Minute),
		apicreds.WithNowTime(func() time.Time { return testNow }))
	writer := tenancy.NewWriter(func() time.Time { return testNow }, tenancy.OnCredentialChange(verifier.Invalidate))

	cred := &apicreds.Credential{
		RealmID: f.realm.ID, ClientID: c.ID, Name: "ci",
		Role: access.ClientAdmin, Access: access.Admin, Expires: testNow.Add(time.Hour),
	}
	require.NoError(t, writer.CreateCredential(f.ctx, f.store, cred))
	_, err := verifier.Verify(f.ctx, cred.Key())
	require.NoError(t, err)

	cred.LockedAt = utils.Ptr(testNow)
	require.NoError(t, writer.UpdateCredential(f.ctx, f.store, cred))
	_, err = verifier.Verify(f.ctx, cred.Key())
	require.ErrorIs(t, err, apperrors.ErrInvalidAPICredentials)
}

func TestWithinTxRollsBack(t *testing.T) {
	f := setupTestFixture(t)

	var created *clients.Client
	err := f.store.WithinTx(f.ctx, func(tx tenancy.Repos) error {
		created = &clients.Client{RealmID: f.realm.ID, Name: "web", MaxConcurrentSessions: 1}
		if err := f.writer.CreateClient(f.ctx, tx, created); err != nil {
			return err
		}
		// second write violates the quota sum and aborts the unit
		return f.writer.CreateClient(f.ctx, tx, &clients.Client{RealmID: f.realm.ID, Name: "big", MaxConcurrentSessions: 10})
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.store.Clients().Get(f.ctx, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateSessionSweepsExpired(t *testing.T) {
	f := setupTestFixture(t)
	c := f.createTestClient(t, "web", 1)
	u := f.createTestUser(t, "jane@example.com")

	old := &sessions.Session{UserID: u.ID, ClientID: c.ID, Expires: testNow.Add(-time.Second)}
	require.NoError(t, f.store.Sessions().Insert(f.ctx, &sessions.Session{ID: uuid.New(), UserID: u.ID, ClientID: c.ID, Expires: old.Expires}))

	fresh := &sessions.Session{UserID: u.ID, ClientID: c.ID, Expires: testNow.Add(time.Hour)}
	require.NoError(t, f.writer.CreateSession(f.ctx, f.store, fresh))

	n, err := f.store.Sessions().DeleteExpired(f.ctx, testNow)
	require.NoError(t, err)
	require.Equal(t, 0, n, "expired rows are removed by the session write")

	count, err := f.store.Sessions().CountActive(f.ctx, c.ID, u.ID, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
