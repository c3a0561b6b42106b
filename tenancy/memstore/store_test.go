package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/tenancy/memstore"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newRealm(name string) *realms.Realm {
	return &realms.Realm{ID: uuid.New(), Name: name, Slug: name}
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	t.Run("commit", func(t *testing.T) {
		r := newRealm("committed")
		require.NoError(t, store.WithinTx(ctx, func(tx tenancy.Repos) error {
			return tx.Realms().Insert(ctx, r)
		}))
		got, err := store.Realms().Get(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, "committed", got.Name)
	})

	t.Run("rollback restores every write", func(t *testing.T) {
		r := newRealm("rolled-back")
		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(tx tenancy.Repos) error {
			require.NoError(t, tx.Realms().Insert(ctx, r))
			// visible inside the transaction
			_, err := tx.Realms().Get(ctx, r.ID)
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = store.Realms().Get(ctx, r.ID)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := store.WithinTx(cctx, func(tenancy.Repos) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, called)
	})
}

func TestRealmNameUnique(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Realms().Insert(ctx, newRealm("acme")))

	err := store.Realms().Insert(ctx, newRealm("acme"))
	require.ErrorIs(t, err, apperrors.ErrValidation)

	other := newRealm("other")
	require.NoError(t, store.Realms().Insert(ctx, other))
	other.Name = "Acme"
	other.Slug = "acme"
	err = store.Realms().Update(ctx, other)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := store.Realms().GetBySlug(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, other.ID, got.ID)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	clientID, userID := uuid.New(), uuid.New()

	add := func(expires time.Time) *sessions.Session {
		s := &sessions.Session{ID: uuid.New(), ClientID: clientID, UserID: userID, Expires: expires}
		require.NoError(t, store.Sessions().Insert(ctx, s))
		return s
	}
	live := add(testNow.Add(time.Hour))
	add(testNow.Add(time.Minute))
	add(testNow.Add(-time.Minute))

	n, err := store.Sessions().CountActive(ctx, clientID, userID, testNow)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = store.Sessions().DeleteExpired(ctx, testNow.Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	found, err := store.Sessions().Delete(ctx, live.ID)
	require.NoError(t, err)
	require.True(t, found)
	found, err = store.Sessions().Delete(ctx, live.ID)
	require.NoError(t, err)
	require.False(t, found)
}
