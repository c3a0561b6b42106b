package pgstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/tenancy/pgstore"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 4, 2, 15, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*pgstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return pgstore.New(db), mock
}

var realmCols = []string{"id", "name", "slug", "max_concurrent_sessions", "session_lifetime",
	"refresh_token_lifetime", "refresh_token_reuse_limit", "locked_at", "created_at", "updated_at"}

func TestRealmGet(t *testing.T) {
	ctx := context.Background()
	store, mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery("from realms where id=\\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(realmCols).
			AddRow(id.String(), "master", "master", int64(10), int64(300), int64(3600), int64(2), nil, testNow, testNow))

	r, err := store.Realms().Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, r.ID)
	require.Equal(t, 300*time.Second, r.SessionLifetime)
	require.Equal(t, time.Hour, r.RefreshTokenLifetime)
	require.NotNil(t, r.MaxConcurrentSessions)
	require.Equal(t, 10, *r.MaxConcurrentSessions)
	require.False(t, r.IsLocked())
}

func TestRealmGetNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("from realms where name=\\$1").WithArgs("nope").WillReturnRows(sqlmock.NewRows(realmCols))

	_, err := store.Realms().GetByName(context.Background(), "nope")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRealmGetBySlug(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery("from realms where slug=\\$1").
		WithArgs("acme-corp").
		WillReturnRows(sqlmock.NewRows(realmCols).
			AddRow(id.String(), "Acme Corp", "acme-corp", nil, int64(300), int64(3600), int64(0), nil, testNow, testNow))

	r, err := store.Realms().GetBySlug(context.Background(), "acme-corp")
	require.NoError(t, err)
	require.Equal(t, id, r.ID)
	require.Nil(t, r.MaxConcurrentSessions)
}

func TestRealmInsertUniqueViolation(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec("insert into realms").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "realms_name_key", ColumnName: "name"})

	err := store.Realms().Insert(context.Background(), &realms.Realm{ID: uuid.New(), Name: "master", Slug: "master"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDriverErrorIsPersistence(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select coalesce\\(sum\\(max_concurrent_sessions\\), 0\\) from clients").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Clients().SumMaxConcurrentSessions(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestSumMaxConcurrentSessionsExcludesRow(t *testing.T) {
	store, mock := newMock(t)
	realmID, self := uuid.New(), uuid.New()
	mock.ExpectQuery("from clients where realm_id=\\$1 and id<>\\$2").
		WithArgs(realmID, self).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(4)))

	total, err := store.Clients().SumMaxConcurrentSessions(context.Background(), realmID, self)
	require.NoError(t, err)
	require.Equal(t, 4, total)
}

func TestCountActiveSessions(t *testing.T) {
	store, mock := newMock(t)
	clientID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery("select count\\(\\*\\) from sessions where client_id=\\$1 and user_id=\\$2 and expires > \\$3").
		WithArgs(clientID, userID, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	n, err := store.Sessions().CountActive(context.Background(), clientID, userID, testNow)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestWithinTxCommit(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("from refresh_token_families where id=\\$1 and locked_at is null for update").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "client_id", "realm_id", "re_used_count",
			"locked_at", "created_at", "updated_at"}).
			AddRow(id.String(), uuid.NewString(), uuid.NewString(), uuid.NewString(), int64(1), nil, testNow, testNow))
	mock.ExpectExec("update refresh_token_families set re_used_count=\\$2").
		WithArgs(id, 2, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx tenancy.Repos) error {
		m := refresh.NewManager(tx.Families(), refresh.WithNowFunc(func() time.Time { return testNow }))
		f, err := m.Lock(context.Background(), id)
		if err != nil {
			return err
		}
		tr, err := m.Advance(context.Background(), f, 5)
		if err != nil {
			return err
		}
		require.Equal(t, refresh.Incremented, tr.Outcome)
		return nil
	})
	require.NoError(t, err)
}

func TestWithinTxRollback(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("from refresh_token_families").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx tenancy.Repos) error {
		_, err := tx.Families().GetActiveForUpdate(context.Background(), id)
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionDeleteReportsExistence(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.New()
	mock.ExpectExec("delete from sessions where id=\\$1").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := store.Sessions().Delete(context.Background(), id)
	require.NoError(t, err)
	require.False(t, found)
}

func TestMigrate(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec("create table if not exists realms").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, store.Migrate(context.Background()))
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	store := pgstore.New(db)

	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	require.Error(t, store.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
