// Package pgstore is the PostgreSQL tenancy.Store. It runs on database/sql
// with the pgx stdlib driver.
package pgstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/jrsteele09/go-realm-auth/users"
	pkgerrors "github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

var _ tenancy.Store = (*Store)(nil)

// PoolSettings tunes the database/sql connection pool.
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	*view
}

// Open connects to dsn with the pgx driver and checks the connection.
func Open(ctx context.Context, dsn string, pool PoolSettings) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[pgstore.Open] sql.Open")
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "[pgstore.Open] ping")
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, view: &view{q: db}}
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.Persistence("migrate", err)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx tenancy.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Persistence("begin", err)
	}
	if err := fn(&view{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Persistence("commit", err)
	}
	return nil
}

type view struct {
	q querier
}

func (v *view) Realms() realms.Repo               { return realmRepo{v.q} }
func (v *view) Clients() clients.Repo             { return clientRepo{v.q} }
func (v *view) Users() users.Repo                 { return userRepo{v.q} }
func (v *view) Groups() resources.GroupRepo       { return groupRepo{v.q} }
func (v *view) Resources() resources.ResourceRepo { return resourceRepo{v.q} }
func (v *view) Sessions() sessions.Repo           { return sessionRepo{v.q} }
func (v *view) Families() refresh.Repo            { return familyRepo{v.q} }
func (v *view) Credentials() apicreds.Repo        { return credentialRepo{v.q} }

// mapErr classifies driver errors: missing rows become ErrNotFound, unique
// violations become validation errors and anything else a persistence error.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return pkgerrors.Wrap(apperrors.ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperrors.Validation(pgErr.ColumnName, "%s already exists (%s)", op, pgErr.ConstraintName)
		case "23503":
			return apperrors.Validation(pgErr.ColumnName, "%s references a missing row (%s)", op, pgErr.ConstraintName)
		}
	}
	return apperrors.Persistence(op, err)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func duration(secs int64) time.Duration {
	return time.Duration(secs) * time.Second
}

func affected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(op, err)
	}
	if n == 0 {
		return pkgerrors.Wrap(apperrors.ErrNotFound, op)
	}
	return nil
}
