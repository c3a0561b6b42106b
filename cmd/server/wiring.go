package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-realm-auth/bootstrap"
	"github.com/jrsteele09/go-realm-auth/internal/cache"
	"github.com/jrsteele09/go-realm-auth/internal/cache/memory"
	"github.com/jrsteele09/go-realm-auth/internal/cache/redis"
	"github.com/jrsteele09/go-realm-auth/internal/config"
	"github.com/jrsteele09/go-realm-auth/internal/logger"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/tenancy/memstore"
	"github.com/jrsteele09/go-realm-auth/tenancy/pgstore"
	"github.com/rs/zerolog"
)

const dependencyTimeout = 5 * time.Second

// openedStore is the tenancy store plus what the process needs to check and
// release it.
type openedStore struct {
	tenancy.Store
	health func(ctx context.Context) error
	close  func() error
}

func loadConfig(path string) (*config.Settings, zerolog.Logger, error) {
	s, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(s.GetEnv(), s.GetLogLevel(), os.Stderr)
	logger.SetGlobal(log)
	return s, log, nil
}

// openStore connects to PostgreSQL when a database url is configured and
// falls back to the in-memory store otherwise.
func openStore(ctx context.Context, s *config.Settings, log zerolog.Logger) (*openedStore, error) {
	if s.GetDatabaseURL() == "" {
		log.Warn().Msg("no database url configured, using the in-memory store")
		return &openedStore{
			Store:  memstore.New(),
			health: func(context.Context) error { return nil },
			close:  func() error { return nil },
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()
	pg, err := pgstore.Open(ctx, s.GetDatabaseURL(), pgstore.PoolSettings{
		MaxOpenConns:    s.Database.MaxOpenConns,
		MaxIdleConns:    s.Database.MaxIdleConns,
		ConnMaxLifetime: s.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &openedStore{Store: pg, health: pg.Ping, close: pg.Close}, nil
}

// openCache returns the credential cache: redis when an address is
// configured and reachable, the in-process cache otherwise.
func openCache(ctx context.Context, s *config.Settings, log zerolog.Logger) (cache.Cache, func() error) {
	ttl := s.GetCredentialCacheTTL()
	if s.GetRedisAddr() == "" {
		return memory.New(ttl), func() error { return nil }
	}

	rc := redis.New(s.GetRedisAddr(), s.Redis.Password, s.Redis.DB, s.Redis.Prefix, log)
	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", s.GetRedisAddr()).Msg("redis unreachable, using the in-process credential cache")
		_ = rc.Close()
		return memory.New(ttl), func() error { return nil }
	}
	return rc, rc.Close
}

// ensureDefaults runs bootstrap and returns s carrying the default ids.
func ensureDefaults(ctx context.Context, store tenancy.Store, s *config.Settings, log zerolog.Logger) (*config.Settings, error) {
	res, err := bootstrap.Run(ctx, store, s, bootstrap.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if res.GeneratedPassword != "" {
		// shown once; it is not stored anywhere in clear text
		fmt.Fprintf(os.Stderr, "\nGenerated password for %s: %s\n\n", s.GetAdminEmail(), res.GeneratedPassword)
	}
	d := res.Defaults
	return s.WithDefaultIDs(config.DefaultIDs{
		RealmID:  d.RealmID,
		ClientID: d.ClientID,
		UserID:   d.UserID,
		GroupID:  d.GroupID,
	}), nil
}

func runBootstrap(ctx context.Context, configPath string) error {
	s, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, s, log)
	if err != nil {
		return err
	}
	defer store.close()

	if pg, ok := store.Store.(*pgstore.Store); ok {
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s, err = ensureDefaults(ctx, store, s, log)
	if err != nil {
		return err
	}
	ids := s.GetDefaultIDs()
	fmt.Printf("realm_id=%s\nclient_id=%s\nuser_id=%s\ngroup_id=%s\n", ids.RealmID, ids.ClientID, ids.UserID, ids.GroupID)
	return nil
}

func runMigrate(ctx context.Context, configPath string) error {
	s, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if s.GetDatabaseURL() == "" {
		return errors.New("migrate needs a database url")
	}
	store, err := openStore(ctx, s, log)
	if err != nil {
		return err
	}
	defer store.close()

	if err := store.Store.(*pgstore.Store).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("schema is up to date")
	return nil
}
