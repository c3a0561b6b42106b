package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults returns the settings used when nothing overrides them.
func Defaults() *Settings {
	return &Settings{
		Server: ServerSettings{
			Host:     "http://localhost:8080",
			Port:     "8080",
			Env:      "DEV",
			AppName:  "Go Realm Auth",
			LogLevel: "info",
		},
		Database: DatabaseSettings{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisSettings{Prefix: "realm-auth:"},
		Cache: CacheSettings{CredentialTTL: 30 * time.Second},
		Cors: CorsSettings{
			AllowedOrigins: []string{"*"},
			AllowedMethods: "GET, POST, PUT, PATCH, DELETE",
			AllowedHeaders: "Content-Type, Authorization, Api-Key",
		},
		Security: SecuritySettings{LoginRatePerSecond: 5, LoginBurst: 10},
		Tenancy: TenancySettings{
			MasterRealm: "master",
			AdminClient: "client",
			AdminEmail:  "admin@localhost.dev",
		},
	}
}

// Load builds Settings from the defaults, then the yaml file at path (skipped
// when empty or missing), then a .env file in the working directory, then
// the process environment.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, s); err != nil {
				return nil, errors.Wrapf(err, "[config.Load] parse %s", path)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "[config.Load] read %s", path)
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "[config.Load] .env")
	}
	applyEnv(s)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings the server cannot start with.
func (s *Settings) Validate() error {
	if s.Secrets.SigningKey == "" {
		return errors.New("[config] signing key is required (SIGNING_KEY)")
	}
	if s.Tenancy.MasterRealm == "" || s.Tenancy.AdminClient == "" {
		return errors.New("[config] master realm and admin client names are required")
	}
	if s.Cache.CredentialTTL < 0 {
		return errors.New("[config] credential cache ttl cannot be negative")
	}
	return nil
}
