// Package config loads the server settings and hands them out through an
// atomically swapped Handle.
package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	TenancyConfig
}

type EnvConfig interface {
	GetPort() string
	GetHost() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetIssuer() string
	GetDatabaseURL() string
	GetRedisAddr() string
	GetCredentialCacheTTL() time.Duration
	GetSigningKey() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// Settings is the whole configuration tree. It is never mutated once
// published through a Handle; reloads publish a new value.
type Settings struct {
	Server   ServerSettings   `yaml:"server"`
	Database DatabaseSettings `yaml:"database"`
	Redis    RedisSettings    `yaml:"redis"`
	Cache    CacheSettings    `yaml:"cache"`
	Secrets  SecretSettings   `yaml:"secrets"`
	Cors     CorsSettings     `yaml:"cors"`
	Security SecuritySettings `yaml:"security"`
	Tenancy  TenancySettings  `yaml:"tenancy"`
}

type ServerSettings struct {
	Host     string `yaml:"host"` // also the token issuer
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	AppName  string `yaml:"app_name"`
	LogLevel string `yaml:"log_level"`
}

type DatabaseSettings struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type CacheSettings struct {
	CredentialTTL time.Duration `yaml:"credential_ttl"`
}

type SecretSettings struct {
	SigningKey string `yaml:"signing_key"`
}

type CorsSettings struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods string   `yaml:"allowed_methods"`
	AllowedHeaders string   `yaml:"allowed_headers"`
}

type SecuritySettings struct {
	LoginRatePerSecond float64 `yaml:"login_rate_per_second"`
	LoginBurst         int     `yaml:"login_burst"`
}

type TenancySettings struct {
	MasterRealm   string `yaml:"master_realm"`
	AdminClient   string `yaml:"admin_client"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`

	// Filled in after bootstrap.
	DefaultRealmID  string `yaml:"default_realm_id"`
	DefaultClientID string `yaml:"default_client_id"`
	DefaultUserID   string `yaml:"default_user_id"`
	DefaultGroupID  string `yaml:"default_group_id"`
}

var _ Config = (*Settings)(nil)

func (s *Settings) GetPort() string {
	port := s.Server.Port
	if port != "" && port[0] != ':' {
		port = ":" + port
	}
	return port
}

func (s *Settings) GetHost() string    { return s.Server.Host }
func (s *Settings) GetAppName() string { return s.Server.AppName }

func (s *Settings) GetEnv() string {
	if s.Server.Env == "" {
		return "DEV"
	}
	return s.Server.Env
}

func (s *Settings) GetLogLevel() string { return s.Server.LogLevel }

// GetIssuer returns the iss claim of every token.
func (s *Settings) GetIssuer() string { return s.Server.Host }

func (s *Settings) GetDatabaseURL() string { return s.Database.URL }
func (s *Settings) GetRedisAddr() string   { return s.Redis.Addr }

func (s *Settings) GetCredentialCacheTTL() time.Duration { return s.Cache.CredentialTTL }

func (s *Settings) GetSigningKey() string { return s.Secrets.SigningKey }

// IsDev reports whether the server runs in the DEV environment.
func (s *Settings) IsDev() bool { return s.GetEnv() == "DEV" }
