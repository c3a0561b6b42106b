package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar        = "PORT"
	hostEnvVar        = "HOST"
	envEnvVar         = "ENV"
	appNameVar        = "APP_NAME"
	logLevelVar       = "LOG_LEVEL"
	databaseURLVar    = "DATABASE_URL"
	dbMaxOpenVar      = "DB_MAX_OPEN_CONNS"
	dbMaxIdleVar      = "DB_MAX_IDLE_CONNS"
	dbConnLifetimeVar = "DB_CONN_MAX_LIFETIME"
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisDBVar        = "REDIS_DB"
	redisPrefixVar    = "REDIS_PREFIX"
	credentialTTLVar  = "CREDENTIAL_CACHE_TTL"
	signingKeyVar     = "SIGNING_KEY"
	corsOriginsVar    = "CORS_ALLOWED_ORIGINS"
	loginRateVar      = "LOGIN_RATE_PER_SECOND"
	loginBurstVar     = "LOGIN_BURST"
	masterRealmVar    = "MASTER_REALM"
	adminClientVar    = "ADMIN_CLIENT"
	adminEmailVar     = "ADMIN_EMAIL"
	adminPasswordVar  = "ADMIN_PASSWORD"
	defaultRealmVar   = "DEFAULT_REALM_ID"
	defaultClientVar  = "DEFAULT_CLIENT_ID"
	defaultUserVar    = "DEFAULT_USER_ID"
	defaultGroupVar   = "DEFAULT_GROUP_ID"
)

// applyEnv overrides s with every variable that is set.
func applyEnv(s *Settings) {
	s.Server.Port = GetEnv(portEnvVar, s.Server.Port)
	s.Server.Host = GetEnv(hostEnvVar, s.Server.Host)
	s.Server.Env = GetEnv(envEnvVar, s.Server.Env)
	s.Server.AppName = GetEnv(appNameVar, s.Server.AppName)
	s.Server.LogLevel = GetEnv(logLevelVar, s.Server.LogLevel)

	s.Database.URL = GetEnv(databaseURLVar, s.Database.URL)
	s.Database.MaxOpenConns = GetIntEnv(dbMaxOpenVar, s.Database.MaxOpenConns)
	s.Database.MaxIdleConns = GetIntEnv(dbMaxIdleVar, s.Database.MaxIdleConns)
	s.Database.ConnMaxLifetime = GetDurationEnv(dbConnLifetimeVar, s.Database.ConnMaxLifetime)

	s.Redis.Addr = GetEnv(redisAddrVar, s.Redis.Addr)
	s.Redis.Password = GetEnv(redisPasswordVar, s.Redis.Password)
	s.Redis.DB = GetIntEnv(redisDBVar, s.Redis.DB)
	s.Redis.Prefix = GetEnv(redisPrefixVar, s.Redis.Prefix)

	s.Cache.CredentialTTL = GetDurationEnv(credentialTTLVar, s.Cache.CredentialTTL)
	s.Secrets.SigningKey = GetEnv(signingKeyVar, s.Secrets.SigningKey)

	if v := os.Getenv(corsOriginsVar); v != "" {
		s.Cors.AllowedOrigins = splitList(v)
	}

	s.Security.LoginRatePerSecond = GetFloatEnv(loginRateVar, s.Security.LoginRatePerSecond)
	s.Security.LoginBurst = GetIntEnv(loginBurstVar, s.Security.LoginBurst)

	s.Tenancy.MasterRealm = GetEnv(masterRealmVar, s.Tenancy.MasterRealm)
	s.Tenancy.AdminClient = GetEnv(adminClientVar, s.Tenancy.AdminClient)
	s.Tenancy.AdminEmail = GetEnv(adminEmailVar, s.Tenancy.AdminEmail)
	s.Tenancy.AdminPassword = GetEnv(adminPasswordVar, s.Tenancy.AdminPassword)
	s.Tenancy.DefaultRealmID = GetEnv(defaultRealmVar, s.Tenancy.DefaultRealmID)
	s.Tenancy.DefaultClientID = GetEnv(defaultClientVar, s.Tenancy.DefaultClientID)
	s.Tenancy.DefaultUserID = GetEnv(defaultUserVar, s.Tenancy.DefaultUserID)
	s.Tenancy.DefaultGroupID = GetEnv(defaultGroupVar, s.Tenancy.DefaultGroupID)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetIntEnv returns defaultValue when the variable is unset or not an integer.
func GetIntEnv(envVar string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return n
}

func GetFloatEnv(envVar string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(envVar), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// GetDurationEnv accepts Go durations ("90s") or bare seconds.
func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(envVar)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
