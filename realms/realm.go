package realms

import (
	"time"

	"github.com/google/uuid"
)

// Default lifetimes applied when a realm is created without explicit values.
const (
	DefaultSessionLifetime      = 300 * time.Second
	DefaultRefreshTokenLifetime = 3600 * time.Second
)

// Realm is the top level of the tenancy hierarchy. Its lifetimes and session
// ceiling bound every client underneath it.
type Realm struct {
	ID                     uuid.UUID     `json:"id"`
	Name                   string        `json:"name"`
	Slug                   string        `json:"slug"`                              // derived from Name on every save
	MaxConcurrentSessions  *int          `json:"max_concurrent_sessions,omitempty"` // nil means unlimited
	SessionLifetime        time.Duration `json:"session_lifetime"`
	RefreshTokenLifetime   time.Duration `json:"refresh_token_lifetime"`
	RefreshTokenReuseLimit int           `json:"refresh_token_reuse_limit"`
	LockedAt               *time.Time    `json:"locked_at,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// IsLocked reports whether the realm has been locked.
func (r *Realm) IsLocked() bool {
	return r.LockedAt != nil
}
