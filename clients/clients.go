package clients

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxConcurrentSessions is applied when a client is created without a quota.
const DefaultMaxConcurrentSessions = 1

// Client is an application registered under a realm. Every lifetime and limit
// must stay within the owning realm's values.
type Client struct {
	ID                     uuid.UUID     `json:"id"`
	RealmID                uuid.UUID     `json:"realm_id"`
	Name                   string        `json:"name"`
	MaxConcurrentSessions  int           `json:"max_concurrent_sessions"`
	SessionLifetime        time.Duration `json:"session_lifetime"`
	RefreshTokenLifetime   time.Duration `json:"refresh_token_lifetime"`
	RefreshTokenReuseLimit int           `json:"refresh_token_reuse_limit"`
	LockedAt               *time.Time    `json:"locked_at,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// IsLocked reports whether the client has been locked.
func (c *Client) IsLocked() bool {
	return c.LockedAt != nil
}
