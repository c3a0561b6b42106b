// Package resources holds resource groups and the name/value resources that
// become the capability claims of an access token.
package resources

import (
	"time"

	"github.com/google/uuid"
)

// Group binds a user to a client inside a realm. Exactly one group per
// (client, user) pair is the default.
type Group struct {
	ID        uuid.UUID  `json:"id"`
	RealmID   uuid.UUID  `json:"realm_id"`
	ClientID  uuid.UUID  `json:"client_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	IsDefault bool       `json:"is_default"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (g *Group) IsLocked() bool {
	return g.LockedAt != nil
}

// Resource is a single capability (for example role=admin) inside a group.
type Resource struct {
	ID        uuid.UUID  `json:"id"`
	GroupID   uuid.UUID  `json:"group_id"`
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *Resource) IsLocked() bool {
	return r.LockedAt != nil
}

// Identifiers flattens resources into the name to value map carried in tokens.
func Identifiers(list []*Resource) map[string]string {
	out := make(map[string]string, len(list))
	for _, r := range list {
		out[r.Name] = r.Value
	}
	return out
}
