package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Family tracks one chain of refresh tokens. Each use increments ReuseCount
// until it reaches the client's reuse limit, at which point the family is
// retired and replaced by a fresh one.
type Family struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ClientID   uuid.UUID  `json:"client_id"`
	RealmID    uuid.UUID  `json:"realm_id"`
	ReuseCount int        `json:"re_used_count"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (f *Family) IsLocked() bool {
	return f.LockedAt != nil
}

// Repo stores refresh token families. Only the family id travels inside the
// signed refresh token; everything else stays server side.
type Repo interface {
	Insert(ctx context.Context, family *Family) error
	Update(ctx context.Context, family *Family) error
	// GetActive returns the unlocked family with id.
	GetActive(ctx context.Context, id uuid.UUID) (*Family, error)
	// GetActiveForUpdate is GetActive holding a row lock until the
	// surrounding transaction ends.
	GetActiveForUpdate(ctx context.Context, id uuid.UUID) (*Family, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
