package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Insert(ctx context.Context, session *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// Delete removes one session and reports whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteByClientUser removes every session of the pair and returns the count.
	DeleteByClientUser(ctx context.Context, clientID, userID uuid.UUID) (int, error)
	// CountActive counts sessions of the pair with Expires after now.
	CountActive(ctx context.Context, clientID, userID uuid.UUID, now time.Time) (int, error)
	// DeleteExpired removes sessions whose Expires is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
