package clients

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	Insert(ctx context.Context, client *Client) error
	Update(ctx context.Context, client *Client) error
	Get(ctx context.Context, id uuid.UUID) (*Client, error)
	ListByRealm(ctx context.Context, realmID uuid.UUID) ([]*Client, error)
	// SumMaxConcurrentSessions totals the session quota of every client in the
	// realm except excludeID.
	SumMaxConcurrentSessions(ctx context.Context, realmID, excludeID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
