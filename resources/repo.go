package resources

import (
	"context"

	"github.com/google/uuid"
)

type GroupRepo interface {
	Insert(ctx context.Context, group *Group) error
	Update(ctx context.Context, group *Group) error
	Get(ctx context.Context, id uuid.UUID) (*Group, error)
	// ListByClientUser returns every group of the (client, user) pair, default first.
	ListByClientUser(ctx context.Context, clientID, userID uuid.UUID) ([]*Group, error)
	// ClearDefaults unsets IsDefault on every group of the pair except exceptID.
	ClearDefaults(ctx context.Context, clientID, userID, exceptID uuid.UUID) error
	// Delete removes the group and its resources.
	Delete(ctx context.Context, id uuid.UUID) error
}

type ResourceRepo interface {
	Insert(ctx context.Context, resource *Resource) error
	Update(ctx context.Context, resource *Resource) error
	Get(ctx context.Context, id uuid.UUID) (*Resource, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Resource, error)
	// ListActiveByGroup returns the unlocked resources of a group.
	ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*Resource, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
