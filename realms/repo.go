package realms

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	Insert(ctx context.Context, realm *Realm) error
	Update(ctx context.Context, realm *Realm) error
	Get(ctx context.Context, id uuid.UUID) (*Realm, error)
	GetByName(ctx context.Context, name string) (*Realm, error)
	GetBySlug(ctx context.Context, slug string) (*Realm, error)
	List(ctx context.Context, offset, limit int) ([]*Realm, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
