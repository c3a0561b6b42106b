package users

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	Insert(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail finds the user with email inside realmID.
	GetByEmail(ctx context.Context, realmID uuid.UUID, email string) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
