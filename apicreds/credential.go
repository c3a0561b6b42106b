// Package apicreds implements service-account credentials presented as
// "<id>.<secret>" in the Api-Key header.
package apicreds

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/access"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/pkg/errors"
)

// HeaderName is the request header carrying the raw key.
const HeaderName = "Api-Key"

const secretLength = 32

type Credential struct {
	ID          uuid.UUID    `json:"id"`
	Secret      string       `json:"secret,omitempty"`
	RealmID     uuid.UUID    `json:"realm_id"`
	ClientID    uuid.UUID    `json:"client_id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Role        access.Role  `json:"role"`
	Access      access.Level `json:"access"`
	Expires     time.Time    `json:"expires"`
	LockedAt    *time.Time   `json:"locked_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (c *Credential) IsLocked() bool {
	return c.LockedAt != nil
}

// Key renders the value a caller sends in the Api-Key header.
func (c *Credential) Key() string {
	return c.ID.String() + "." + c.Secret
}

type Repo interface {
	Insert(ctx context.Context, cred *Credential) error
	Update(ctx context.Context, cred *Credential) error
	// GetActive returns the unlocked credential with id.
	GetActive(ctx context.Context, id uuid.UUID) (*Credential, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Parse splits a raw key on its first '.' into the id and the secret.
func Parse(raw string) (uuid.UUID, string, error) {
	idPart, secret, ok := strings.Cut(raw, ".")
	if !ok || secret == "" {
		return uuid.Nil, "", apperrors.ErrInvalidAPICredentials
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", apperrors.ErrInvalidAPICredentials
	}
	return id, secret, nil
}

// GenerateSecret returns a random url-safe secret. It never contains '.'.
func GenerateSecret() (string, error) {
	b := make([]byte, secretLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[apicreds.GenerateSecret] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
