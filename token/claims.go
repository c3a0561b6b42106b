package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ResourceClaim is the capability bag of an access token: the client the
// session belongs to, the resource group used and its name/value resources.
type ResourceClaim struct {
	ClientID    uuid.UUID         `json:"client_id"`
	ClientName  string            `json:"client_name"`
	GroupName   string            `json:"group_name"`
	Identifiers map[string]string `json:"identifiers"`
}

// Identifier returns the value of the named resource.
func (r *ResourceClaim) Identifier(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.Identifiers[name]
	return v, ok
}

// AccessClaims are carried by access tokens. Subject is the user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	Type      string         `json:"typ"`
	SessionID uuid.UUID      `json:"sid"`
	FirstName string         `json:"firstName"`
	LastName  *string        `json:"lastName,omitempty"`
	Email     string         `json:"email"`
	Phone     *string        `json:"phone,omitempty"`
	Resource  *ResourceClaim `json:"resource,omitempty"`
}

// UserID parses the subject.
func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// RefreshClaims are carried by refresh tokens. Subject is the family id.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Type      string    `json:"typ"`
	SessionID uuid.UUID `json:"sid"`
	RealmID   uuid.UUID `json:"rli"`
	ClientID  uuid.UUID `json:"cli"`
}

// FamilyID parses the subject.
func (c *RefreshClaims) FamilyID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
