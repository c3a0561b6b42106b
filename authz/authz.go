// Package authz interprets token claims against the tenancy hierarchy. Every
// function here is pure.
package authz

import (
	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/access"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/token"
)

// Resource identifiers that carry administrative meaning.
const (
	RoleIdentifier  = "role"
	RealmIdentifier = "realm"
	AdminRole       = "admin"
)

// Policy names the master realm and the admin client.
type Policy struct {
	MasterRealm string // value of the realm identifier granting master admin
	AdminClient string // name of the client whose admins administer a realm
}

// DefaultPolicy matches the bootstrap defaults.
var DefaultPolicy = Policy{MasterRealm: "master", AdminClient: "client"}

func isAdmin(r *token.ResourceClaim) bool {
	role, ok := r.Identifier(RoleIdentifier)
	return ok && role == AdminRole
}

// IsMasterRealmAdmin reports whether claims hold role=admin in the master realm.
func (p Policy) IsMasterRealmAdmin(claims *token.AccessClaims) bool {
	if claims == nil || claims.Resource == nil {
		return false
	}
	realm, ok := claims.Resource.Identifier(RealmIdentifier)
	return ok && realm == p.MasterRealm && isAdmin(claims.Resource)
}

// IsCurrentRealmAdmin reports whether claims hold role=admin for realmID
// through the admin client.
func (p Policy) IsCurrentRealmAdmin(claims *token.AccessClaims, realmID uuid.UUID) bool {
	if claims == nil || claims.Resource == nil {
		return false
	}
	realm, ok := claims.Resource.Identifier(RealmIdentifier)
	return ok && realm == realmID.String() &&
		claims.Resource.ClientName == p.AdminClient &&
		isAdmin(claims.Resource)
}

// IsAnyRealmAdmin reports whether claims hold role=admin through the admin client.
func (p Policy) IsAnyRealmAdmin(claims *token.AccessClaims) bool {
	if claims == nil || claims.Resource == nil {
		return false
	}
	return claims.Resource.ClientName == p.AdminClient && isAdmin(claims.Resource)
}

// CanManageRealm is the check every administrative operation runs.
func (p Policy) CanManageRealm(claims *token.AccessClaims, realmID uuid.UUID) bool {
	return p.IsMasterRealmAdmin(claims) || p.IsCurrentRealmAdmin(claims, realmID)
}

// RequireRealmAdmin returns ErrActionForbidden unless CanManageRealm holds.
func (p Policy) RequireRealmAdmin(claims *token.AccessClaims, realmID uuid.UUID) error {
	if !p.CanManageRealm(claims, realmID) {
		return apperrors.ErrActionForbidden
	}
	return nil
}

// HasAPIAccess reports whether cred acts in role with at least level.
func HasAPIAccess(cred *apicreds.Credential, role access.Role, level access.Level) bool {
	if cred == nil {
		return false
	}
	return cred.Role == role && access.HasAccess(cred.Access, level)
}

// Defaults identifies the tenancy rows created by bootstrap. They must never
// be locked or deleted.
type Defaults struct {
	RealmID     uuid.UUID
	ClientID    uuid.UUID
	UserID      uuid.UUID
	GroupID     uuid.UUID
	ResourceIDs []uuid.UUID
}

func (d Defaults) IsDefaultRealm(id uuid.UUID) bool  { return id != uuid.Nil && id == d.RealmID }
func (d Defaults) IsDefaultClient(id uuid.UUID) bool { return id != uuid.Nil && id == d.ClientID }
func (d Defaults) IsDefaultUser(id uuid.UUID) bool   { return id != uuid.Nil && id == d.UserID }
func (d Defaults) IsDefaultGroup(id uuid.UUID) bool  { return id != uuid.Nil && id == d.GroupID }

func (d Defaults) IsDefaultResource(id uuid.UUID) bool {
	for _, r := range d.ResourceIDs {
		if r == id {
			return true
		}
	}
	return false
}

// Protected reports whether id is any of the default rows.
func (d Defaults) Protected(id uuid.UUID) bool {
	return d.IsDefaultRealm(id) || d.IsDefaultClient(id) || d.IsDefaultUser(id) ||
		d.IsDefaultGroup(id) || d.IsDefaultResource(id)
}
