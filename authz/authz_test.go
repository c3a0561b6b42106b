package authz_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/access"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/authz"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/stretchr/testify/require"
)

func claimsWith(clientName string, ids map[string]string) *token.AccessClaims {
	return &token.AccessClaims{Resource: &token.ResourceClaim{ClientName: clientName, Identifiers: ids}}
}

func TestRealmAdminChecks(t *testing.T) {
	p := authz.DefaultPolicy
	realmID := uuid.New()

	master := claimsWith("client", map[string]string{"role": "admin", "realm": "master"})
	current := claimsWith("client", map[string]string{"role": "admin", "realm": realmID.String()})
	wrongClient := claimsWith("app", map[string]string{"role": "admin", "realm": realmID.String()})
	notAdmin := claimsWith("client", map[string]string{"role": "user", "realm": realmID.String()})
	noResource := &token.AccessClaims{}

	require.True(t, p.IsMasterRealmAdmin(master))
	require.False(t, p.IsMasterRealmAdmin(current))
	require.False(t, p.IsMasterRealmAdmin(noResource))
	require.False(t, p.IsMasterRealmAdmin(nil))

	require.True(t, p.IsCurrentRealmAdmin(current, realmID))
	require.False(t, p.IsCurrentRealmAdmin(current, uuid.New()))
	require.False(t, p.IsCurrentRealmAdmin(wrongClient, realmID))
	require.False(t, p.IsCurrentRealmAdmin(notAdmin, realmID))

	require.True(t, p.IsAnyRealmAdmin(current))
	require.False(t, p.IsAnyRealmAdmin(wrongClient))

	require.True(t, p.CanManageRealm(master, realmID))
	require.True(t, p.CanManageRealm(current, realmID))
	require.NoError(t, p.RequireRealmAdmin(current, realmID))
	require.ErrorIs(t, p.RequireRealmAdmin(notAdmin, realmID), apperrors.ErrActionForbidden)
}

func TestCustomPolicy(t *testing.T) {
	p := authz.Policy{MasterRealm: "root", AdminClient: "console"}
	require.True(t, p.IsMasterRealmAdmin(claimsWith("any", map[string]string{"role": "admin", "realm": "root"})))
	require.False(t, p.IsMasterRealmAdmin(claimsWith("any", map[string]string{"role": "admin", "realm": "master"})))
	require.True(t, p.IsAnyRealmAdmin(claimsWith("console", map[string]string{"role": "admin"})))
}

func TestHasAPIAccess(t *testing.T) {
	cred := &apicreds.Credential{Role: access.ClientAdmin, Access: access.Write}
	require.True(t, authz.HasAPIAccess(cred, access.ClientAdmin, access.Read))
	require.True(t, authz.HasAPIAccess(cred, access.ClientAdmin, access.Write))
	require.False(t, authz.HasAPIAccess(cred, access.ClientAdmin, access.Admin))
	require.False(t, authz.HasAPIAccess(cred, access.RealmAdmin, access.Read))
	require.False(t, authz.HasAPIAccess(nil, access.ClientAdmin, access.Read))
}

func TestDefaults(t *testing.T) {
	d := authz.Defaults{RealmID: uuid.New(), ClientID: uuid.New(), UserID: uuid.New(), GroupID: uuid.New(),
		ResourceIDs: []uuid.UUID{uuid.New(), uuid.New()}}
	require.True(t, d.IsDefaultRealm(d.RealmID))
	require.True(t, d.IsDefaultClient(d.ClientID))
	require.True(t, d.IsDefaultUser(d.UserID))
	require.True(t, d.IsDefaultGroup(d.GroupID))
	require.True(t, d.IsDefaultResource(d.ResourceIDs[1]))
	require.True(t, d.Protected(d.ClientID))
	require.False(t, d.Protected(uuid.New()))
	require.False(t, authz.Defaults{}.Protected(uuid.Nil))
}
