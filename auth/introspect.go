package auth

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/internal/utils"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/pkg/errors"
)

type IntrospectResult struct {
	Active        bool      `json:"active"`
	ClientID      uuid.UUID `json:"client_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Sub           uuid.UUID `json:"sub"`
	TokenType     string    `json:"token_type"`
	Exp           int64     `json:"exp"`
	Iat           int64     `json:"iat"`
	Iss           string    `json:"iss"`
	ClientName    string    `json:"client_name"`
	ResourceGroup string    `json:"resource_group"`
	Resources     []string  `json:"resources"`
}

// Introspect lets a realm admin inspect an access token issued for
// clientID. Every link from the token's session through its user, client and
// resource group must still exist and be unlocked, otherwise ErrNoResource.
func (s *Service) Introspect(ctx context.Context, caller *token.AccessClaims, realmID, clientID uuid.UUID, accessToken string) (*IntrospectResult, error) {
	if err := s.policy.RequireRealmAdmin(caller, realmID); err != nil {
		return nil, err
	}
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Introspect] VerifyAccessToken")
	}
	if claims.Resource == nil || claims.Resource.ClientID != clientID {
		return nil, apperrors.ErrNoResource
	}

	session, err := s.store.Sessions().Get(ctx, claims.SessionID)
	if err != nil {
		return nil, noResource(err)
	}
	if !session.IsActive(s.nowTime()) {
		return nil, apperrors.ErrNoResource
	}
	user, err := s.store.Users().Get(ctx, session.UserID)
	if err != nil {
		return nil, noResource(err)
	}
	client, err := s.store.Clients().Get(ctx, session.ClientID)
	if err != nil {
		return nil, noResource(err)
	}
	if user.IsLocked() || client.IsLocked() {
		return nil, apperrors.ErrNoResource
	}
	group, err := s.userGroup(ctx, s.store, realmID, client.ID, user.ID)
	if err != nil {
		return nil, noResource(err)
	}
	if group.IsLocked() {
		return nil, apperrors.ErrNoResource
	}
	list, err := s.store.Resources().ListActiveByGroup(ctx, group.ID)
	if err != nil {
		return nil, apperrors.Persistence("list resources", err)
	}

	names := make([]string, 0, len(list))
	for _, r := range list {
		names = append(names, r.Name)
	}
	result := &IntrospectResult{
		Active:        true,
		ClientID:      client.ID,
		FirstName:     user.FirstName,
		LastName:      utils.Value(user.LastName),
		Sub:           user.ID,
		TokenType:     "bearer",
		Iss:           claims.Issuer,
		ClientName:    client.Name,
		ResourceGroup: group.Name,
		Resources:     names,
	}
	if claims.ExpiresAt != nil {
		result.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		result.Iat = claims.IssuedAt.Unix()
	}
	return result, nil
}

// noResource folds a missing row into ErrNoResource and keeps store failures.
func noResource(err error) error {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrNoResource
	}
	return apperrors.Persistence("introspect", err)
}
