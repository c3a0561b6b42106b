package auth

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/pkg/errors"
)

// TokenRequest names the token an admin logout or introspection acts on.
// AccessToken wins when both are set.
type TokenRequest struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type LogoutResult struct {
	OK        bool      `json:"ok"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
}

func callerIDs(caller *token.AccessClaims) (uuid.UUID, uuid.UUID, error) {
	if caller == nil {
		return uuid.Nil, uuid.Nil, apperrors.ErrInvalidToken
	}
	userID, err := caller.UserID()
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.Wrap(apperrors.ErrInvalidToken, "subject")
	}
	return userID, caller.SessionID, nil
}

// Logout ends the caller's current session.
func (s *Service) Logout(ctx context.Context, caller *token.AccessClaims) (*LogoutResult, error) {
	userID, sessionID, err := callerIDs(caller)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Sessions().Delete(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Persistence("delete session", err)
	}
	if ok {
		s.metrics.SessionsClosed(1)
	}
	return &LogoutResult{OK: ok, UserID: userID, SessionID: sessionID}, nil
}

// LogoutMine ends every session the caller holds in clientID.
func (s *Service) LogoutMine(ctx context.Context, caller *token.AccessClaims, clientID uuid.UUID) (*LogoutResult, error) {
	userID, sessionID, err := callerIDs(caller)
	if err != nil {
		return nil, err
	}
	n, err := s.store.Sessions().DeleteByClientUser(ctx, clientID, userID)
	if err != nil {
		return nil, apperrors.Persistence("delete sessions", err)
	}
	s.metrics.SessionsClosed(n)
	return &LogoutResult{OK: n > 0, UserID: userID, SessionID: sessionID}, nil
}

// LogoutSession lets a realm admin end the session referenced by an access or
// refresh token.
func (s *Service) LogoutSession(ctx context.Context, caller *token.AccessClaims, realmID uuid.UUID, req TokenRequest) (*LogoutResult, error) {
	userID, sessionID, err := callerIDs(caller)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireRealmAdmin(caller, realmID); err != nil {
		s.log.Debug().Str("user_id", userID.String()).Msg("logout: caller is not a realm admin")
		return nil, err
	}

	target, _, err := s.tokenSubject(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.LogoutSession]")
	}
	session, err := s.store.Sessions().Get(ctx, target)
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return &LogoutResult{OK: false, UserID: userID, SessionID: sessionID}, nil
	case err != nil:
		return nil, apperrors.Persistence("get session", err)
	}
	if err := s.clientInRealm(ctx, realmID, session.ClientID); err != nil {
		s.log.Debug().Str("session_id", target.String()).Msg("logout: session belongs to another realm")
		return nil, err
	}
	ok, err := s.store.Sessions().Delete(ctx, target)
	if err != nil {
		return nil, apperrors.Persistence("delete session", err)
	}
	if ok {
		s.metrics.SessionsClosed(1)
	}
	return &LogoutResult{OK: ok, UserID: userID, SessionID: sessionID}, nil
}

// LogoutAll lets a realm admin end every session in clientID belonging to
// the user behind the given token.
func (s *Service) LogoutAll(ctx context.Context, caller *token.AccessClaims, realmID, clientID uuid.UUID, req TokenRequest) (*LogoutResult, error) {
	userID, sessionID, err := callerIDs(caller)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireRealmAdmin(caller, realmID); err != nil {
		s.log.Debug().Str("user_id", userID.String()).Msg("logout all: caller is not a realm admin")
		return nil, err
	}

	_, subject, err := s.tokenSubject(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.LogoutAll]")
	}
	if subject == uuid.Nil {
		return nil, apperrors.ErrNoResource
	}
	if err := s.clientInRealm(ctx, realmID, clientID); err != nil {
		s.log.Debug().Str("client_id", clientID.String()).Msg("logout all: client belongs to another realm")
		return nil, err
	}
	n, err := s.store.Sessions().DeleteByClientUser(ctx, clientID, subject)
	if err != nil {
		return nil, apperrors.Persistence("delete sessions", err)
	}
	s.metrics.SessionsClosed(n)
	return &LogoutResult{OK: n > 0, UserID: userID, SessionID: sessionID}, nil
}

// clientInRealm is ErrNoResource unless clientID exists under realmID.
func (s *Service) clientInRealm(ctx context.Context, realmID, clientID uuid.UUID) error {
	client, err := s.store.Clients().Get(ctx, clientID)
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return apperrors.ErrNoResource
	case err != nil:
		return apperrors.Persistence("get client", err)
	case client.RealmID != realmID:
		return apperrors.ErrNoResource
	}
	return nil
}

// tokenSubject decodes req into the session id and user id it references.
// A refresh token names its user through its family; the user id is Nil when
// that family is gone. A request carrying neither token is ErrNoResource.
func (s *Service) tokenSubject(ctx context.Context, req TokenRequest) (sessionID, userID uuid.UUID, err error) {
	switch {
	case req.AccessToken != "":
		claims, err := s.tokens.VerifyAccessToken(req.AccessToken)
		if err != nil {
			return uuid.Nil, uuid.Nil, err
		}
		userID, _ := claims.UserID()
		return claims.SessionID, userID, nil
	case req.RefreshToken != "":
		claims, err := s.tokens.DecodeRefreshToken(req.RefreshToken)
		if err != nil {
			return uuid.Nil, uuid.Nil, err
		}
		familyID, _ := claims.FamilyID()
		family, err := s.store.Families().GetActive(ctx, familyID)
		if err != nil {
			return claims.SessionID, uuid.Nil, nil
		}
		return claims.SessionID, family.UserID, nil
	default:
		return uuid.Nil, uuid.Nil, apperrors.ErrNoResource
	}
}
