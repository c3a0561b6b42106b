package auth

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/access"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/authz"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/pkg/errors"
)

type RefreshRequest struct {
	RealmID      uuid.UUID
	ClientID     uuid.UUID
	RefreshToken string
	Info         sessions.Info
}

type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds left on the presented refresh token
}

// Refresh exchanges a refresh token for a new session. The caller must hold a
// client_admin credential with admin access. The family is held locked for
// the whole exchange so concurrent refreshes of one family serialize.
func (s *Service) Refresh(ctx context.Context, cred *apicreds.Credential, req RefreshRequest) (*RefreshResult, error) {
	res, moved, err := s.refresh(ctx, cred, req)
	if err != nil {
		s.metrics.Refresh(outcome(err))
		return nil, err
	}
	s.metrics.Refresh(moved.String())
	return res, nil
}

func (s *Service) refresh(ctx context.Context, cred *apicreds.Credential, req RefreshRequest) (*RefreshResult, refresh.Outcome, error) {
	if !authz.HasAPIAccess(cred, access.ClientAdmin, access.Admin) {
		s.log.Debug().Msg("refresh: api credential lacks client_admin/admin")
		return nil, 0, apperrors.ErrActionForbidden
	}
	claims, err := s.tokens.VerifyRefreshToken(req.RefreshToken, req.RealmID, req.ClientID)
	if err != nil {
		s.log.Debug().Err(err).Msg("refresh: token rejected")
		return nil, 0, errors.Wrap(err, "[Service.Refresh] VerifyRefreshToken")
	}
	familyID, _ := claims.FamilyID()

	result := &RefreshResult{}
	var tr refresh.Transition
	err = s.store.WithinTx(ctx, func(tx tenancy.Repos) error {
		families := refresh.NewManager(tx.Families(), refresh.WithNowFunc(s.nowTime))
		family, err := families.Lock(ctx, familyID)
		if err != nil {
			s.log.Debug().Str("family_id", familyID.String()).Msg("refresh: family not found")
			return apperrors.Persistence("lock refresh family", err)
		}

		client, err := tx.Clients().Get(ctx, req.ClientID)
		if err != nil || client.IsLocked() {
			s.log.Debug().Str("client_id", req.ClientID.String()).Msg("refresh: client missing or locked")
			return apperrors.ErrInvalidToken
		}

		tr, err = families.Advance(ctx, family, client.RefreshTokenReuseLimit)
		if err != nil {
			return apperrors.Persistence("advance refresh family", err)
		}

		user, err := tx.Users().Get(ctx, family.UserID)
		if err != nil {
			s.log.Debug().Str("user_id", family.UserID.String()).Msg("refresh: user not found")
			return apperrors.Persistence("get user", err)
		}
		group, err := s.userGroup(ctx, tx, req.RealmID, req.ClientID, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		g, err := s.admit(ctx, tx, req.RealmID, req.ClientID, user, group)
		if err != nil {
			return err
		}

		session, accessToken, err := s.openSession(ctx, tx, g, &tr.Next.ID, req.Info)
		if err != nil {
			return err
		}
		refreshToken, _, err := s.tokens.CreateRefreshToken(token.RefreshTokenInput{
			FamilyID:  tr.Next.ID,
			SessionID: session.ID,
			RealmID:   req.RealmID,
			ClientID:  req.ClientID,
			Lifetime:  client.RefreshTokenLifetime,
		})
		if err != nil {
			return err
		}
		result.AccessToken = accessToken
		result.RefreshToken = refreshToken
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "[Service.Refresh]")
	}

	if tr.Outcome == refresh.Rotated {
		s.log.Info().
			Str("retired_family_id", tr.Retired.ID.String()).
			Str("family_id", tr.Next.ID.String()).
			Msg("refresh token family rotated")
	}
	s.metrics.SessionsOpened(1)

	if claims.ExpiresAt != nil {
		left := claims.ExpiresAt.Sub(s.nowTime()).Seconds()
		result.ExpiresIn = int64(math.Max(0, math.Floor(left)))
	}
	return result, tr.Outcome, nil
}
