package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/clients"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
)

type LoginRequest struct {
	RealmID  uuid.UUID
	ClientID uuid.UUID
	Email    string
	Password string
	Info     sessions.Info
}

type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *users.User `json:"user"`
	SessionID    uuid.UUID   `json:"session_id"`
	RealmID      uuid.UUID   `json:"realm_id"`
	ClientID     uuid.UUID   `json:"client_id"`
}

// grant is what a passed admission check hands to openSession.
type grant struct {
	user      *users.User
	group     *resources.Group
	client    *clients.Client
	realm     *realms.Realm
	resources []*resources.Resource
}

func (g *grant) claim() *token.ResourceClaim {
	return &token.ResourceClaim{
		ClientID:    g.client.ID,
		ClientName:  g.client.Name,
		GroupName:   g.group.Name,
		Identifiers: resources.Identifiers(g.resources),
	}
}

// Login verifies the user's password and opens a session in the client
// together with a new refresh token family.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	res, err := s.login(ctx, req)
	s.metrics.Login(outcome(err))
	return res, err
}

func (s *Service) login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, req.RealmID, req.Email)
	if err != nil {
		s.log.Debug().Str("realm_id", req.RealmID.String()).Msg("login: user not found")
		return nil, errors.Wrap(apperrors.Persistence("get user", err), "[Service.Login] GetByEmail")
	}
	group, err := s.userGroup(ctx, s.store, req.RealmID, req.ClientID, user.ID)
	if err != nil {
		s.log.Debug().Str("user_id", user.ID.String()).Msg("login: no resource group for client")
		return nil, errors.Wrap(err, "[Service.Login] userGroup")
	}
	if !users.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Debug().Str("user_id", user.ID.String()).Msg("login: wrong password")
		return nil, apperrors.ErrWrongCredentials
	}

	// The quota is counted outside the transaction. Concurrent logins may
	// both pass the check before either inserts.
	g, err := s.admit(ctx, s.store, req.RealmID, req.ClientID, user, group)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] admit")
	}

	result := &LoginResult{User: user, RealmID: req.RealmID, ClientID: req.ClientID}
	err = s.store.WithinTx(ctx, func(tx tenancy.Repos) error {
		family, err := refresh.NewManager(tx.Families(), refresh.WithNowFunc(s.nowTime)).
			Create(ctx, user.ID, req.ClientID, req.RealmID)
		if err != nil {
			return apperrors.Persistence("create refresh family", err)
		}
		session, access, err := s.openSession(ctx, tx, g, &family.ID, req.Info)
		if err != nil {
			return err
		}
		refreshToken, _, err := s.tokens.CreateRefreshToken(token.RefreshTokenInput{
			FamilyID:  family.ID,
			SessionID: session.ID,
			RealmID:   req.RealmID,
			ClientID:  req.ClientID,
			Lifetime:  g.client.RefreshTokenLifetime,
		})
		if err != nil {
			return err
		}
		result.AccessToken = access
		result.RefreshToken = refreshToken
		result.SessionID = session.ID
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] open session")
	}
	s.metrics.SessionsOpened(1)
	return result, nil
}

// userGroup returns the user's group for the client in realmID, preferring
// the default one.
func (s *Service) userGroup(ctx context.Context, repos tenancy.Repos, realmID, clientID, userID uuid.UUID) (*resources.Group, error) {
	groups, err := repos.Groups().ListByClientUser(ctx, clientID, userID)
	if err != nil {
		return nil, apperrors.Persistence("list resource groups", err)
	}
	for _, g := range groups {
		if g.RealmID == realmID {
			return g, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// admit runs the admission checks, failing fast in the order user, group,
// client, realm, quota, resources.
func (s *Service) admit(ctx context.Context, repos tenancy.Repos, realmID, clientID uuid.UUID, user *users.User, group *resources.Group) (*grant, error) {
	log := s.log.With().Str("user_id", user.ID.String()).Str("client_id", clientID.String()).Logger()

	if user.IsLocked() {
		log.Debug().Msg("admit: user locked")
		return nil, apperrors.ErrLocked
	}
	if group == nil {
		log.Debug().Msg("admit: no resource group")
		return nil, apperrors.ErrNotFound
	}
	if group.IsLocked() {
		log.Debug().Msg("admit: resource group locked")
		return nil, apperrors.ErrLocked
	}

	client, err := repos.Clients().Get(ctx, clientID)
	if err != nil {
		log.Debug().Msg("admit: client not found")
		return nil, apperrors.Persistence("get client", err)
	}
	if client.RealmID != realmID {
		log.Debug().Msg("admit: client outside realm")
		return nil, apperrors.ErrNotFound
	}
	if client.IsLocked() {
		log.Debug().Msg("admit: client locked")
		return nil, apperrors.ErrLocked
	}

	realm, err := repos.Realms().Get(ctx, realmID)
	if err != nil {
		log.Debug().Msg("admit: realm not found")
		return nil, apperrors.Persistence("get realm", err)
	}
	if realm.IsLocked() {
		log.Debug().Msg("admit: realm locked")
		return nil, apperrors.ErrLocked
	}

	active, err := repos.Sessions().CountActive(ctx, client.ID, user.ID, s.nowTime())
	if err != nil {
		return nil, apperrors.Persistence("count sessions", err)
	}
	if active >= client.MaxConcurrentSessions {
		log.Debug().Int("active", active).Msg("admit: max concurrent sessions reached")
		return nil, apperrors.ErrMaxConcurrentSessions
	}

	list, err := repos.Resources().ListActiveByGroup(ctx, group.ID)
	if err != nil {
		return nil, apperrors.Persistence("list resources", err)
	}
	if len(list) == 0 {
		log.Debug().Msg("admit: no unlocked resources")
		return nil, apperrors.ErrLocked
	}

	return &grant{user: user, group: group, client: client, realm: realm, resources: list}, nil
}

// openSession inserts the session for g and mints its access token.
func (s *Service) openSession(ctx context.Context, tx tenancy.Repos, g *grant, familyID *uuid.UUID, info sessions.Info) (*sessions.Session, string, error) {
	session := &sessions.Session{
		UserID:          g.user.ID,
		ClientID:        g.client.ID,
		RefreshFamilyID: familyID,
		Info:            info,
		Expires:         s.nowTime().Add(g.client.SessionLifetime),
	}
	if err := s.writer.CreateSession(ctx, tx, session); err != nil {
		return nil, "", err
	}
	access, err := s.tokens.CreateAccessToken(token.AccessTokenInput{
		User:      g.user,
		SessionID: session.ID,
		Expires:   session.Expires,
		Resource:  g.claim(),
	})
	if err != nil {
		return nil, "", err
	}
	return session, access, nil
}

var outcomeLabels = []struct {
	err   error
	label string
}{
	{apperrors.ErrWrongCredentials, "wrong_credentials"},
	{apperrors.ErrLocked, "locked"},
	{apperrors.ErrMaxConcurrentSessions, "max_sessions"},
	{apperrors.ErrInvalidToken, "invalid_token"},
	{apperrors.ErrActionForbidden, "forbidden"},
	{apperrors.ErrNoResource, "no_resource"},
	{apperrors.ErrNotFound, "not_found"},
	{apperrors.ErrValidation, "validation"},
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomeLabels {
		if apperrors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}
