package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
)

// Manager mints and verifies access and refresh tokens. Verification is pure
// CPU work.
type Manager struct {
	signer  Signer
	issuer  string
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// AccessTokenInput is what an access token is minted from.
type AccessTokenInput struct {
	User      *users.User
	SessionID uuid.UUID
	Expires   time.Time
	Resource  *ResourceClaim
}

// CreateAccessToken mints an access token expiring with the session.
func (m *Manager) CreateAccessToken(in AccessTokenInput) (string, error) {
	now := m.nowFunc()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   in.User.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(in.Expires),
		},
		Type:      typeAccess,
		SessionID: in.SessionID,
		FirstName: in.User.FirstName,
		LastName:  in.User.LastName,
		Email:     in.User.Email,
		Phone:     in.User.Phone,
		Resource:  in.Resource,
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.CreateAccessToken] Sign")
	}
	return signed, nil
}

// RefreshTokenInput is what a refresh token is minted from.
type RefreshTokenInput struct {
	FamilyID  uuid.UUID
	SessionID uuid.UUID
	RealmID   uuid.UUID
	ClientID  uuid.UUID
	Lifetime  time.Duration
}

// CreateRefreshToken mints a refresh token for a family and returns it with
// its expiry.
func (m *Manager) CreateRefreshToken(in RefreshTokenInput) (string, time.Time, error) {
	now := m.nowFunc()
	expires := now.Add(in.Lifetime)
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   in.FamilyID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Type:      typeRefresh,
		SessionID: in.SessionID,
		RealmID:   in.RealmID,
		ClientID:  in.ClientID,
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[Manager.CreateRefreshToken] Sign")
	}
	return signed, expires, nil
}

func (m *Manager) parse(raw string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, m.signer.GetVerificationKey, opts...)
	if err != nil {
		return errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	if !tok.Valid {
		return apperrors.ErrInvalidToken
	}
	return nil
}

// VerifyAccessToken checks signature, expiry and issuer of an access token.
func (m *Manager) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.Type != typeAccess {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "not an access token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "subject")
	}
	return claims, nil
}

// VerifyRefreshToken checks a refresh token and that it was issued for
// realmID and clientID.
func (m *Manager) VerifyRefreshToken(raw string, realmID, clientID uuid.UUID) (*RefreshClaims, error) {
	claims, err := m.DecodeRefreshToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.RealmID != realmID || claims.ClientID != clientID {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "realm or client mismatch")
	}
	return claims, nil
}

// DecodeRefreshToken checks a refresh token without binding it to a path.
func (m *Manager) DecodeRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "not a refresh token")
	}
	if _, err := claims.FamilyID(); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "subject")
	}
	return claims, nil
}
