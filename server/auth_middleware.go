package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-realm-auth/apicreds"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyCredential stores the verified API credential
	ContextKeyCredential ContextKey = "credential"
	// ContextKeySessionInfo stores the caller's device description
	ContextKeySessionInfo ContextKey = "session_info"
)

// RequireBearer verifies the Authorization bearer access token and puts its
// claims in the context.
func (s *Server) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperrors.ErrInvalidToken)
			return
		}
		claims, err := s.tokens.VerifyAccessToken(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAPIKey verifies the Api-Key header against the credential store.
func (s *Server) RequireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(apicreds.HeaderName)
		if raw == "" {
			writeError(w, r, apperrors.ErrInvalidAPICredentials)
			return
		}
		cred, err := s.creds.Verify(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyCredential, cred)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func claimsFrom(ctx context.Context) *token.AccessClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims
}

func credentialFrom(ctx context.Context) *apicreds.Credential {
	cred, _ := ctx.Value(ContextKeyCredential).(*apicreds.Credential)
	return cred
}
