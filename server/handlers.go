package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/auth"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its code and status. Server side failures are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := apperrors.Code(err)
	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("code", code).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("code", code).Msg("request rejected")
	}
	writeJSON(w, status, errorBody{Code: code, Message: apperrors.Message(err)})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return apperrors.Validation("body", "is required")
		}
		return apperrors.Validation("body", "invalid json: %s", err.Error())
	}
	return nil
}

func pathID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, apperrors.Validation(param, "must be a uuid")
	}
	return id, nil
}

func pathIDs(r *http.Request) (realmID, clientID uuid.UUID, err error) {
	if realmID, err = pathID(r, paramRealmID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if clientID, err = pathID(r, paramClientID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return realmID, clientID, nil
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil {
			if err := s.health(r.Context()); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID, clientID, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body loginBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Login(r.Context(), auth.LoginRequest{
			RealmID:  realmID,
			ClientID: clientID,
			Email:    body.Email,
			Password: body.Password,
			Info:     sessionInfoFrom(r.Context()),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID, clientID, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body refreshBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Refresh(r.Context(), credentialFrom(r.Context()), auth.RefreshRequest{
			RealmID:      realmID,
			ClientID:     clientID,
			RefreshToken: body.RefreshToken,
			Info:         sessionInfoFrom(r.Context()),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// LogoutSessionHandler ends the single session named by the body token.
func (s *Server) LogoutSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID, _, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body auth.TokenRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.LogoutSession(r.Context(), claimsFrom(r.Context()), realmID, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// LogoutAllHandler ends every session the body token's user holds in the
// path client.
func (s *Server) LogoutAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID, clientID, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body auth.TokenRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.LogoutAll(r.Context(), claimsFrom(r.Context()), realmID, clientID, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) LogoutCurrentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := pathIDs(r); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Logout(r.Context(), claimsFrom(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) LogoutMyAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, clientID, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.LogoutMine(r.Context(), claimsFrom(r.Context()), clientID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type introspectBody struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) IntrospectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID, clientID, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body introspectBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Introspect(r.Context(), claimsFrom(r.Context()), realmID, clientID, body.AccessToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID, clientID, err := pathIDs(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body auth.NewUser
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		user, err := s.auth.Register(r.Context(), claimsFrom(r.Context()), realmID, clientID, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}
