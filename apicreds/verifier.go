package apicreds

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/internal/cache"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultCacheTTL = 30 * time.Second

// Verifier checks raw API keys against the credential store. Loaded rows are
// cached for a short TTL, so a lock applied to a credential can take up to
// one TTL to be observed unless Invalidate is called.
type Verifier struct {
	repo  Repo
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
	log   zerolog.Logger
}

type VerifierOption func(*Verifier)

// WithCache enables the read-through cache.
func WithCache(c cache.Cache, ttl time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.cache = c
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

func WithNowTime(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

func WithLogger(log zerolog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.log = log
	}
}

func NewVerifier(repo Repo, options ...VerifierOption) *Verifier {
	v := &Verifier{
		repo: repo,
		ttl:  defaultCacheTTL,
		now:  time.Now,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Verify resolves raw to an active credential. Every failure is reported as
// ErrInvalidAPICredentials; store failures surface as persistence errors.
//
// The secret is compared with ==, which is not constant time.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Credential, error) {
	id, secret, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	cred, err := v.load(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			v.log.Debug().Str("credential_id", id.String()).Msg("api credential not found")
			return nil, apperrors.ErrInvalidAPICredentials
		}
		return nil, err
	}

	if !cred.Expires.After(v.now()) {
		v.log.Debug().Str("credential_id", id.String()).Msg("api credential expired")
		return nil, apperrors.ErrInvalidAPICredentials
	}
	if cred.IsLocked() {
		v.log.Debug().Str("credential_id", id.String()).Msg("api credential locked")
		return nil, apperrors.ErrInvalidAPICredentials
	}
	if cred.Secret != secret {
		v.log.Debug().Str("credential_id", id.String()).Msg("api credential secret mismatch")
		return nil, apperrors.ErrInvalidAPICredentials
	}
	return cred, nil
}

// Invalidate drops a cached credential.
func (v *Verifier) Invalidate(ctx context.Context, id uuid.UUID) {
	if v.cache != nil {
		v.cache.Delete(ctx, cacheKey(id))
	}
}

func (v *Verifier) load(ctx context.Context, id uuid.UUID) (*Credential, error) {
	if v.cache == nil {
		return v.repo.GetActive(ctx, id)
	}

	key := cacheKey(id)
	if b, ok := v.cache.Get(ctx, key); ok {
		var cred Credential
		if err := json.Unmarshal(b, &cred); err == nil {
			return &cred, nil
		}
		v.cache.Delete(ctx, key)
	}

	res, err, _ := v.group.Do(key, func() (interface{}, error) {
		cred, err := v.repo.GetActive(ctx, id)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(cred); err == nil {
			v.cache.Set(ctx, key, b, v.ttl)
		}
		return cred, nil
	})
	if err != nil {
		return nil, err
	}
	cred := *res.(*Credential)
	return &cred, nil
}

func cacheKey(id uuid.UUID) string {
	return "apicred:" + id.String()
}
