package tenancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
)

// Writer is the only write path for tenancy entities. Each method validates
// the entity against repos and then persists it, so it should be called with
// the transactional Repos handed out by Store.WithinTx.
type Writer struct {
	now             func() time.Time
	credentialWrote []func(ctx context.Context, id uuid.UUID)
}

type WriterOption func(*Writer)

// OnCredentialChange registers fn to run after an existing credential is
// rewritten, typically a cache invalidation. fn may run before the enclosing
// transaction commits.
func OnCredentialChange(fn func(ctx context.Context, id uuid.UUID)) WriterOption {
	return func(w *Writer) {
		w.credentialWrote = append(w.credentialWrote, fn)
	}
}

func NewWriter(now func() time.Time, options ...WriterOption) *Writer {
	if now == nil {
		now = time.Now
	}
	w := &Writer{now: now}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *Writer) CreateRealm(ctx context.Context, repos Repos, r *realms.Realm) error {
	if err := newID(&r.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateRealm]")
	}
	if r.SessionLifetime == 0 {
		r.SessionLifetime = realms.DefaultSessionLifetime
	}
	if r.RefreshTokenLifetime == 0 {
		r.RefreshTokenLifetime = realms.DefaultRefreshTokenLifetime
	}
	now := w.now()
	if err := ValidateRealm(ctx, repos, r, now); err != nil {
		return err
	}
	r.CreatedAt, r.UpdatedAt = now, now
	return apperrors.Persistence("insert realm", repos.Realms().Insert(ctx, r))
}

// UpdateRealm also rechecks every client of the realm so that a tightened
// realm never leaves a child above its bounds.
func (w *Writer) UpdateRealm(ctx context.Context, repos Repos, r *realms.Realm) error {
	now := w.now()
	if err := ValidateRealm(ctx, repos, r, now); err != nil {
		return err
	}
	children, err := repos.Clients().ListByRealm(ctx, r.ID)
	if err != nil {
		return apperrors.Persistence("list clients", err)
	}
	total := 0
	for _, c := range children {
		total += c.MaxConcurrentSessions
		if c.SessionLifetime > r.SessionLifetime ||
			c.RefreshTokenLifetime > r.RefreshTokenLifetime ||
			c.RefreshTokenReuseLimit > r.RefreshTokenReuseLimit {
			return apperrors.Validation("realm", "client %q exceeds the new realm limits", c.Name)
		}
	}
	if r.MaxConcurrentSessions != nil && total > *r.MaxConcurrentSessions {
		return apperrors.Validation("max_concurrent_sessions",
			"clients already allow %d concurrent sessions, more than %d", total, *r.MaxConcurrentSessions)
	}
	r.UpdatedAt = now
	return apperrors.Persistence("update realm", repos.Realms().Update(ctx, r))
}

// CreateClient fills unset lifetimes from the realm before validating.
func (w *Writer) CreateClient(ctx context.Context, repos Repos, c *clients.Client) error {
	if err := newID(&c.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateClient]")
	}
	if c.MaxConcurrentSessions == 0 {
		c.MaxConcurrentSessions = clients.DefaultMaxConcurrentSessions
	}
	if c.SessionLifetime == 0 || c.RefreshTokenLifetime == 0 {
		realm, err := repos.Realms().Get(ctx, c.RealmID)
		if err == nil {
			if c.SessionLifetime == 0 {
				c.SessionLifetime = realm.SessionLifetime
			}
			if c.RefreshTokenLifetime == 0 {
				c.RefreshTokenLifetime = realm.RefreshTokenLifetime
			}
		}
	}
	now := w.now()
	if err := ValidateClient(ctx, repos, c, now); err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return apperrors.Persistence("insert client", repos.Clients().Insert(ctx, c))
}

func (w *Writer) UpdateClient(ctx context.Context, repos Repos, c *clients.Client) error {
	now := w.now()
	if err := ValidateClient(ctx, repos, c, now); err != nil {
		return err
	}
	c.UpdatedAt = now
	return apperrors.Persistence("update client", repos.Clients().Update(ctx, c))
}

func (w *Writer) CreateUser(ctx context.Context, repos Repos, u *users.User) error {
	if err := newID(&u.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateUser]")
	}
	now := w.now()
	if err := ValidateUser(u, now); err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return apperrors.Persistence("insert user", repos.Users().Insert(ctx, u))
}

func (w *Writer) UpdateUser(ctx context.Context, repos Repos, u *users.User) error {
	now := w.now()
	if err := ValidateUser(u, now); err != nil {
		return err
	}
	u.UpdatedAt = now
	return apperrors.Persistence("update user", repos.Users().Update(ctx, u))
}

func (w *Writer) CreateGroup(ctx context.Context, repos Repos, g *resources.Group) error {
	if err := newID(&g.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateGroup]")
	}
	now := w.now()
	if err := PrepareGroup(ctx, repos, g, now); err != nil {
		return err
	}
	g.CreatedAt, g.UpdatedAt = now, now
	return apperrors.Persistence("insert resource group", repos.Groups().Insert(ctx, g))
}

func (w *Writer) UpdateGroup(ctx context.Context, repos Repos, g *resources.Group) error {
	now := w.now()
	if err := PrepareGroup(ctx, repos, g, now); err != nil {
		return err
	}
	g.UpdatedAt = now
	return apperrors.Persistence("update resource group", repos.Groups().Update(ctx, g))
}

func (w *Writer) CreateResource(ctx context.Context, repos Repos, r *resources.Resource) error {
	if err := newID(&r.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateResource]")
	}
	now := w.now()
	if err := ValidateResource(ctx, repos, r, now); err != nil {
		return err
	}
	r.CreatedAt, r.UpdatedAt = now, now
	return apperrors.Persistence("insert resource", repos.Resources().Insert(ctx, r))
}

func (w *Writer) UpdateResource(ctx context.Context, repos Repos, r *resources.Resource) error {
	now := w.now()
	if err := ValidateResource(ctx, repos, r, now); err != nil {
		return err
	}
	r.UpdatedAt = now
	return apperrors.Persistence("update resource", repos.Resources().Update(ctx, r))
}

func (w *Writer) CreateCredential(ctx context.Context, repos Repos, c *apicreds.Credential) error {
	if err := newID(&c.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateCredential]")
	}
	if c.Secret == "" {
		secret, err := apicreds.GenerateSecret()
		if err != nil {
			return err
		}
		c.Secret = secret
	}
	now := w.now()
	if err := ValidateCredential(c, now); err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return apperrors.Persistence("insert api credential", repos.Credentials().Insert(ctx, c))
}

func (w *Writer) UpdateCredential(ctx context.Context, repos Repos, c *apicreds.Credential) error {
	now := w.now()
	if err := ValidateCredential(c, now); err != nil {
		return err
	}
	c.UpdatedAt = now
	if err := repos.Credentials().Update(ctx, c); err != nil {
		return apperrors.Persistence("update api credential", err)
	}
	for _, fn := range w.credentialWrote {
		fn(ctx, c.ID)
	}
	return nil
}

// CreateSession inserts s after sweeping every expired session.
func (w *Writer) CreateSession(ctx context.Context, repos Repos, s *sessions.Session) error {
	if err := newID(&s.ID); err != nil {
		return errors.Wrap(err, "[Writer.CreateSession]")
	}
	now := w.now()
	if _, err := repos.Sessions().DeleteExpired(ctx, now); err != nil {
		return apperrors.Persistence("delete expired sessions", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	return apperrors.Persistence("insert session", repos.Sessions().Insert(ctx, s))
}
