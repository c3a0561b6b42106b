// Package bootstrap creates the master realm and its administrator.
package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/authz"
	"github.com/jrsteele09/go-realm-auth/clients"
	"github.com/jrsteele09/go-realm-auth/internal/config"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultGroupName = "default"

	adminSessions   = 10
	adminReuseLimit = 10
)

// Result describes what Run found or created.
type Result struct {
	Defaults authz.Defaults
	Created  bool
	// GeneratedPassword is set only when the admin user was created without a
	// configured password.
	GeneratedPassword string
}

type options struct {
	now func() time.Time
	log zerolog.Logger
}

type Option func(*options)

func WithNowTime(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Run creates, in one transaction, the master realm, the admin client, the
// admin user with its default group and the resources role=admin and
// realm=<master realm>. Rows that already exist are reused, so running it
// twice creates nothing the second time. Any failure rolls back everything.
func Run(ctx context.Context, store tenancy.Store, cfg config.TenancyConfig, opts ...Option) (*Result, error) {
	o := options{now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		return nil, errors.New("[bootstrap.Run] store is required")
	}
	if cfg.GetMasterRealm() == "" || cfg.GetAdminClient() == "" || cfg.GetAdminEmail() == "" {
		return nil, errors.New("[bootstrap.Run] master realm, admin client and admin email are required")
	}

	b := &builder{cfg: cfg, writer: tenancy.NewWriter(o.now), res: &Result{}}
	err := store.WithinTx(ctx, func(tx tenancy.Repos) error {
		b.tx = tx
		steps := []struct {
			name string
			fn   func(ctx context.Context) error
		}{
			{"realm", b.realm},
			{"client", b.client},
			{"user", b.user},
			{"group", b.group},
			{"resources", b.resources},
		}
		for _, step := range steps {
			if err := step.fn(ctx); err != nil {
				return errors.Wrapf(err, "[bootstrap.Run] %s", step.name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := o.log.Info().
		Str("realm_id", b.res.Defaults.RealmID.String()).
		Str("client_id", b.res.Defaults.ClientID.String()).
		Str("user_id", b.res.Defaults.UserID.String())
	if b.res.Created {
		log.Str("admin_email", cfg.GetAdminEmail()).Msg("bootstrap: master realm initialised")
	} else {
		log.Msg("bootstrap: master realm already configured")
	}
	return b.res, nil
}

type builder struct {
	cfg    config.TenancyConfig
	writer *tenancy.Writer
	tx     tenancy.Repos
	res    *Result

	realmRow  *realms.Realm
	clientRow *clients.Client
	userRow   *users.User
	groupRow  *resources.Group
}

func notFound(err error) bool {
	return apperrors.Is(err, apperrors.ErrNotFound)
}

func (b *builder) realm(ctx context.Context) error {
	r, err := b.tx.Realms().GetByName(ctx, b.cfg.GetMasterRealm())
	switch {
	case err == nil:
	case notFound(err):
		r = &realms.Realm{Name: b.cfg.GetMasterRealm(), RefreshTokenReuseLimit: adminReuseLimit}
		if err := b.writer.CreateRealm(ctx, b.tx, r); err != nil {
			return err
		}
		b.res.Created = true
	default:
		return err
	}
	b.realmRow = r
	b.res.Defaults.RealmID = r.ID
	return nil
}

func (b *builder) client(ctx context.Context) error {
	list, err := b.tx.Clients().ListByRealm(ctx, b.realmRow.ID)
	if err != nil {
		return err
	}
	for _, c := range list {
		if c.Name == b.cfg.GetAdminClient() {
			b.clientRow = c
		}
	}
	if b.clientRow == nil {
		c := &clients.Client{
			RealmID:                b.realmRow.ID,
			Name:                   b.cfg.GetAdminClient(),
			MaxConcurrentSessions:  adminSessions,
			RefreshTokenReuseLimit: b.realmRow.RefreshTokenReuseLimit,
		}
		if err := b.writer.CreateClient(ctx, b.tx, c); err != nil {
			return err
		}
		b.clientRow = c
		b.res.Created = true
	}
	b.res.Defaults.ClientID = b.clientRow.ID
	return nil
}

func (b *builder) user(ctx context.Context) error {
	u, err := b.tx.Users().GetByEmail(ctx, b.realmRow.ID, b.cfg.GetAdminEmail())
	switch {
	case err == nil:
	case notFound(err):
		password := b.cfg.GetAdminPassword()
		if password == "" {
			if password, err = generatePassword(); err != nil {
				return err
			}
			b.res.GeneratedPassword = password
		}
		hash, err := users.HashPassword(password)
		if err != nil {
			return errors.Wrap(err, "HashPassword")
		}
		u = &users.User{
			RealmID:      b.realmRow.ID,
			Email:        b.cfg.GetAdminEmail(),
			FirstName:    "Admin",
			PasswordHash: hash,
		}
		if err := b.writer.CreateUser(ctx, b.tx, u); err != nil {
			return err
		}
		b.res.Created = true
	default:
		return err
	}
	b.userRow = u
	b.res.Defaults.UserID = u.ID
	return nil
}

func (b *builder) group(ctx context.Context) error {
	groups, err := b.tx.Groups().ListByClientUser(ctx, b.clientRow.ID, b.userRow.ID)
	if err != nil {
		return err
	}
	if len(groups) > 0 {
		b.groupRow = groups[0]
	} else {
		g := &resources.Group{
			RealmID:   b.realmRow.ID,
			ClientID:  b.clientRow.ID,
			UserID:    b.userRow.ID,
			Name:      DefaultGroupName,
			IsDefault: true,
		}
		if err := b.writer.CreateGroup(ctx, b.tx, g); err != nil {
			return err
		}
		b.groupRow = g
		b.res.Created = true
	}
	b.res.Defaults.GroupID = b.groupRow.ID
	return nil
}

func (b *builder) resources(ctx context.Context) error {
	existing, err := b.tx.Resources().ListByGroup(ctx, b.groupRow.ID)
	if err != nil {
		return err
	}
	have := make(map[string]*resources.Resource, len(existing))
	for _, r := range existing {
		have[r.Name] = r
	}

	want := []struct{ name, value string }{
		{authz.RoleIdentifier, authz.AdminRole},
		{authz.RealmIdentifier, b.cfg.GetMasterRealm()},
	}
	for _, w := range want {
		r, ok := have[w.name]
		if !ok {
			r = &resources.Resource{GroupID: b.groupRow.ID, Name: w.name, Value: w.value}
			if err := b.writer.CreateResource(ctx, b.tx, r); err != nil {
				return err
			}
			b.res.Created = true
		}
		b.res.Defaults.ResourceIDs = append(b.res.Defaults.ResourceIDs, r.ID)
	}
	return nil
}

// generatePassword returns a random password that passes
// users.ValidatePasswordStrength.
func generatePassword() (string, error) {
	secret, err := apicreds.GenerateSecret()
	if err != nil {
		return "", err
	}
	secret = strings.NewReplacer("-", "", "_", "").Replace(secret)
	if len(secret) > 20 {
		secret = secret[:20]
	}
	return "Aa1" + secret, nil
}
