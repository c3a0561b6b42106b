package tenancy

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/internal/slug"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,14}$`)
)

func checkLockedAt(entity string, lockedAt *time.Time, now time.Time) error {
	if lockedAt != nil && lockedAt.After(now) {
		return apperrors.Validation("locked_at", "cannot lock %s in the future", entity)
	}
	return nil
}

// ValidateRealm recomputes the slug and checks the realm's own fields.
func ValidateRealm(ctx context.Context, repos Repos, r *realms.Realm, now time.Time) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apperrors.Validation("name", "realm name is required")
	}
	r.Slug = slug.Make(r.Name)
	if r.Slug == "" {
		return apperrors.Validation("name", "realm name %q has no usable characters", r.Name)
	}
	if err := checkLockedAt("realm", r.LockedAt, now); err != nil {
		return err
	}
	if r.SessionLifetime <= 0 || r.RefreshTokenLifetime <= 0 {
		return apperrors.Validation("session_lifetime", "lifetimes must be positive")
	}
	if r.RefreshTokenReuseLimit < 0 {
		return apperrors.Validation("refresh_token_reuse_limit", "must not be negative")
	}
	if r.MaxConcurrentSessions != nil && *r.MaxConcurrentSessions < 0 {
		return apperrors.Validation("max_concurrent_sessions", "must not be negative")
	}

	existing, err := repos.Realms().GetByName(ctx, r.Name)
	switch {
	case err == nil && existing.ID != r.ID:
		return apperrors.Validation("name", "realm %q already exists", r.Name)
	case err != nil && !apperrors.Is(err, apperrors.ErrNotFound):
		return errors.Wrap(err, "[ValidateRealm] GetByName")
	}

	existing, err = repos.Realms().GetBySlug(ctx, r.Slug)
	switch {
	case err == nil && existing.ID != r.ID:
		return apperrors.Validation("name", "realm %q has the same slug %q as realm %q", r.Name, r.Slug, existing.Name)
	case err != nil && !apperrors.Is(err, apperrors.ErrNotFound):
		return errors.Wrap(err, "[ValidateRealm] GetBySlug")
	}
	return nil
}

// ValidateClient checks a client against its realm. The realm-wide quota sum
// re-reads sibling clients excluding c itself, so the result is only as fresh
// as the surrounding transaction.
func ValidateClient(ctx context.Context, repos Repos, c *clients.Client, now time.Time) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperrors.Validation("name", "client name is required")
	}
	if err := checkLockedAt("client", c.LockedAt, now); err != nil {
		return err
	}
	if c.MaxConcurrentSessions < 1 {
		return apperrors.Validation("max_concurrent_sessions", "must be at least 1")
	}

	realm, err := repos.Realms().Get(ctx, c.RealmID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("realm_id", "realm not found")
		}
		return errors.Wrap(err, "[ValidateClient] realm")
	}

	if realm.MaxConcurrentSessions != nil {
		total, err := repos.Clients().SumMaxConcurrentSessions(ctx, c.RealmID, c.ID)
		if err != nil {
			return errors.Wrap(err, "[ValidateClient] SumMaxConcurrentSessions")
		}
		total += c.MaxConcurrentSessions
		if total > *realm.MaxConcurrentSessions {
			return apperrors.Validation("max_concurrent_sessions",
				"total max_concurrent_sessions for all clients in this realm (%d) exceeds the realm's limit (%d)",
				total, *realm.MaxConcurrentSessions)
		}
	}
	if c.SessionLifetime > realm.SessionLifetime {
		return apperrors.Validation("session_lifetime", "client session_lifetime (%d) exceeds the realm's limit (%d)",
			int64(c.SessionLifetime.Seconds()), int64(realm.SessionLifetime.Seconds()))
	}
	if c.RefreshTokenLifetime > realm.RefreshTokenLifetime {
		return apperrors.Validation("refresh_token_lifetime", "client refresh_token_lifetime (%d) exceeds the realm's limit (%d)",
			int64(c.RefreshTokenLifetime.Seconds()), int64(realm.RefreshTokenLifetime.Seconds()))
	}
	if c.RefreshTokenReuseLimit > realm.RefreshTokenReuseLimit {
		return apperrors.Validation("refresh_token_reuse_limit", "client refresh_token_reuse_limit (%d) exceeds the realm's limit (%d)",
			c.RefreshTokenReuseLimit, realm.RefreshTokenReuseLimit)
	}
	if c.SessionLifetime <= 0 || c.RefreshTokenLifetime <= 0 || c.RefreshTokenReuseLimit < 0 {
		return apperrors.Validation("session_lifetime", "lifetimes must be positive")
	}

	siblings, err := repos.Clients().ListByRealm(ctx, c.RealmID)
	if err != nil {
		return errors.Wrap(err, "[ValidateClient] ListByRealm")
	}
	for _, s := range siblings {
		if s.ID != c.ID && strings.EqualFold(s.Name, c.Name) {
			return apperrors.Validation("name", "client %q already exists in realm", c.Name)
		}
	}
	return nil
}

// ValidateUser checks the email and phone formats.
func ValidateUser(u *users.User, now time.Time) error {
	u.Email = strings.TrimSpace(u.Email)
	if err := checkLockedAt("user", u.LockedAt, now); err != nil {
		return err
	}
	if !emailPattern.MatchString(u.Email) {
		return apperrors.Validation("email", "invalid email format: %s", u.Email)
	}
	if u.Phone != nil && !phonePattern.MatchString(*u.Phone) {
		return apperrors.Validation("phone", "invalid phone number format: %s", *u.Phone)
	}
	if strings.TrimSpace(u.FirstName) == "" {
		return apperrors.Validation("first_name", "first name is required")
	}
	if u.PasswordHash == "" {
		return apperrors.Validation("password", "password is required")
	}
	return nil
}

// PrepareGroup enforces the one-default-per-(client,user) rule. Setting a
// group as default clears the flag on its siblings; a group that is not
// default is forced back to default when no sibling is.
func PrepareGroup(ctx context.Context, repos Repos, g *resources.Group, now time.Time) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return apperrors.Validation("name", "resource group name is required")
	}
	if err := checkLockedAt("resource group", g.LockedAt, now); err != nil {
		return err
	}

	siblings, err := repos.Groups().ListByClientUser(ctx, g.ClientID, g.UserID)
	if err != nil {
		return errors.Wrap(err, "[PrepareGroup] ListByClientUser")
	}
	otherDefault := false
	for _, s := range siblings {
		if s.ID == g.ID {
			continue
		}
		if strings.EqualFold(s.Name, g.Name) {
			return apperrors.Validation("name", "resource group %q already exists", g.Name)
		}
		if s.IsDefault {
			otherDefault = true
		}
	}

	if !g.IsDefault && !otherDefault {
		g.IsDefault = true
	}
	if g.IsDefault && otherDefault {
		if err := repos.Groups().ClearDefaults(ctx, g.ClientID, g.UserID, g.ID); err != nil {
			return errors.Wrap(err, "[PrepareGroup] ClearDefaults")
		}
	}
	return nil
}

// ValidateResource checks a resource against its group.
func ValidateResource(ctx context.Context, repos Repos, r *resources.Resource, now time.Time) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apperrors.Validation("name", "resource name is required")
	}
	if err := checkLockedAt("resource", r.LockedAt, now); err != nil {
		return err
	}
	existing, err := repos.Resources().ListByGroup(ctx, r.GroupID)
	if err != nil {
		return errors.Wrap(err, "[ValidateResource] ListByGroup")
	}
	for _, e := range existing {
		if e.ID != r.ID && e.Name == r.Name {
			return apperrors.Validation("name", "resource %q already exists in group", r.Name)
		}
	}
	return nil
}

// ValidateCredential checks an API credential before it is written.
func ValidateCredential(c *apicreds.Credential, now time.Time) error {
	if err := checkLockedAt("api credential", c.LockedAt, now); err != nil {
		return err
	}
	if c.Expires.Before(now) {
		return apperrors.Validation("expires", "expires must not be in the past")
	}
	if !c.Role.Valid() {
		return apperrors.Validation("role", "unknown role %q", c.Role)
	}
	if !c.Access.Valid() {
		return apperrors.Validation("access", "unknown access level %q", c.Access)
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.Validation("name", "name is required")
	}
	if c.Secret == "" {
		return apperrors.Validation("secret", "secret is required")
	}
	return nil
}

func newID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return errors.Wrap(err, "uuid")
	}
	*id = v
	return nil
}
