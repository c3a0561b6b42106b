package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
)

func notFound(entity string) error {
	return errors.Wrap(apperrors.ErrNotFound, entity)
}

func duplicate(entity string) error {
	return apperrors.Validation("id", "%s already exists", entity)
}

// cascades

func (st *state) deleteGroup(id uuid.UUID) {
	delete(st.groups, id)
	for rid, r := range st.resources {
		if r.GroupID == id {
			delete(st.resources, rid)
		}
	}
}

func (st *state) deleteUser(id uuid.UUID) {
	delete(st.users, id)
	for gid, g := range st.groups {
		if g.UserID == id {
			st.deleteGroup(gid)
		}
	}
	for sid, s := range st.sessions {
		if s.UserID == id {
			delete(st.sessions, sid)
		}
	}
	for fid, f := range st.families {
		if f.UserID == id {
			delete(st.families, fid)
		}
	}
}

func (st *state) deleteClient(id uuid.UUID) {
	delete(st.clients, id)
	for gid, g := range st.groups {
		if g.ClientID == id {
			st.deleteGroup(gid)
		}
	}
	for sid, s := range st.sessions {
		if s.ClientID == id {
			delete(st.sessions, sid)
		}
	}
	for fid, f := range st.families {
		if f.ClientID == id {
			delete(st.families, fid)
		}
	}
	for cid, c := range st.creds {
		if c.ClientID == id {
			delete(st.creds, cid)
		}
	}
}

func (st *state) deleteRealm(id uuid.UUID) {
	delete(st.realms, id)
	for cid, c := range st.clients {
		if c.RealmID == id {
			st.deleteClient(cid)
		}
	}
	for uid, u := range st.users {
		if u.RealmID == id {
			st.deleteUser(uid)
		}
	}
	for cid, c := range st.creds {
		if c.RealmID == id {
			delete(st.creds, cid)
		}
	}
}

// realms

type realmRepo struct{ v *view }

func (r realmRepo) Insert(_ context.Context, realm *realms.Realm) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.realms[realm.ID]; ok {
			return duplicate("realm")
		}
		if err := st.realmNameTaken(realm); err != nil {
			return err
		}
		st.realms[realm.ID] = *realm
		return nil
	})
}

func (r realmRepo) Update(_ context.Context, realm *realms.Realm) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.realms[realm.ID]; !ok {
			return notFound("realm")
		}
		if err := st.realmNameTaken(realm); err != nil {
			return err
		}
		st.realms[realm.ID] = *realm
		return nil
	})
}

// realmNameTaken mirrors the unique indexes on realms.name and realms.slug.
func (st *state) realmNameTaken(realm *realms.Realm) error {
	for id, e := range st.realms {
		if id != realm.ID && (e.Name == realm.Name || e.Slug == realm.Slug) {
			return apperrors.Validation("name", "realm %q already exists", realm.Name)
		}
	}
	return nil
}

func (r realmRepo) Get(_ context.Context, id uuid.UUID) (*realms.Realm, error) {
	var out realms.Realm
	err := r.v.read(func(st *state) error {
		e, ok := st.realms[id]
		if !ok {
			return notFound("realm")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r realmRepo) GetByName(_ context.Context, name string) (*realms.Realm, error) {
	var out *realms.Realm
	err := r.v.read(func(st *state) error {
		for _, e := range st.realms {
			if e.Name == name {
				e := e
				out = &e
				return nil
			}
		}
		return notFound("realm")
	})
	return out, err
}

func (r realmRepo) GetBySlug(_ context.Context, slug string) (*realms.Realm, error) {
	var out *realms.Realm
	err := r.v.read(func(st *state) error {
		for _, e := range st.realms {
			if e.Slug == slug {
				e := e
				out = &e
				return nil
			}
		}
		return notFound("realm")
	})
	return out, err
}

func (r realmRepo) List(_ context.Context, offset, limit int) ([]*realms.Realm, error) {
	var all []*realms.Realm
	_ = r.v.read(func(st *state) error {
		for _, e := range st.realms {
			e := e
			all = append(all, &e)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, offset, limit), nil
}

func (r realmRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.realms[id]; !ok {
			return notFound("realm")
		}
		st.deleteRealm(id)
		return nil
	})
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// clients

type clientRepo struct{ v *view }

func (r clientRepo) Insert(_ context.Context, c *clients.Client) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.clients[c.ID]; ok {
			return duplicate("client")
		}
		if _, ok := st.realms[c.RealmID]; !ok {
			return notFound("realm")
		}
		st.clients[c.ID] = *c
		return nil
	})
}

func (r clientRepo) Update(_ context.Context, c *clients.Client) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.clients[c.ID]; !ok {
			return notFound("client")
		}
		st.clients[c.ID] = *c
		return nil
	})
}

func (r clientRepo) Get(_ context.Context, id uuid.UUID) (*clients.Client, error) {
	var out clients.Client
	err := r.v.read(func(st *state) error {
		e, ok := st.clients[id]
		if !ok {
			return notFound("client")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r clientRepo) ListByRealm(_ context.Context, realmID uuid.UUID) ([]*clients.Client, error) {
	var out []*clients.Client
	_ = r.v.read(func(st *state) error {
		for _, e := range st.clients {
			if e.RealmID == realmID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r clientRepo) SumMaxConcurrentSessions(_ context.Context, realmID, excludeID uuid.UUID) (int, error) {
	total := 0
	_ = r.v.read(func(st *state) error {
		for _, e := range st.clients {
			if e.RealmID == realmID && e.ID != excludeID {
				total += e.MaxConcurrentSessions
			}
		}
		return nil
	})
	return total, nil
}

func (r clientRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.clients[id]; !ok {
			return notFound("client")
		}
		st.deleteClient(id)
		return nil
	})
}

// users

type userRepo struct{ v *view }

func (r userRepo) Insert(_ context.Context, u *users.User) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return duplicate("user")
		}
		for _, e := range st.users {
			if strings.EqualFold(e.Email, u.Email) {
				return apperrors.Validation("email", "email %s is already registered", u.Email)
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) Update(_ context.Context, u *users.User) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return notFound("user")
		}
		for _, e := range st.users {
			if e.ID != u.ID && strings.EqualFold(e.Email, u.Email) {
				return apperrors.Validation("email", "email %s is already registered", u.Email)
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) Get(_ context.Context, id uuid.UUID) (*users.User, error) {
	var out users.User
	err := r.v.read(func(st *state) error {
		e, ok := st.users[id]
		if !ok {
			return notFound("user")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) GetByEmail(_ context.Context, realmID uuid.UUID, email string) (*users.User, error) {
	var out *users.User
	err := r.v.read(func(st *state) error {
		for _, e := range st.users {
			if e.RealmID == realmID && strings.EqualFold(e.Email, email) {
				e := e
				out = &e
				return nil
			}
		}
		return notFound("user")
	})
	return out, err
}

func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return notFound("user")
		}
		st.deleteUser(id)
		return nil
	})
}

// resource groups

type groupRepo struct{ v *view }

func (r groupRepo) Insert(_ context.Context, g *resources.Group) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.groups[g.ID]; ok {
			return duplicate("resource group")
		}
		st.groups[g.ID] = *g
		return nil
	})
}

func (r groupRepo) Update(_ context.Context, g *resources.Group) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.groups[g.ID]; !ok {
			return notFound("resource group")
		}
		st.groups[g.ID] = *g
		return nil
	})
}

func (r groupRepo) Get(_ context.Context, id uuid.UUID) (*resources.Group, error) {
	var out resources.Group
	err := r.v.read(func(st *state) error {
		e, ok := st.groups[id]
		if !ok {
			return notFound("resource group")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r groupRepo) ListByClientUser(_ context.Context, clientID, userID uuid.UUID) ([]*resources.Group, error) {
	var out []*resources.Group
	_ = r.v.read(func(st *state) error {
		for _, e := range st.groups {
			if e.ClientID == clientID && e.UserID == userID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r groupRepo) ClearDefaults(_ context.Context, clientID, userID, exceptID uuid.UUID) error {
	return r.v.write(func(st *state) error {
		for id, e := range st.groups {
			if e.ClientID == clientID && e.UserID == userID && id != exceptID && e.IsDefault {
				e.IsDefault = false
				st.groups[id] = e
			}
		}
		return nil
	})
}

func (r groupRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.groups[id]; !ok {
			return notFound("resource group")
		}
		st.deleteGroup(id)
		return nil
	})
}

// resources

type resourceRepo struct{ v *view }

func (r resourceRepo) Insert(_ context.Context, res *resources.Resource) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.resources[res.ID]; ok {
			return duplicate("resource")
		}
		if _, ok := st.groups[res.GroupID]; !ok {
			return notFound("resource group")
		}
		st.resources[res.ID] = *res
		return nil
	})
}

func (r resourceRepo) Update(_ context.Context, res *resources.Resource) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.resources[res.ID]; !ok {
			return notFound("resource")
		}
		st.resources[res.ID] = *res
		return nil
	})
}

func (r resourceRepo) Get(_ context.Context, id uuid.UUID) (*resources.Resource, error) {
	var out resources.Resource
	err := r.v.read(func(st *state) error {
		e, ok := st.resources[id]
		if !ok {
			return notFound("resource")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resourceRepo) list(groupID uuid.UUID, activeOnly bool) []*resources.Resource {
	var out []*resources.Resource
	_ = r.v.read(func(st *state) error {
		for _, e := range st.resources {
			if e.GroupID == groupID && (!activeOnly || !e.IsLocked()) {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r resourceRepo) ListByGroup(_ context.Context, groupID uuid.UUID) ([]*resources.Resource, error) {
	return r.list(groupID, false), nil
}

func (r resourceRepo) ListActiveByGroup(_ context.Context, groupID uuid.UUID) ([]*resources.Resource, error) {
	return r.list(groupID, true), nil
}

func (r resourceRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.resources[id]; !ok {
			return notFound("resource")
		}
		delete(st.resources, id)
		return nil
	})
}

// sessions

type sessionRepo struct{ v *view }

func (r sessionRepo) Insert(_ context.Context, s *sessions.Session) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sessions[s.ID]; ok {
			return duplicate("session")
		}
		st.sessions[s.ID] = *s
		return nil
	})
}

func (r sessionRepo) Get(_ context.Context, id uuid.UUID) (*sessions.Session, error) {
	var out sessions.Session
	err := r.v.read(func(st *state) error {
		e, ok := st.sessions[id]
		if !ok {
			return notFound("session")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r sessionRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	found := false
	err := r.v.write(func(st *state) error {
		_, found = st.sessions[id]
		delete(st.sessions, id)
		return nil
	})
	return found, err
}

func (r sessionRepo) DeleteByClientUser(_ context.Context, clientID, userID uuid.UUID) (int, error) {
	n := 0
	err := r.v.write(func(st *state) error {
		for id, s := range st.sessions {
			if s.ClientID == clientID && s.UserID == userID {
				delete(st.sessions, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r sessionRepo) CountActive(_ context.Context, clientID, userID uuid.UUID, now time.Time) (int, error) {
	n := 0
	err := r.v.read(func(st *state) error {
		for _, s := range st.sessions {
			if s.ClientID == clientID && s.UserID == userID && s.IsActive(now) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	n := 0
	err := r.v.write(func(st *state) error {
		for id, s := range st.sessions {
			if !s.IsActive(now) {
				delete(st.sessions, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// refresh token families

type familyRepo struct{ v *view }

func (r familyRepo) Insert(_ context.Context, f *refresh.Family) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.families[f.ID]; ok {
			return duplicate("refresh token family")
		}
		st.families[f.ID] = *f
		return nil
	})
}

func (r familyRepo) Update(_ context.Context, f *refresh.Family) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.families[f.ID]; !ok {
			return notFound("refresh token family")
		}
		st.families[f.ID] = *f
		return nil
	})
}

func (r familyRepo) GetActive(_ context.Context, id uuid.UUID) (*refresh.Family, error) {
	var out refresh.Family
	err := r.v.read(func(st *state) error {
		e, ok := st.families[id]
		if !ok || e.IsLocked() {
			return notFound("refresh token family")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActiveForUpdate needs no extra locking: a transaction already holds the
// store's write lock.
func (r familyRepo) GetActiveForUpdate(ctx context.Context, id uuid.UUID) (*refresh.Family, error) {
	return r.GetActive(ctx, id)
}

func (r familyRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		delete(st.families, id)
		return nil
	})
}

// api credentials

type credentialRepo struct{ v *view }

func (r credentialRepo) Insert(_ context.Context, c *apicreds.Credential) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.creds[c.ID]; ok {
			return duplicate("api credential")
		}
		st.creds[c.ID] = *c
		return nil
	})
}

func (r credentialRepo) Update(_ context.Context, c *apicreds.Credential) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.creds[c.ID]; !ok {
			return notFound("api credential")
		}
		st.creds[c.ID] = *c
		return nil
	})
}

func (r credentialRepo) GetActive(_ context.Context, id uuid.UUID) (*apicreds.Credential, error) {
	var out apicreds.Credential
	err := r.v.read(func(st *state) error {
		e, ok := st.creds[id]
		if !ok || e.IsLocked() {
			return notFound("api credential")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r credentialRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.creds[id]; !ok {
			return notFound("api credential")
		}
		delete(st.creds, id)
		return nil
	})
}
