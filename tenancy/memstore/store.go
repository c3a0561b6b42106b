// Package memstore is an in-memory tenancy.Store. A transaction holds the
// store's write lock for its whole duration and restores a snapshot when it
// fails.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/jrsteele09/go-realm-auth/users"
)

var _ tenancy.Store = (*Store)(nil)

type state struct {
	realms    map[uuid.UUID]realms.Realm
	clients   map[uuid.UUID]clients.Client
	users     map[uuid.UUID]users.User
	groups    map[uuid.UUID]resources.Group
	resources map[uuid.UUID]resources.Resource
	sessions  map[uuid.UUID]sessions.Session
	families  map[uuid.UUID]refresh.Family
	creds     map[uuid.UUID]apicreds.Credential
}

func newState() *state {
	return &state{
		realms:    map[uuid.UUID]realms.Realm{},
		clients:   map[uuid.UUID]clients.Client{},
		users:     map[uuid.UUID]users.User{},
		groups:    map[uuid.UUID]resources.Group{},
		resources: map[uuid.UUID]resources.Resource{},
		sessions:  map[uuid.UUID]sessions.Session{},
		families:  map[uuid.UUID]refresh.Family{},
		creds:     map[uuid.UUID]apicreds.Credential{},
	}
}

func cloneMap[T any](m map[uuid.UUID]T) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		realms:    cloneMap(s.realms),
		clients:   cloneMap(s.clients),
		users:     cloneMap(s.users),
		groups:    cloneMap(s.groups),
		resources: cloneMap(s.resources),
		sessions:  cloneMap(s.sessions),
		families:  cloneMap(s.families),
		creds:     cloneMap(s.creds),
	}
}

type Store struct {
	lock sync.RWMutex
	st   *state
	*view
}

func New() *Store {
	s := &Store{st: newState()}
	s.view = &view{store: s}
	return s
}

// WithinTx runs fn while holding the write lock. Calling the non
// transactional Store from inside fn deadlocks; use tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx tenancy.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := s.st.clone()
	if err := fn(&view{store: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// view implements tenancy.Repos. Outside a transaction every call takes the
// store lock itself.
type view struct {
	store *Store
	inTx  bool
}

func (v *view) read(fn func(st *state) error) error {
	if !v.inTx {
		v.store.lock.RLock()
		defer v.store.lock.RUnlock()
	}
	return fn(v.store.st)
}

func (v *view) write(fn func(st *state) error) error {
	if !v.inTx {
		v.store.lock.Lock()
		defer v.store.lock.Unlock()
	}
	return fn(v.store.st)
}

func (v *view) Realms() realms.Repo               { return realmRepo{v} }
func (v *view) Clients() clients.Repo             { return clientRepo{v} }
func (v *view) Users() users.Repo                 { return userRepo{v} }
func (v *view) Groups() resources.GroupRepo       { return groupRepo{v} }
func (v *view) Resources() resources.ResourceRepo { return resourceRepo{v} }
func (v *view) Sessions() sessions.Repo           { return sessionRepo{v} }
func (v *view) Families() refresh.Repo            { return familyRepo{v} }
func (v *view) Credentials() apicreds.Repo        { return credentialRepo{v} }
