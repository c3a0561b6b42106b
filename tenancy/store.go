// Package tenancy groups the per-entity repositories behind a single store
// with a transactional unit of work, and owns the write-time constraints of
// the realm, client and user hierarchy.
package tenancy

import (
	"context"

	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/jrsteele09/go-realm-auth/users"
)

// Repos holds all repository dependencies
type Repos interface {
	Realms() realms.Repo
	Clients() clients.Repo
	Users() users.Repo
	Groups() resources.GroupRepo
	Resources() resources.ResourceRepo
	Sessions() sessions.Repo
	Families() refresh.Repo
	Credentials() apicreds.Repo
}

// Store is a Repos that can run a group of reads and writes atomically.
type Store interface {
	Repos
	// WithinTx runs fn against a transactional view of the store. Any error
	// returned by fn rolls back every write made through that view.
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
}
