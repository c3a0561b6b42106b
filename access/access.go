// Package access defines the ordered access levels shared by human roles and
// API credentials.
package access

import (
	"strings"

	"github.com/pkg/errors"
)

// Level is a named access level. Levels are totally ordered by Rank.
type Level string

const (
	Read   Level = "read"
	Write  Level = "write"
	Delete Level = "delete"
	Admin  Level = "admin"
)

// Rank returns the numeric rank of l. Unknown levels rank 0.
func (l Level) Rank() int {
	switch l {
	case Read:
		return 10
	case Write:
		return 20
	case Delete:
		return 30
	case Admin:
		return 100
	}
	return 0
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Satisfies reports whether holding l grants required.
func (l Level) Satisfies(required Level) bool {
	return HasAccess(l, required)
}

// HasAccess reports whether held ranks at least as high as required.
// An unknown level never satisfies and is never satisfied.
func HasAccess(held, required Level) bool {
	if !held.Valid() || !required.Valid() {
		return false
	}
	return held.Rank() >= required.Rank()
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", errors.Errorf("unknown access level %q", s)
	}
	return l, nil
}

// Role is the scope an API credential acts in.
type Role string

const (
	RealmAdmin  Role = "realm_admin"
	ClientAdmin Role = "client_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RealmAdmin || r == ClientAdmin
}
