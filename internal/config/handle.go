package config

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Handle publishes the current Settings. Readers call Current on every use;
// Reload and Swap replace the whole value atomically.
type Handle struct {
	path    string
	current atomic.Pointer[Settings]
}

// NewHandle publishes s. path is the yaml file Reload reads.
func NewHandle(s *Settings, path string) *Handle {
	h := &Handle{path: path}
	h.current.Store(s)
	return h
}

func (h *Handle) Current() *Settings {
	return h.current.Load()
}

// Swap publishes s and returns the previous settings.
func (h *Handle) Swap(s *Settings) *Settings {
	return h.current.Swap(s)
}

// Reload re-runs Load and publishes the result. On failure the current
// settings stay in place. Default tenant ids found at bootstrap survive a
// reload that does not name them.
func (h *Handle) Reload() error {
	s, err := Load(h.path)
	if err != nil {
		return errors.Wrap(err, "[Handle.Reload]")
	}
	if s.GetDefaultIDs().RealmID == uuid.Nil {
		s = s.WithDefaultIDs(h.Current().GetDefaultIDs())
	}
	h.current.Store(s)
	return nil
}

// GetSigningKey makes a Handle usable as a token key source.
func (h *Handle) GetSigningKey() string {
	return h.Current().GetSigningKey()
}
