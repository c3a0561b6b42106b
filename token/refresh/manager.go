package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Outcome is the result of presenting a family's refresh token.
type Outcome int

const (
	Incremented Outcome = iota
	Rotated
)

func (o Outcome) String() string {
	if o == Rotated {
		return "rotated"
	}
	return "incremented"
}

// Transition describes how a family moves forward. Retired is set only when
// the family was rotated.
type Transition struct {
	Outcome Outcome
	Retired *Family
	Next    *Family
}

// Decide applies the reuse rule: a family whose ReuseCount has reached
// reuseLimit is retired and replaced with a new id starting at zero,
// otherwise its count is incremented in place.
func Decide(current *Family, reuseLimit int, now time.Time) (Transition, error) {
	if current.ReuseCount >= reuseLimit {
		id, err := uuid.NewV7()
		if err != nil {
			return Transition{}, errors.Wrap(err, "[refresh.Decide] uuid")
		}
		return Transition{
			Outcome: Rotated,
			Retired: current,
			Next: &Family{
				ID:        id,
				UserID:    current.UserID,
				ClientID:  current.ClientID,
				RealmID:   current.RealmID,
				CreatedAt: now,
				UpdatedAt: now,
			},
		}, nil
	}

	next := *current
	next.ReuseCount++
	next.UpdatedAt = now
	return Transition{Outcome: Incremented, Next: &next}, nil
}

// Manager handles family creation and rotation against a Repo. Construct one
// per unit of work so that the repo is the transactional one.
type Manager struct {
	repo Repo
	now  func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new refresh family manager
func NewManager(repo Repo, options ...ManagerOption) *Manager {
	m := &Manager{repo: repo, now: NowTimeFunc}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create starts a new family for the user in client/realm.
func (m *Manager) Create(ctx context.Context, userID, clientID, realmID uuid.UUID) (*Family, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Create] uuid")
	}
	now := m.now()
	f := &Family{
		ID:        id,
		UserID:    userID,
		ClientID:  clientID,
		RealmID:   realmID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.repo.Insert(ctx, f); err != nil {
		return nil, errors.Wrap(err, "[Manager.Create] Insert")
	}
	return f, nil
}

// Lock loads the active family and holds it for the rest of the transaction.
func (m *Manager) Lock(ctx context.Context, id uuid.UUID) (*Family, error) {
	f, err := m.repo.GetActiveForUpdate(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Lock] GetActiveForUpdate")
	}
	return f, nil
}

// Advance decides the family's next state and persists it. A rotation
// deletes the retired family and inserts its replacement; sessions opened
// with the retired family are left alone.
func (m *Manager) Advance(ctx context.Context, current *Family, reuseLimit int) (Transition, error) {
	tr, err := Decide(current, reuseLimit, m.now())
	if err != nil {
		return Transition{}, err
	}
	switch tr.Outcome {
	case Rotated:
		if err := m.repo.Delete(ctx, tr.Retired.ID); err != nil {
			return Transition{}, errors.Wrap(err, "[Manager.Advance] Delete")
		}
		if err := m.repo.Insert(ctx, tr.Next); err != nil {
			return Transition{}, errors.Wrap(err, "[Manager.Advance] Insert")
		}
	default:
		if err := m.repo.Update(ctx, tr.Next); err != nil {
			return Transition{}, errors.Wrap(err, "[Manager.Advance] Update")
		}
	}
	return tr, nil
}

// Delete removes a family.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	return m.repo.Delete(ctx, id)
}
