package auth

import (
	"context"
	"sort"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-realm-auth/internal/errors"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/jrsteele09/go-realm-auth/users"
	"github.com/pkg/errors"
)

// ResourceSubset is the group a registered user is placed in.
type ResourceSubset struct {
	GroupName   string            `json:"group_name"`
	Identifiers map[string]string `json:"identifiers"`
}

type NewUser struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	FirstName string         `json:"first_name"`
	LastName  *string        `json:"last_name,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	Resource  ResourceSubset `json:"resource"`
}

// Register lets a realm admin create a user in realmID together with its
// default resource group for clientID. Everything is written in one
// transaction.
func (s *Service) Register(ctx context.Context, caller *token.AccessClaims, realmID, clientID uuid.UUID, in NewUser) (*users.User, error) {
	if err := s.policy.RequireRealmAdmin(caller, realmID); err != nil {
		return nil, err
	}
	if err := users.ValidatePasswordStrength(in.Password); err != nil {
		return nil, apperrors.Validation("password", "%s", err.Error())
	}
	hash, err := users.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] HashPassword")
	}

	user := &users.User{
		RealmID:      realmID,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	err = s.store.WithinTx(ctx, func(tx tenancy.Repos) error {
		client, err := tx.Clients().Get(ctx, clientID)
		if err != nil {
			return apperrors.Persistence("get client", err)
		}
		if client.RealmID != realmID {
			return apperrors.Validation("client_id", "client does not belong to realm")
		}
		if err := s.writer.CreateUser(ctx, tx, user); err != nil {
			return err
		}
		group := &resources.Group{
			RealmID:   realmID,
			ClientID:  clientID,
			UserID:    user.ID,
			Name:      in.Resource.GroupName,
			IsDefault: true,
		}
		if err := s.writer.CreateGroup(ctx, tx, group); err != nil {
			return err
		}

		names := make([]string, 0, len(in.Resource.Identifiers))
		for name := range in.Resource.Identifiers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := &resources.Resource{GroupID: group.ID, Name: name, Value: in.Resource.Identifiers[name]}
			if err := s.writer.CreateResource(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register]")
	}
	s.log.Info().Str("user_id", user.ID.String()).Str("realm_id", realmID.String()).Msg("user registered")
	return user, nil
}
