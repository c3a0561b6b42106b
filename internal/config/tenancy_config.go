package config

import "github.com/google/uuid"

type TenancyConfig interface {
	GetMasterRealm() string
	GetAdminClient() string
	GetAdminEmail() string
	GetAdminPassword() string
	GetDefaultIDs() DefaultIDs
}

// DefaultIDs are the rows created by bootstrap. Unparsable or unset ids are Nil.
type DefaultIDs struct {
	RealmID  uuid.UUID
	ClientID uuid.UUID
	UserID   uuid.UUID
	GroupID  uuid.UUID
}

func (s *Settings) GetMasterRealm() string   { return s.Tenancy.MasterRealm }
func (s *Settings) GetAdminClient() string   { return s.Tenancy.AdminClient }
func (s *Settings) GetAdminEmail() string    { return s.Tenancy.AdminEmail }
func (s *Settings) GetAdminPassword() string { return s.Tenancy.AdminPassword }

func (s *Settings) GetDefaultIDs() DefaultIDs {
	parse := func(v string) uuid.UUID {
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil
		}
		return id
	}
	return DefaultIDs{
		RealmID:  parse(s.Tenancy.DefaultRealmID),
		ClientID: parse(s.Tenancy.DefaultClientID),
		UserID:   parse(s.Tenancy.DefaultUserID),
		GroupID:  parse(s.Tenancy.DefaultGroupID),
	}
}

// WithDefaultIDs returns a copy of s carrying ids.
func (s *Settings) WithDefaultIDs(ids DefaultIDs) *Settings {
	c := *s
	c.Cors.AllowedOrigins = append([]string(nil), s.Cors.AllowedOrigins...)
	c.Tenancy.DefaultRealmID = ids.RealmID.String()
	c.Tenancy.DefaultClientID = ids.ClientID.String()
	c.Tenancy.DefaultUserID = ids.UserID.String()
	c.Tenancy.DefaultGroupID = ids.GroupID.String()
	return &c
}
