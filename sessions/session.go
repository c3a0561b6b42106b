package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Info describes the device a session was opened from.
type Info struct {
	IPAddress       string `json:"ip_address"`
	UserAgent       string `json:"user_agent"`
	Browser         string `json:"browser"`
	BrowserVersion  string `json:"browser_version"`
	OperatingSystem string `json:"operating_system"`
	DeviceType      string `json:"device_type"`
	CountryCode     string `json:"country_code"`
}

// Session is one admitted login of a user into a client. A session counts
// against the client quota until Expires.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	ClientID        uuid.UUID  `json:"client_id"`
	RefreshFamilyID *uuid.UUID `json:"refresh_family_id,omitempty"`
	Info            Info       `json:"info"`
	Expires         time.Time  `json:"expires"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsActive reports whether the session still counts at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.Expires.After(now)
}
