package config

type SecurityConfig interface {
	GetLoginRatePerSecond() float64
	GetLoginBurst() int
	GetEnableRateLimiting() bool
}

func (s *Settings) GetLoginRatePerSecond() float64 {
	return s.Security.LoginRatePerSecond
}

func (s *Settings) GetLoginBurst() int {
	return s.Security.LoginBurst
}

// GetEnableRateLimiting is false when the login rate is zero.
func (s *Settings) GetEnableRateLimiting() bool {
	return s.Security.LoginRatePerSecond > 0 && s.Security.LoginBurst > 0
}
