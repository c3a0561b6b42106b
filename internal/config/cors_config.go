package config

import "strings"

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	if _, ok := a["*"]; ok {
		return true
	}
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

func (s *Settings) GetAllowedOrigins() AllowedOrigins {
	origins := make(AllowedOrigins, len(s.Cors.AllowedOrigins))
	for _, o := range s.Cors.AllowedOrigins {
		origins[o] = nullValue{}
	}
	return origins
}

func (s *Settings) GetAllowedMethods() string {
	return s.Cors.AllowedMethods
}

func (s *Settings) GetAllowedHeaders() string {
	return s.Cors.AllowedHeaders
}
