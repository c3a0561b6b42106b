package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/auth"
	"github.com/jrsteele09/go-realm-auth/internal/config"
	"github.com/jrsteele09/go-realm-auth/internal/metrics"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface is built from. Metrics and
// Health are optional.
type Deps struct {
	Config      *config.Handle
	Auth        *auth.Service
	Tokens      *token.Manager
	Credentials *apicreds.Verifier
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	Health      func(ctx context.Context) error
}

type Server struct {
	router  chi.Router
	routes  []string
	config  *config.Handle
	auth    *auth.Service
	tokens  *token.Manager
	creds   *apicreds.Verifier
	metrics *metrics.Metrics
	log     zerolog.Logger
	health  func(ctx context.Context) error
	limiter *ipLimiter
}

func New(d Deps) (*Server, error) {
	switch {
	case d.Config == nil:
		return nil, errors.New("[Server New] config is required")
	case d.Auth == nil:
		return nil, errors.New("[Server New] auth service is required")
	case d.Tokens == nil:
		return nil, errors.New("[Server New] token manager is required")
	case d.Credentials == nil:
		return nil, errors.New("[Server New] credential verifier is required")
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  d.Config,
		auth:    d.Auth,
		tokens:  d.Tokens,
		creds:   d.Credentials,
		metrics: d.Metrics,
		log:     d.Logger,
		health:  d.Health,
	}
	if cfg := d.Config.Current(); cfg.GetEnableRateLimiting() {
		s.limiter = newIPLimiter(cfg.GetLoginRatePerSecond(), cfg.GetLoginBurst())
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoute mounts handler under method and pattern and remembers the
// pair for the startup route listing.
func (s *Server) RegisterRoute(router chi.Router, method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	router.Method(method, pattern, handler)
}

const (
	resetColour = "\033[0m"
	grey        = "\033[37m"
)

var methodColours = map[string]string{
	http.MethodGet:    "\033[32m",
	http.MethodPost:   "\033[33m",
	http.MethodPut:    "\033[34m",
	http.MethodDelete: "\033[31m",
}

func (s *Server) logRoutes() {
	if !s.config.Current().IsDev() {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		s.log.Info().Msg(routeLine(parts[0], parts[1]))
	}
}

func routeLine(method, path string) string {
	colour, ok := methodColours[method]
	if !ok {
		colour = grey
	}
	return fmt.Sprintf("[%s %-7s%s] %s", colour, method, resetColour, path)
}
