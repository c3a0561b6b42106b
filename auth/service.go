// Package auth admits users into sessions and runs the refresh, logout and
// introspection flows on top of the tenancy store.
package auth

import (
	"time"

	"github.com/jrsteele09/go-realm-auth/authz"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Recorder receives flow outcomes. Outcomes are "ok" or an error kind.
type Recorder interface {
	Login(outcome string)
	Refresh(outcome string)
	SessionsOpened(n int)
	SessionsClosed(n int)
}

type nopRecorder struct{}

func (nopRecorder) Login(string)       {}
func (nopRecorder) Refresh(string)     {}
func (nopRecorder) SessionsOpened(int) {}
func (nopRecorder) SessionsClosed(int) {}

// Service provides the session flows for every realm.
type Service struct {
	store   tenancy.Store    // All repository dependencies
	tokens  *token.Manager   // Mints and verifies tokens
	writer  *tenancy.Writer  // Validated write path
	policy  authz.Policy     // Admin checks
	metrics Recorder         // Outcome counters
	log     zerolog.Logger   // Debug lines for every rejection
	nowTime func() time.Time // nowTime function (injectable for testing)

	writerOptions []tenancy.WriterOption
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

func WithPolicy(p authz.Policy) ServiceOption {
	return func(s *Service) {
		s.policy = p
	}
}

// WithWriterOptions is passed through to the service's tenancy writer.
func WithWriterOptions(opts ...tenancy.WriterOption) ServiceOption {
	return func(s *Service) {
		s.writerOptions = append(s.writerOptions, opts...)
	}
}

func WithMetrics(r Recorder) ServiceOption {
	return func(s *Service) {
		s.metrics = r
	}
}

// NewService initializes a Service with required dependencies.
func NewService(store tenancy.Store, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[NewService] store is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] tokens is required")
	}

	s := &Service{
		store:   store,
		tokens:  tokens,
		policy:  authz.DefaultPolicy,
		metrics: nopRecorder{},
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.writer = tenancy.NewWriter(s.nowTime, s.writerOptions...)
	return s, nil
}

// Policy returns the admin policy the service checks against.
func (s *Service) Policy() authz.Policy {
	return s.policy
}
