package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) initRoutes() {
	s.router.Use(middleware.RequestID)
	if s.metrics != nil {
		s.router.Use(s.metrics.Instrument)
	}
	s.router.Use(
		adapt(s.LoggingMiddleware),
		adapt(s.RecoverMiddleware),
		adapt(s.CorsMiddleware),
	)

	s.RegisterRoute(s.router, http.MethodGet, RouteHealth, s.HealthHandler())
	if s.metrics != nil {
		s.RegisterRoute(s.router, http.MethodGet, RouteMetrics, s.metrics.Handler().ServeHTTP)
	}

	s.router.Route(RouteAuthPrefix, func(r chi.Router) {
		s.RegisterRoute(r, http.MethodPost, RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
		s.RegisterRoute(r, http.MethodPost, RouteRefreshToken, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RequireAPIKey)...))

		// Bearer access token routes
		s.RegisterRoute(r, http.MethodPost, RouteLogout, ChainMiddleware(s.LogoutSessionHandler(), s.APIMiddleware(s.RequireBearer)...))
		s.RegisterRoute(r, http.MethodPost, RouteLogoutAll, ChainMiddleware(s.LogoutAllHandler(), s.APIMiddleware(s.RequireBearer)...))
		s.RegisterRoute(r, http.MethodPost, RouteLogoutCurrent, ChainMiddleware(s.LogoutCurrentHandler(), s.APIMiddleware(s.RequireBearer)...))
		s.RegisterRoute(r, http.MethodPost, RouteLogoutMyAll, ChainMiddleware(s.LogoutMyAllHandler(), s.APIMiddleware(s.RequireBearer)...))
		s.RegisterRoute(r, http.MethodPost, RouteIntrospect, ChainMiddleware(s.IntrospectHandler(), s.APIMiddleware(s.RequireBearer)...))
		s.RegisterRoute(r, http.MethodPost, RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(s.RequireBearer)...))
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: 40003, Message: "not found"})
	})
}
