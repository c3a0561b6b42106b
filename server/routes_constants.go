package server

// Route path constants
const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Every auth route lives under one realm and client
	RouteAuthPrefix = "/v1/realms/{realm_id}/clients/{client_id}/auth"

	RouteLogin         = "/login"
	RouteRefreshToken  = "/refresh-token"
	RouteLogout        = "/logout"
	RouteLogoutAll     = "/logout-all"
	RouteLogoutCurrent = "/logout-current"
	RouteLogoutMyAll   = "/logout-my-all"
	RouteIntrospect    = "/introspect"
	RouteRegister      = "/register"

	paramRealmID  = "realm_id"
	paramClientID = "client_id"
)
