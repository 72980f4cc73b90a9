package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.Protect)...))

	// SESSION AUDIT (admin only)
	s.RegisterRouteHandler("GET "+RouteUserLogs, ChainMiddleware(s.ListUserLogsHandler(), s.APIMiddleware(s.Protect, s.AdminOnly)...))
	s.RegisterRouteHandler("DELETE "+RouteUserLogByID, ChainMiddleware(s.DeleteUserLogHandler(), s.APIMiddleware(s.Protect, s.AdminOnly)...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
