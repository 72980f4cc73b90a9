package server

// Route path constants
const (
	// Auth Routes
	RouteAuthRegister = "/api/auth/register"
	RouteAuthLogin    = "/api/auth/login"
	RouteAuthLogout   = "/api/auth/logout"

	// Session audit administration
	RouteUserLogs     = "/api/user-logs"
	RouteUserLogByID  = "/api/user-logs/{id}"
	RouteUserLogIDVar = "id"

	// Operational
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
