package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Operational
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Dashboard auth (proxied to the auth service)
	RouteAPILogin    = "/api/auth/login"
	RouteAPIRegister = "/api/auth/register"
	RouteAPILogout   = "/api/auth/logout"
	RouteAPISession  = "/api/auth/session"

	// Platform connection
	RouteConnect         = "/auth/{platform}/connect"
	RouteAPIConnectLogin = "/api/auth/{platform}/login"
	RouteCallback        = "/auth/{platform}/callback"

	// Gateway proxies, {prefix} is the gateway alias ("x", "insta") or the platform id
	RouteAPIProfile        = "/api/v1/{prefix}/profile"
	RouteAPIPosts          = "/api/v1/{prefix}/posts"
	RouteAPIUserAnalytics  = "/api/v1/{prefix}/analytics/user"
	RouteAPIPostAnalytics  = "/api/v1/{prefix}/analytics/posts"
	RouteAPITweetAnalytics = "/api/v1/{prefix}/analytics/tweets"
	RouteAPIPlatformLogout = "/api/v1/{prefix}/logout"

	// Preflight for every API route
	RouteAPIPreflight = "/api/"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
