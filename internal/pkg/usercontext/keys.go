package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsSuperAdmin  = "isSuperAdmin"
	KeyFromProtected = "from_protected"
)
