package common

// HTTP header names and the bearer scheme used on authenticated requests.
const (
	AuthorizationHeaderName = "Authorization"
	AuthenticateHeaderName  = "WWW-Authenticate"
	BearerScheme            = "Bearer"
)

// Pagination bounds for list endpoints.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
	MaxPageSkip      = 1<<31 - 1
)
