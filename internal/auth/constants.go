package auth

const (
	ContextKeyUserID   = "user_id"
	ContextKeyAuthType = "auth_type"

	jsonKeyError = "error"

	headerAuthorization = "Authorization"

	// CookieAccessToken is the HTTP-only cookie the OAuth callback sets.
	CookieAccessToken = "access_token"
	// QueryLoginToken allows credential delivery via URL parameter, which
	// the hub uses when opening the service in an iframe.
	QueryLoginToken = "login_token"

	bearerScheme    = "bearer"
	authHeaderParts = 2
)

const (
	msgMissingCredential       = "must login with token parameter or Authorization bearer header"
	msgInvalidOrExpiredToken   = "invalid or expired token"
	msgHubUserFetchFailed      = "error getting user info from token"
	msgUserNotAuthorizedFmt    = "user not authorized: %s"
	msgUserNotAuthenticated    = "user not authenticated"
	msgInvalidUserCtx          = "invalid user in context"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
)

type AuthType string

const (
	AuthTypeHub AuthType = "hub"
)
