package common

const (
	// AuthorizationHeaderName carries the bearer session token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "

	// MinSecretLength is the shortest password accepted on registration and
	// password change.
	MinSecretLength = 6
)
