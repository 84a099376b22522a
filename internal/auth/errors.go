package auth

import "errors"

// Gateway authentication errors. Every one is terminal for the request:
// the middleware maps them to HTTP statuses and never retries.
var (
	// ErrMissingAuthHeader: no Authorization header on a protected path.
	ErrMissingAuthHeader = errors.New("authorization required")

	// ErrMalformedAuthHeader: Authorization header present but not Bearer.
	ErrMalformedAuthHeader = errors.New("invalid authorization header format")

	// ErrInvalidToken: signature or expiry verification failed.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidTokenPayload: token verified but the subject claim is missing.
	ErrInvalidTokenPayload = errors.New("invalid token payload")

	// ErrUserNotFound: no user for the subject within the resolved tenant.
	ErrUserNotFound = errors.New("user not found in this organization")

	// ErrUserDeactivated: the user exists but is disabled.
	ErrUserDeactivated = errors.New("account deactivated")

	// ErrTenantMismatch: a valid credential was combined with a different
	// tenant's id header. Security-relevant; logged distinctly.
	ErrTenantMismatch = errors.New("tenant mismatch")
)
