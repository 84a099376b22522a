package auth

import "context"

// Identity is the resolved caller of one request. It is created after
// successful authentication, attached to the request context, and discarded
// at request end; the gateway never persists it.
type Identity struct {
	UserID        string
	AuthSubjectID string
	Email         string
	Name          string
	Role          string
	TenantID      string
	Active        bool
}

// Anonymous reports whether this identity came from the public-path bypass
// rather than a verified token.
func (id *Identity) Anonymous() bool {
	return id.UserID == ""
}

// identityContextKey is the context key for the resolved identity.
type identityContextKey struct{}

// WithIdentity attaches an identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext retrieves the identity attached by the gateway.
// Returns nil if the request never passed through it.
func IdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey{}).(*Identity); ok {
		return id
	}
	return nil
}
