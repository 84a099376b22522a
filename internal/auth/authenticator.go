// Package auth implements tenant-scoped JWT authentication: token
// verification against the tenant's auth-provider key, user resolution, and
// the tenant-isolation check.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/consultly/gateway/internal/tenant"
	"github.com/consultly/gateway/internal/user"
)

// Claims are the token claims the gateway cares about. Registered claims
// carry subject and expiry; email and name ride along for logging.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Authenticator validates bearer tokens and resolves them to tenant users.
// Verification is pure computation; the user lookup is the only call that
// may block.
type Authenticator struct {
	tenants       *tenant.Registry
	users         user.Directory
	defaultTenant string
	logger        *slog.Logger
}

// New creates an authenticator. defaultTenant is used when a request carries
// no tenant header; that implicit tenant is trusted and skips the isolation
// check.
func New(tenants *tenant.Registry, users user.Directory, defaultTenant string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tenants:       tenants,
		users:         users,
		defaultTenant: defaultTenant,
		logger:        logger,
	}
}

// ExtractBearer pulls the token out of an Authorization header value.
// An empty header yields ErrMissingAuthHeader; anything that is not
// "Bearer <token>" yields ErrMalformedAuthHeader.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedAuthHeader
	}
	return parts[1], nil
}

// Authenticate runs the protected-path state machine for one request:
// tenant resolution, token verification, user lookup, activity check, and
// tenant isolation. headerTenant is the raw X-Client-ID value ("" when the
// caller sent none). Every failure is terminal; nothing is retried.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken, headerTenant string) (*Identity, error) {
	tenantID := headerTenant
	if tenantID == "" {
		tenantID = a.defaultTenant
	}

	cfg, err := a.tenants.Lookup(tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownTenant) {
			return nil, err
		}
		return nil, fmt.Errorf("tenant config lookup: %w", err)
	}

	claims, err := a.verify(rawToken, cfg.AuthServiceKey)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, ErrInvalidTokenPayload
	}

	u, err := a.users.FindBySubject(ctx, tenantID, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if !u.Active {
		return nil, ErrUserDeactivated
	}

	// Tenant isolation: a valid credential for one tenant must never address
	// another tenant's data via a spoofed header. Only an explicit header is
	// checked; the process-wide default tenant is trusted implicitly.
	if headerTenant != "" && u.TenantID != headerTenant {
		a.logger.Warn("tenant isolation violation",
			slog.String("security_event", "tenant_mismatch"),
			slog.String("header_tenant", headerTenant),
			slog.String("user_tenant", u.TenantID),
			slog.String("subject", claims.Subject),
		)
		return nil, ErrTenantMismatch
	}

	return &Identity{
		UserID:        u.ID,
		AuthSubjectID: u.AuthSubjectID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		TenantID:      u.TenantID,
		Active:        u.Active,
	}, nil
}

// verify checks the token signature and expiry against the tenant's key.
// No I/O happens here.
func (a *Authenticator) verify(rawToken, key string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (any, error) { return []byte(key), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Surface the provider's reason without leaking internals.
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	return claims, nil
}
