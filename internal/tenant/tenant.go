// Package tenant holds per-tenant auth-provider configuration and the
// registry the gateway resolves tenants from.
package tenant

import "errors"

// ErrUnknownTenant is returned when no tenant exists for the requested id.
// It is distinct from transport or credential errors: an unknown tenant is a
// 400 to the caller, not a 500.
var ErrUnknownTenant = errors.New("unknown tenant")

// Config is the auth-provider configuration for one tenant. The gateway
// reads it to verify tokens; it never mutates tenant configuration.
type Config struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
	// AuthServiceURL is the tenant's auth provider endpoint.
	AuthServiceURL string `koanf:"auth_service_url"`
	// AuthServiceKey is the signing key tokens for this tenant are verified
	// against.
	AuthServiceKey string `koanf:"auth_service_key"`
}
