package tenant

import "fmt"

// Registry resolves tenant configuration by tenant id. It is built once at
// startup from configuration and is immutable afterward, so concurrent
// lookups need no locking.
type Registry struct {
	tenants map[string]*Config
}

// NewRegistry builds a registry from configured tenants. Duplicate ids are
// rejected so a misconfigured deployment fails at boot, not per request.
func NewRegistry(configs []Config) (*Registry, error) {
	r := &Registry{tenants: make(map[string]*Config, len(configs))}

	for i := range configs {
		cfg := configs[i]
		if cfg.ID == "" {
			return nil, fmt.Errorf("tenant at index %d has no id", i)
		}
		if cfg.AuthServiceKey == "" {
			return nil, fmt.Errorf("tenant %s has no auth service key", cfg.ID)
		}
		if _, exists := r.tenants[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate tenant id %s", cfg.ID)
		}
		r.tenants[cfg.ID] = &cfg
	}

	return r, nil
}

// Lookup returns the configuration for a tenant id, or ErrUnknownTenant.
func (r *Registry) Lookup(id string) (*Config, error) {
	cfg, ok := r.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, id)
	}
	return cfg, nil
}
