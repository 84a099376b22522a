package ratelimit

import "strings"

// Limit is requests-per-window for one endpoint.
type Limit struct {
	MaxRequests   int
	WindowSeconds int
}

// DefaultLimit applies when no endpoint rule matches.
var DefaultLimit = Limit{MaxRequests: 600, WindowSeconds: 60}

// Policy maps endpoint paths to limits. Exact matches win over prefix
// matches; among prefix matches the longest wins. Policies are immutable
// after construction and safe to share across requests without locking.
type Policy struct {
	exact    map[string]Limit
	prefixes map[string]Limit
	fallback Limit

	exempt map[string]struct{}
}

// NewPolicy builds a policy from exact-path and path-prefix rules.
// Paths in exempt bypass rate limiting entirely and never touch the store.
func NewPolicy(exact, prefixes map[string]Limit, exempt []string) *Policy {
	p := &Policy{
		exact:    make(map[string]Limit, len(exact)),
		prefixes: make(map[string]Limit, len(prefixes)),
		fallback: DefaultLimit,
		exempt:   make(map[string]struct{}, len(exempt)),
	}
	for path, l := range exact {
		p.exact[path] = l
	}
	for prefix, l := range prefixes {
		p.prefixes[prefix] = l
	}
	for _, path := range exempt {
		p.exempt[path] = struct{}{}
	}
	return p
}

// DefaultPolicy is the gateway's static endpoint table: tight limits on
// auth and outbound-email endpoints, a generous one on knowledge-base
// search, the global default elsewhere.
func DefaultPolicy() *Policy {
	return NewPolicy(
		map[string]Limit{
			"/api/v1/auth/login":    {MaxRequests: 10, WindowSeconds: 60},
			"/api/v1/auth/refresh":  {MaxRequests: 30, WindowSeconds: 60},
			"/api/v1/invoices/send": {MaxRequests: 20, WindowSeconds: 3600},
			"/api/v1/quotes/send":   {MaxRequests: 20, WindowSeconds: 3600},
		},
		map[string]Limit{
			"/api/v1/search":  {MaxRequests: 120, WindowSeconds: 60},
			"/api/v1/reports": {MaxRequests: 100, WindowSeconds: 86400},
		},
		[]string{"/", "/health", "/docs", "/openapi.json"},
	)
}

// Resolve returns the limit for an endpoint: exact match first, then the
// longest matching prefix, then the default. Deterministic and
// side-effect-free.
func (p *Policy) Resolve(endpoint string) Limit {
	if l, ok := p.exact[endpoint]; ok {
		return l
	}

	var (
		best    Limit
		bestLen = -1
	)
	for prefix, l := range p.prefixes {
		if strings.HasPrefix(endpoint, prefix) && len(prefix) > bestLen {
			best = l
			bestLen = len(prefix)
		}
	}
	if bestLen >= 0 {
		return best
	}
	return p.fallback
}

// Exempt reports whether the path bypasses rate limiting.
func (p *Policy) Exempt(path string) bool {
	_, ok := p.exempt[path]
	return ok
}
