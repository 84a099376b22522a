package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/consultly/gateway/internal/auth"
	"github.com/consultly/gateway/internal/ratelimit"
	"github.com/consultly/gateway/internal/tenant"
)

// TenantHeader carries the caller's tenant id. Optional: when absent the
// process-wide default tenant applies, and the isolation check is skipped.
const TenantHeader = "X-Client-ID"

// PublicPaths is the static allowlist of routes that bypass authentication.
// Immutable after process start.
type PublicPaths struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPublicPaths builds an allowlist from exact paths and path prefixes.
func NewPublicPaths(exact, prefixes []string) *PublicPaths {
	p := &PublicPaths{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: prefixes,
	}
	for _, path := range exact {
		p.exact[path] = struct{}{}
	}
	return p
}

// DefaultPublicPaths covers health, docs, and login.
func DefaultPublicPaths() *PublicPaths {
	return NewPublicPaths(
		[]string{"/", "/health", "/docs", "/openapi.json", "/api/v1/auth/login"},
		[]string{"/static/"},
	)
}

// Contains reports whether the path bypasses authentication.
func (p *PublicPaths) Contains(path string) bool {
	if _, ok := p.exact[path]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Gateway is the protected-path middleware: public bypass, authentication,
// tenant isolation, and rate limiting, strictly in that order. On any
// failure it short-circuits with a structured JSON error and never invokes
// the downstream handler.
type Gateway struct {
	authenticator *auth.Authenticator
	limiter       *ratelimit.Limiter
	public        *PublicPaths
	defaultTenant string
}

// NewGateway wires the middleware from its collaborators. defaultTenant
// keys rate-limit accounting for requests that carry no tenant header and
// fail authentication.
func NewGateway(authenticator *auth.Authenticator, limiter *ratelimit.Limiter, public *PublicPaths, defaultTenant string) *Gateway {
	return &Gateway{
		authenticator: authenticator,
		limiter:       limiter,
		public:        public,
		defaultTenant: defaultTenant,
	}
}

// Middleware returns the http.Handler wrapper.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerTenant := r.Header.Get(TenantHeader)

		// CORS preflight and public paths skip authentication, but only the
		// exempt set (health, docs, root) skips rate-limit accounting:
		// login floods still count.
		if r.Method == http.MethodOptions || g.public.Contains(r.URL.Path) {
			if r.Method != http.MethodOptions {
				if res, limited := g.account(w, r, headerTenant, nil); limited {
					g.rejectRateLimited(w, r, res)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{})))
			return
		}

		identity, authErr := g.authenticate(r, headerTenant)

		// Rate-limit accounting runs for every non-exempt path, whether or
		// not authentication succeeded: unauthenticated floods count too.
		// When both would reject, the auth error wins.
		res, limited := g.account(w, r, headerTenant, identity)

		if authErr != nil {
			g.reject(w, r, authErr)
			return
		}
		if limited {
			g.rejectRateLimited(w, r, res)
			return
		}

		AddLogField(r.Context(), "tenant_id", identity.TenantID)
		AddLogField(r.Context(), "user_id", identity.UserID)

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// account runs rate-limit accounting for non-exempt paths and sets the
// X-RateLimit response headers. Exempt paths never touch the store. The
// second return is true when the request exceeded its window.
func (g *Gateway) account(w http.ResponseWriter, r *http.Request, headerTenant string, identity *auth.Identity) (ratelimit.Result, bool) {
	if g.limiter.Exempt(r.URL.Path) {
		return ratelimit.Result{}, false
	}

	tenantID := headerTenant
	if tenantID == "" {
		tenantID = g.defaultTenant
	}
	if identity != nil {
		tenantID = identity.TenantID
	}

	res, err := g.limiter.Allow(r.Context(), tenantID, r.URL.Path)
	if err != nil {
		// Fail open: a broken counter store must not reject traffic.
		AddError(r.Context(), fmt.Errorf("rate limit check: %w", err))
	}
	setRateLimitHeaders(w, res)
	return res, !res.Allowed
}

func (g *Gateway) rejectRateLimited(w http.ResponseWriter, r *http.Request, res ratelimit.Result) {
	AddLogField(r.Context(), "rate_limited", "true")
	writeRateLimited(w, fmt.Sprintf(
		"Maximum %d requests per %d seconds exceeded", res.Limit, res.Window,
	), res.Window)
}

func (g *Gateway) authenticate(r *http.Request, headerTenant string) (*auth.Identity, error) {
	token, err := auth.ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return g.authenticator.Authenticate(r.Context(), token, headerTenant)
}

// reject maps an authentication error to its HTTP status and JSON body.
func (g *Gateway) reject(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	switch {
	case errors.Is(err, auth.ErrTenantMismatch):
		writeDetail(w, http.StatusForbidden, "Access denied: tenant mismatch")
	case errors.Is(err, tenant.ErrUnknownTenant):
		writeDetail(w, http.StatusBadRequest, "Unknown client")
	case errors.Is(err, auth.ErrMissingAuthHeader),
		errors.Is(err, auth.ErrMalformedAuthHeader),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenPayload),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrUserDeactivated):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	remaining := res.Limit - res.Current
	if remaining < 0 {
		remaining = 0
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(res.Reset))
}
