package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDContextKey is the context key for request IDs.
type requestIDContextKey struct{}

// RequestIDMiddleware tags each request with an id. An inbound X-Request-ID
// from an upstream proxy is preserved so log lines correlate across hops;
// otherwise a fresh UUID is generated. The id is echoed on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), requestIDContextKey{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context.
// Returns an empty string if no request ID is set.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return requestID
	}
	return ""
}
