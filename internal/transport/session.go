package transport

import (
	"context"
	"net/http"

	"github.com/ganot/agentic-te/internal/mcp"
)

// SessionIDFromContext returns the demo session named by the request, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id := mcp.CallerFrom(ctx).Session
	return id, id != ""
}

// SessionMiddleware records the demo session named by the request headers on
// the caller already in context.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mcp.DemoSession(r.Header)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		caller := mcp.CallerFrom(r.Context())
		caller.Session = id
		next.ServeHTTP(w, r.WithContext(mcp.WithCaller(r.Context(), caller)))
	})
}
