package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/ganot/agentic-te/internal/mcp"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// TenantResolver resolves a tenant ID from a bearer token.
type TenantResolver = mcp.TenantResolver

// APIKeys maps SHA-256 token hashes to tenant ids.
type APIKeys map[string]string

// NewAPIKeys hashes a token-to-tenant map.
func NewAPIKeys(tokens map[string]string) APIKeys {
	keys := make(APIKeys, len(tokens))
	for token, tenant := range tokens {
		keys[HashToken(token)] = tenant
	}
	return keys
}

// ResolveTenant implements TenantResolver.
func (k APIKeys) ResolveTenant(_ context.Context, token string) (string, error) {
	tenant, ok := k[HashToken(token)]
	if !ok || tenant == "" {
		return "", ErrUnauthorized
	}
	return tenant, nil
}

// HashToken returns the hex SHA-256 of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TenantFromContext returns the tenant ID from context, if present.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenant := mcp.CallerFrom(ctx).Tenant
	return tenant, tenant != ""
}

// WithTenant returns ctx carrying tenantID, keeping any demo session.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	caller := mcp.CallerFrom(ctx)
	caller.Tenant = tenantID
	return mcp.WithCaller(ctx, caller)
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := mcp.BearerToken(r.Header)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			tenantID, err := resolver.ResolveTenant(r.Context(), token)
			if err != nil || tenantID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenantID)))
		})
	}
}

// StaticTenant assigns every request to one tenant. Used when auth is off.
func StaticTenant(tenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenantID)))
		})
	}
}
