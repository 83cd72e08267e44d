package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultTenant owns every session when auth is disabled.
const DefaultTenant = "default"

// SessionHeader carries the demo session id over HTTP.
const SessionHeader = "X-Demo-Session"

// ErrUnauthenticated is returned for tool calls without a valid bearer token.
var ErrUnauthenticated = errors.New("unauthorized")

// TenantResolver resolves a tenant ID from a bearer token.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// Caller identifies who a request acts for: the tenant owning the demo
// sessions and the demo session it addresses. An empty Session means the
// handler falls back to DefaultSessionID.
type Caller struct {
	Tenant  string
	Session string
}

type callerKey struct{}

// WithCaller returns ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, or the zero Caller.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

// BearerToken extracts the token of an Authorization: Bearer header.
func BearerToken(h http.Header) string {
	auth := h.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// DemoSession picks the demo session named by HTTP headers. X-Demo-Session
// wins over the transport's Mcp-Session-Id.
func DemoSession(h http.Header) string {
	if h == nil {
		return ""
	}
	if id := strings.TrimSpace(h.Get(SessionHeader)); id != "" {
		return id
	}
	return h.Get("Mcp-Session-Id")
}

// openMethod reports whether method runs without credentials: the protocol
// handshake, liveness and client notifications.
func openMethod(method string) bool {
	return method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/")
}

// callerMiddleware attaches a Caller to every inbound request. With a nil
// resolver every request belongs to DefaultTenant.
func callerMiddleware(resolver TenantResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var header http.Header
			if extra := req.GetExtra(); extra != nil {
				header = extra.Header
			}

			caller := Caller{Tenant: DefaultTenant, Session: DemoSession(header)}
			if caller.Session == "" {
				caller.Session = metaSession(req)
			}

			if resolver != nil && !openMethod(method) {
				token := BearerToken(header)
				if token == "" {
					return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
				}
				tenant, err := resolver.ResolveTenant(ctx, token)
				if err != nil || tenant == "" {
					return nil, fmt.Errorf("%w: invalid bearer token", ErrUnauthenticated)
				}
				caller.Tenant = tenant
			}

			return next(WithCaller(ctx, caller), method, req)
		}
	}
}

// metaSession reads _meta.session_id, which stdio clients use in place of
// headers. Notifications can carry a typed nil params pointer.
func metaSession(req sdkmcp.Request) string {
	if isNil(req) {
		return ""
	}
	params := req.GetParams()
	if isNil(params) {
		return ""
	}
	id, _ := params.GetMeta()["session_id"].(string)
	return id
}
