package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type keyResolver map[string]string

func (k keyResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if tenant, ok := k[token]; ok {
		return tenant, nil
	}
	return "", errors.New("unknown key")
}

func TestHeaderHelpers(t *testing.T) {
	h := http.Header{}
	require.Equal(t, "", BearerToken(h))
	h.Set("Authorization", "bearer  tok-1 ")
	require.Equal(t, "tok-1", BearerToken(h))
	h.Set("Authorization", "Basic abc")
	require.Equal(t, "", BearerToken(h))

	require.Equal(t, "", DemoSession(nil))
	h.Set("Mcp-Session-Id", "mcp-1")
	require.Equal(t, "mcp-1", DemoSession(h))
	h.Set(SessionHeader, "demo-1")
	require.Equal(t, "demo-1", DemoSession(h))
}

func TestCallerMiddleware(t *testing.T) {
	var got Caller
	next := func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		got = CallerFrom(ctx)
		return nil, nil
	}
	call := func(mw sdkmcp.Middleware, method string, header http.Header, meta map[string]any) error {
		got = Caller{}
		req := &sdkmcp.CallToolRequest{
			Params: &sdkmcp.CallToolParamsRaw{Name: "ping", Meta: meta},
			Extra:  &sdkmcp.RequestExtra{Header: header},
		}
		_, err := mw(next)(context.Background(), method, req)
		return err
	}

	open := callerMiddleware(nil)
	require.NoError(t, call(open, "tools/call", http.Header{SessionHeader: {"demo-1"}}, nil))
	require.Equal(t, Caller{Tenant: DefaultTenant, Session: "demo-1"}, got)

	require.NoError(t, call(open, "tools/call", nil, map[string]any{"session_id": "stdio-1"}))
	require.Equal(t, Caller{Tenant: DefaultTenant, Session: "stdio-1"}, got)

	secured := callerMiddleware(keyResolver{"tok": "acme"})
	err := call(secured, "tools/call", http.Header{}, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)

	err = call(secured, "tools/call", http.Header{"Authorization": {"Bearer nope"}}, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, call(secured, "tools/call", http.Header{"Authorization": {"Bearer tok"}}, nil))
	require.Equal(t, "acme", got.Tenant)

	// The handshake stays open.
	require.NoError(t, call(secured, "initialize", nil, nil))
	require.Equal(t, DefaultTenant, got.Tenant)
}

func TestMetaSession(t *testing.T) {
	require.Equal(t, "", metaSession(nil))
	require.Equal(t, "", metaSession(&sdkmcp.CallToolRequest{}))
	require.Equal(t, "", metaSession(&sdkmcp.CallToolRequest{Params: (*sdkmcp.CallToolParamsRaw)(nil)}))
	require.Equal(t, "s1", metaSession(&sdkmcp.CallToolRequest{
		Params: &sdkmcp.CallToolParamsRaw{Meta: map[string]any{"session_id": "s1"}},
	}))

	require.Nil(t, safeParams(nil))
	require.Nil(t, safeParams(&sdkmcp.CallToolRequest{Params: (*sdkmcp.CallToolParamsRaw)(nil)}))
	require.NotNil(t, safeParams(&sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "ping"}}))
	require.Equal(t, "", safeSessionID(nil))
	require.Equal(t, "", safeSessionID(&sdkmcp.CallToolRequest{}))
}

func TestToolFailure(t *testing.T) {
	code, failed := toolFailure(errorResult(&APIError{Code: "UNKNOWN_ACT", Message: "nope"}))
	require.True(t, failed)
	require.Equal(t, "UNKNOWN_ACT", code)

	ok, err := jsonResult(map[string]string{"status": "ok"})
	require.NoError(t, err)
	_, failed = toolFailure(ok)
	require.False(t, failed)

	_, failed = toolFailure(nil)
	require.False(t, failed)
}
