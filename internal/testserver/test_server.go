// Package testserver runs the full HTTP stack against an in-memory database
// for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/app"
	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/config"
	"github.com/ganot/agentic-te/internal/mcp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Start is the simulated clock's initial time.
var Start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type TestServer struct {
	Server   *httptest.Server
	App      *app.App
	Clock    *clock.Manual
	Token    string
	TenantID string
}

// New starts a server with auth enabled for a single token.
func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = map[string]string{token: tenantID}

	clk := clock.NewManual(Start)
	a, err := app.New(context.Background(), cfg, clk, nil)
	require.NoError(t, err)

	server := httptest.NewServer(a.Router())

	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{
		Server:   server,
		App:      a,
		Clock:    clk,
		Token:    token,
		TenantID: tenantID,
	}
}

// RPCResponse is a decoded JSON-RPC reply.
type RPCResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data,omitempty"`
	} `json:"error,omitempty"`
}

// RPC posts one JSON-RPC call to /rpc.
func (ts *TestServer) RPC(t *testing.T, sessionID, method string, params any) RPCResponse {
	t.Helper()

	payload := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	if sessionID != "" {
		req.Header.Set(mcp.SessionHeader, sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	headers http.Header
	base    http.RoundTripper
}

func (h *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range h.headers {
		r.Header[k] = v
	}
	return h.base.RoundTrip(r)
}

// Connect opens an MCP client session over the streamable HTTP endpoint.
// An empty demoSession leaves session selection to the MCP session id.
func (ts *TestServer) Connect(t *testing.T, token, demoSession string) (*sdkmcp.ClientSession, error) {
	t.Helper()

	headers := http.Header{}
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}
	if demoSession != "" {
		headers.Set(mcp.SessionHeader, demoSession)
	}
	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: &headerTransport{headers: headers, base: http.DefaultTransport}},
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = session.Close() })
	return session, nil
}

// CallTool calls a tool and returns its text payload, failing on tool
// errors.
func CallTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) json.RawMessage {
	t.Helper()
	text, isError := CallToolRaw(t, session, name, args)
	require.False(t, isError, "tool %s failed: %s", name, text)
	return text
}

// CallToolRaw calls a tool and returns its text payload and error flag.
func CallToolRaw(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	params := &sdkmcp.CallToolParams{Name: name}
	if args != nil {
		params.Arguments = args
	}
	result, err := session.CallTool(ctx, params)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return json.RawMessage(text.Text), result.IsError
}
