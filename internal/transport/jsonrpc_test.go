package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/mcp"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"get_view","params":{"surface":"orb"},"id":"a1"}`)
	req, err := ParseRequest(body)
	require.NoError(t, err)
	require.Equal(t, "get_view", req.Method)
	require.Equal(t, json.RawMessage(`{"surface":"orb"}`), req.Params)
	require.Equal(t, json.RawMessage(`"a1"`), req.ID)
	require.False(t, req.Notification())

	req, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","method":"clear_activities"}`))
	require.NoError(t, err)
	require.True(t, req.Notification())
}

func TestParseRequest_Invalid(t *testing.T) {
	_, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","id":1}`))
	require.ErrorIs(t, err, errInvalidRequest)

	_, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":"1.0","method":"ping","id":1}`))
	require.ErrorIs(t, err, errInvalidRequest)

	_, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":`))
	require.ErrorIs(t, err, errParse)
}

func TestDecodeBody(t *testing.T) {
	raws, batch, err := decodeBody([]byte(` {"jsonrpc":"2.0"} `))
	require.NoError(t, err)
	require.False(t, batch)
	require.Len(t, raws, 1)

	raws, batch, err = decodeBody([]byte(`[{"a":1},{"b":2}]`))
	require.NoError(t, err)
	require.True(t, batch)
	require.Len(t, raws, 2)

	_, _, err = decodeBody([]byte(`[]`))
	require.ErrorIs(t, err, errInvalidRequest)

	_, _, err = decodeBody([]byte(`[{"a":`))
	require.ErrorIs(t, err, errParse)
}

func TestRPCError(t *testing.T) {
	code, data := rpcError(fmt.Errorf("%w: nope", mcp.ErrUnknownMethod))
	require.Equal(t, CodeMethodNotFound, code)
	require.Nil(t, data)

	code, data = rpcError(&mcp.APIError{Code: "INVALID_INPUT", Message: "bad"})
	require.Equal(t, CodeInvalidParams, code)
	require.NotNil(t, data)

	code, data = rpcError(fmt.Errorf("wrapped: %w", demo.ErrInvalidStage))
	require.Equal(t, CodeDomain, code)
	require.Equal(t, "INVALID_STAGE", data.(*mcp.APIError).Code)

	code, _ = rpcError(errors.New("disk on fire"))
	require.Equal(t, CodeInternal, code)
}

func TestHTTPServer_RPCBatchAndNotifications(t *testing.T) {
	env := newTestEnv(t, Options{})

	post := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/rpc", bytes.NewBufferString(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer token")
		req.Header.Set(mcp.SessionHeader, "batch")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// A lone notification still runs but gets no body.
	resp := post(`{"jsonrpc":"2.0","method":"select_persona","params":{"persona":"finance"}}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	sess, err := env.registry.Get("tenant1", "batch")
	require.NoError(t, err)
	require.Equal(t, demo.StageActSelection, sess.State().Stage)

	resp = post(`[
		{"jsonrpc":"2.0","method":"go_back"},
		{"jsonrpc":"2.0","method":"get_demo_state","id":1},
		{"jsonrpc":"2.0","method":"teleport","id":2},
		{"jsonrpc":"2.0","id":3}
	]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var replies []Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&replies))
	require.Len(t, replies, 3)
	require.Equal(t, json.RawMessage(`1`), replies[0].ID)
	require.Equal(t, string(demo.StagePersonaSelection), replies[0].Result.(map[string]any)["stage"])
	require.Equal(t, CodeMethodNotFound, replies[1].Error.Code)
	require.Equal(t, CodeInvalidRequest, replies[2].Error.Code)
	require.Equal(t, json.RawMessage(`3`), replies[2].ID)

	resp = post(`[]`)
	var single Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&single))
	require.Equal(t, CodeInvalidRequest, single.Error.Code)
	require.Equal(t, json.RawMessage(`null`), single.ID)
}
