package testserver_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/testserver"
	"github.com/stretchr/testify/require"
)

func TestFunctional_Authentication(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"list_personas","id":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The handshake stays open; tool calls need the token.
	session, err := ts.Connect(t, "", "")
	require.NoError(t, err)
	_, err = session.ListTools(context.Background(), nil)
	require.Error(t, err)
}

func TestFunctional_WalkthroughOverMCP(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	session, err := ts.Connect(t, "token", "demo-1")
	require.NoError(t, err)

	var state struct {
		SessionID string `json:"session_id"`
		Stage     string `json:"stage"`
		Created   bool   `json:"created"`
	}
	require.NoError(t, json.Unmarshal(testserver.CallTool(t, session, "get_demo_state", nil), &state))
	require.Equal(t, "demo-1", state.SessionID)
	require.Equal(t, "persona-selection", state.Stage)
	require.True(t, state.Created)

	testserver.CallTool(t, session, "select_persona", map[string]any{"persona": "finance"})
	testserver.CallTool(t, session, "select_act", map[string]any{
		"act":    "expense-review",
		"params": map[string]any{"merchant": "Cafe X", "amount": 150},
	})
	ts.Clock.RunAll()

	var view struct {
		View struct {
			State string `json:"state"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(testserver.CallTool(t, session, "get_view", map[string]any{"surface": "orb"}), &view))
	require.Equal(t, "completed", view.View.State)

	var acts struct {
		Records []struct {
			AgentType string `json:"agent_type"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(testserver.CallTool(t, session, "list_activities", map[string]any{"agent": "compliance-guardian"}), &acts))
	require.NotEmpty(t, acts.Records)

	var runs []struct {
		Scenario string `json:"scenario"`
		Params   struct {
			Merchant string `json:"merchant"`
		} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(testserver.CallTool(t, session, "list_runs", nil), &runs))
	require.Len(t, runs, 1)
	require.Equal(t, "expense-flow", runs[0].Scenario)
	require.Equal(t, "Cafe X", runs[0].Params.Merchant)

	text, isError := testserver.CallToolRaw(t, session, "select_persona", map[string]any{"persona": "finance"})
	require.True(t, isError)
	require.Contains(t, string(text), "INVALID_STAGE")
}

func TestFunctional_RPCAndViewShareSessions(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp := ts.RPC(t, "kiosk", "select_persona", map[string]any{"persona": "traveler"})
	require.Nil(t, resp.Error)
	resp = ts.RPC(t, "kiosk", "select_act", map[string]any{"act": "trip-booking", "params": map[string]any{"destination": "Boston"}})
	require.Nil(t, resp.Error)
	ts.Clock.RunAll()

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/sessions/kiosk/views/list?limit=10", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	var view struct {
		Surface string `json:"surface"`
		View    []struct {
			Message string `json:"message"`
		} `json:"view"`
	}
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&view))
	require.Equal(t, "list", view.Surface)
	found := false
	for _, card := range view.View {
		if strings.Contains(card.Message, "Trip to Boston confirmed") {
			found = true
		}
	}
	require.True(t, found)

	// Sessions are tenant scoped.
	other := testserver.New(t, "other-token", "tenant2")
	resp = other.RPC(t, "", "list_sessions", nil)
	require.Nil(t, resp.Error)
	require.JSONEq(t, `[]`, string(resp.Result))
}

func TestFunctional_EventStream(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	ts.RPC(t, "kiosk", "select_persona", map[string]any{"persona": "finance"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.Server.URL+"/sessions/kiosk/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}
	require.JSONEq(t, `{"version":0,"records":[]}`, readData())

	ts.RPC(t, "kiosk", "select_act", map[string]any{"act": "operations-overview"})
	var snap struct {
		Version uint64            `json:"version"`
		Records []json.RawMessage `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(readData()), &snap))
	require.Equal(t, uint64(1), snap.Version)
	require.NotEmpty(t, snap.Records)
}

func TestFunctional_FixturesAndFlows(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp := ts.RPC(t, "", "get_fixture", map[string]any{"kind": "hotels", "id": "ht-zephyr"})
	require.Nil(t, resp.Error)
	require.Contains(t, string(resp.Result), "Hotel Zephyr")

	resp = ts.RPC(t, "", "get_fixture", map[string]any{"kind": "hotels", "id": "ht-nope"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "FIXTURE_NOT_FOUND", resp.Error.Data["code"])

	resp = ts.RPC(t, "", "check_policy", map[string]any{"amount": 18.5, "category": "meals"})
	require.Nil(t, resp.Error)
	var compliance struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &compliance))
	require.Equal(t, "approved", compliance.Status)
	require.Contains(t, compliance.Message, "no receipt required under $25")

	resp = ts.RPC(t, "", "plan_trip", map[string]any{"destination": "Boston", "origin": "New York"})
	require.Nil(t, resp.Error)
	require.Contains(t, string(resp.Result), "acela")
}
