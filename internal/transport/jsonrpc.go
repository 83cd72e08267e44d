package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ganot/agentic-te/internal/mcp"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	// CodeDomain carries a demo error; data holds the APIError.
	CodeDomain = -32000
)

// maxRPCBody caps one /rpc payload, batches included.
const maxRPCBody = 1 << 20

var (
	errParse          = errors.New("parse error")
	errInvalidRequest = errors.New("invalid request")
)

// nullID is sent when a request id could not be read.
var nullID = json.RawMessage("null")

// Request is one JSON-RPC 2.0 call. A call without an id is a notification
// and gets no response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Notification reports whether the caller expects no reply.
func (r Request) Notification() bool {
	return len(r.ID) == 0
}

// Response is one JSON-RPC 2.0 reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest decodes and validates a single call.
func ParseRequest(body io.Reader) (Request, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	return parseCall(raw)
}

func parseCall(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Request{}, fmt.Errorf("%w: %v", errParse, err)
		}
		return Request{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return req, fmt.Errorf("%w: jsonrpc must be 2.0 and method is required", errInvalidRequest)
	}
	return req, nil
}

// decodeBody splits a payload into calls. A top-level array is a batch.
func decodeBody(body []byte) (raws []json.RawMessage, batch bool, err error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return []json.RawMessage{body}, false, nil
	}
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, true, fmt.Errorf("%w: %v", errParse, err)
	}
	if len(raws) == 0 {
		return nil, true, fmt.Errorf("%w: empty batch", errInvalidRequest)
	}
	return raws, true, nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := TenantFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}
	sessionID, _ := SessionIDFromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRPCBody))
	if err != nil {
		writeRPC(w, failure(nullID, CodeInvalidRequest, err.Error(), nil))
		return
	}

	raws, batch, err := decodeBody(body)
	if err != nil {
		writeRPC(w, failure(nullID, codeFor(err), err.Error(), nil))
		return
	}

	replies := make([]Response, 0, len(raws))
	for _, raw := range raws {
		if reply, ok := s.call(r.Context(), tenantID, sessionID, raw); ok {
			replies = append(replies, reply)
		}
	}

	switch {
	case len(replies) == 0:
		w.WriteHeader(http.StatusNoContent)
	case batch:
		writeRPC(w, replies)
	default:
		writeRPC(w, replies[0])
	}
}

// call runs one request. It returns false for notifications.
func (s *Server) call(ctx context.Context, tenantID, sessionID string, raw json.RawMessage) (Response, bool) {
	req, err := parseCall(raw)
	if err != nil {
		id := req.ID
		if len(id) == 0 {
			id = nullID
		}
		return failure(id, codeFor(err), err.Error(), nil), true
	}

	result, err := s.handler.Handle(ctx, tenantID, sessionID, req.Method, req.Params)
	if req.Notification() {
		if err != nil {
			s.logger.Debug("rpc notification failed", "method", req.Method, "error", err)
		}
		return Response{}, false
	}
	if err != nil {
		code, data := rpcError(err)
		if code == CodeInternal {
			s.logger.Error("rpc method failed", "method", req.Method, "tenant_id", tenantID, "error", err)
		}
		return failure(req.ID, code, err.Error(), data), true
	}
	return Response{JSONRPC: "2.0", Result: result, ID: req.ID}, true
}

func codeFor(err error) int {
	if errors.Is(err, errParse) {
		return CodeParse
	}
	return CodeInvalidRequest
}

// rpcError picks the JSON-RPC code for a dispatch error.
func rpcError(err error) (int, any) {
	if errors.Is(err, mcp.ErrUnknownMethod) {
		return CodeMethodNotFound, nil
	}
	apiErr := mcp.MapError(err)
	if apiErr == nil {
		return CodeInternal, nil
	}
	if apiErr.Code == "INVALID_INPUT" {
		return CodeInvalidParams, apiErr
	}
	return CodeDomain, apiErr
}

func failure(id json.RawMessage, code int, message string, data any) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	}
}

// Protocol errors still travel with HTTP 200.
func writeRPC(w http.ResponseWriter, payload any) {
	writeBody(w, http.StatusOK, payload)
}
