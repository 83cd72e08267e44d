package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload truncates logged params and results.
const maxLoggedPayload = 2048

// trafficLoggingMiddleware logs every MCP message at debug level. Tool calls
// that end in an in-band demo error are logged at info level with their code
// whatever the level.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil {
				return next(ctx, method, req)
			}
			debug := logger.Enabled(ctx, slog.LevelDebug)

			caller := CallerFrom(ctx)
			attrs := []any{
				"direction", direction,
				"method", method,
				"tenant_id", caller.Tenant,
				"session_id", caller.Session,
			}
			params := safeParams(req)
			if call, ok := params.(*sdkmcp.CallToolParamsRaw); ok && call != nil {
				attrs = append(attrs, "tool", call.Name)
			}
			if debug {
				attrs = append(attrs, "mcp_session", safeSessionID(req))
				logger.Debug("mcp request", append(attrs, "params", formatPayload(params))...)
			}

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			attrs = append(attrs, "elapsed", time.Since(start))

			if code, failed := toolFailure(result); failed {
				logger.Info("demo tool failed", append(attrs, "code", code)...)
			}
			if debug {
				attrs = append(attrs, "result", formatPayload(result))
				if err != nil {
					attrs = append(attrs, "error", err)
				}
				logger.Debug("mcp response", attrs...)
			}

			return result, err
		}
	}
}

// toolFailure reads the API error code out of an in-band tool error.
func toolFailure(result sdkmcp.Result) (string, bool) {
	call, ok := result.(*sdkmcp.CallToolResult)
	if !ok || call == nil || !call.IsError || len(call.Content) == 0 {
		return "", false
	}
	text, ok := call.Content[0].(*sdkmcp.TextContent)
	if !ok {
		return "", true
	}
	var body struct {
		Error *APIError `json:"error"`
	}
	if json.Unmarshal([]byte(text.Text), &body) != nil || body.Error == nil {
		return "", true
	}
	return body.Error.Code, true
}

func safeSessionID(req sdkmcp.Request) string {
	if isNil(req) {
		return ""
	}
	if session := req.GetSession(); !isNil(session) {
		return session.ID()
	}
	return ""
}

func safeParams(req sdkmcp.Request) any {
	if isNil(req) {
		return nil
	}
	if params := req.GetParams(); !isNil(params) {
		return params
	}
	return nil
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "…"
	}
	return string(data)
}
