package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ganot/agentic-te/internal/clock"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported in the MCP implementation info.
const Version = "0.1.0"

// Config contains server configuration.
type Config struct {
	Services      Services
	Clock         clock.Clock
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	return NewServerWithHandler(cfg, NewHandler(cfg.Services, cfg.Clock, cfg.Logger))
}

// NewServerWithHandler creates the MCP server around an existing handler so
// the HTTP transport and the MCP tools share one dispatcher.
func NewServerWithHandler(cfg Config, handler *Handler) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "agentic-te",
		Version: Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server, cfg.Services.Sessions.Catalog())

	// Stdio is local only and never authenticates.
	var resolver TenantResolver
	if cfg.AuthEnabled && cfg.TransportMode != "stdio" {
		resolver = cfg.Resolver
	}
	server.AddReceivingMiddleware(callerMiddleware(resolver))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, handler)

	return server
}

func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			caller := CallerFrom(ctx)
			result, err := handler.Handle(ctx, caller.Tenant, caller.Session, def.Name, args)
			if err != nil {
				return errorResult(err), nil
			}
			return jsonResult(result)
		})
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// errorResult reports a tool failure in-band so the model can read the code
// and recovery hint.
func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		code := "INTERNAL"
		if errors.Is(err, ErrUnknownMethod) {
			code = "UNKNOWN_METHOD"
		}
		apiErr = &APIError{Code: code, Message: err.Error()}
	}
	data, _ := json.Marshal(map[string]*APIError{"error": apiErr})
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
