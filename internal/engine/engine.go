// Package engine dispatches decoded JSON-RPC messages against a
// mcpservice.Server. It holds no session state: every message is answered
// from the Server it is handed, which the transport builds per exchange.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ggoodman/device-info-mcp/internal/jsonrpc"
	"github.com/ggoodman/device-info-mcp/internal/logctx"
	"github.com/ggoodman/device-info-mcp/mcp"
	"github.com/ggoodman/device-info-mcp/mcpservice"
)

// Engine maps protocol methods onto a Server.
type Engine struct {
	log *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Dispatch answers a single request or notification. It returns nil for
// notifications, which never receive a response. Every request receives
// exactly one response; failures are encoded as JSON-RPC errors.
func (e *Engine) Dispatch(ctx context.Context, srv *mcpservice.Server, req *jsonrpc.Request) *jsonrpc.Response {
	if req.ID.IsNil() {
		e.log.DebugContext(ctx, "engine.notification", slog.String("method", req.Method))
		return nil
	}

	var (
		res *jsonrpc.Response
		err error
	)
	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		res, err = e.handleInitialize(ctx, srv, req)
	case mcp.PingMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, struct{}{})
	case mcp.ToolsListMethod:
		res, err = e.handleToolsList(ctx, srv, req)
	case mcp.ToolsCallMethod:
		res, err = e.handleToolCall(ctx, srv, req)
	default:
		e.log.InfoContext(ctx, "engine.handle_request.unsupported", slog.String("method", req.Method))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", map[string]any{"method": req.Method})
	}
	if err != nil {
		e.log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("method", req.Method), slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return res
}

func (e *Engine) handleInitialize(ctx context.Context, srv *mcpservice.Server, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
	}

	result := &mcp.InitializeResult{
		ProtocolVersion: mcp.NegotiateProtocolVersion(params.ProtocolVersion),
		Capabilities:    srv.Capabilities(),
		ServerInfo:      srv.Info(),
		Instructions:    srv.Instructions(),
	}

	log.InfoContext(ctx, "engine.initialize.ok",
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("requested_version", params.ProtocolVersion),
		slog.String("negotiated_version", result.ProtocolVersion),
	)

	return jsonrpc.NewResultResponse(req.ID, result)
}

func (e *Engine) handleToolsList(ctx context.Context, srv *mcpservice.Server, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ListToolsRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
	}

	// The tool set is small and fixed; the cursor is accepted and ignored.
	result := &mcp.ListToolsResult{Tools: srv.Tools().List()}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("tool_count", len(result.Tools)))

	return jsonrpc.NewResultResponse(req.ID, result)
}

func (e *Engine) handleToolCall(ctx context.Context, srv *mcpservice.Server, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}
	if params.Name == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "missing tool name"), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params: missing tool name", nil), nil
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	res, err := srv.Tools().Invoke(ctx, params.Name, params.Arguments)

	var (
		unknown *mcpservice.UnknownToolError
		invalid *mcpservice.InvalidInputError
		failed  *mcpservice.ToolExecutionError
	)
	switch {
	case err == nil:
		log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewResultResponse(req.ID, res)
	case errors.As(err, &unknown):
		log.InfoContext(ctx, "engine.tool.unknown", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, unknown.Error(), nil), nil
	case errors.As(err, &invalid):
		log.InfoContext(ctx, "engine.tool.invalid_input", slog.Any("violations", invalid.Violations), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, invalid.Error(), map[string]any{"violations": invalid.Violations}), nil
	case errors.As(err, &failed):
		log.WarnContext(ctx, "engine.tool.fail", slog.String("err", failed.Err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewResultResponse(req.ID, mcpservice.Errorf("%v", failed.Err))
	default:
		return nil, err
	}
}
