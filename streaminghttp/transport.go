package streaminghttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/device-info-mcp/internal/engine"
	"github.com/ggoodman/device-info-mcp/internal/jsonrpc"
	"github.com/ggoodman/device-info-mcp/internal/logctx"
	"github.com/ggoodman/device-info-mcp/mcp"
	"github.com/ggoodman/device-info-mcp/mcpservice"
)

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")
)

const (
	mcpProtocolVersionHeader = "Mcp-Protocol-Version"

	// DefaultMaxBodyBytes bounds the size of an inbound POST body.
	DefaultMaxBodyBytes int64 = 4 << 20
)

// Option configures a Transport or Router.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	maxBodyBytes int64
}

func newConfig(opts []Option) config {
	cfg := config{maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// WithLogger sets the logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes. Non-positive values are ignored.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// Transport carries exactly one HTTP exchange for the Server it is bound to.
// It is not reused across requests.
type Transport struct {
	log          *slog.Logger
	eng          *engine.Engine
	srv          *mcpservice.Server
	maxBodyBytes int64
}

// NewTransport constructs an unbound Transport.
func NewTransport(opts ...Option) *Transport {
	cfg := newConfig(opts)
	return &Transport{
		log:          cfg.logger,
		eng:          engine.NewEngine(engine.WithLogger(cfg.logger)),
		maxBodyBytes: cfg.maxBodyBytes,
	}
}

// Bind attaches the Server whose registry answers this exchange.
func (t *Transport) Bind(srv *mcpservice.Server) {
	t.srv = srv
}

// Handle serves one HTTP exchange.
func (t *Transport) Handle(w http.ResponseWriter, r *http.Request) {
	if t.srv == nil {
		writeJSONError(w, http.StatusInternalServerError, ErrNotBound.Error())
		t.log.ErrorContext(r.Context(), "transport.unbound")
		return
	}

	switch r.Method {
	case http.MethodPost:
		t.handlePost(w, r)
	default:
		// Stateless mode: no standalone GET stream and no session to DELETE.
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		t.log.InfoContext(r.Context(), "http.method.not_allowed")
	}
}

func (t *Transport) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	t.log.InfoContext(ctx, "http.post.start")

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		t.log.WarnContext(ctx, "content_type.unsupported", slog.String("content_type", r.Header.Get("Content-Type")))
		return
	}

	if acc := r.Header.Get("Accept"); !acceptsBoth(r) {
		writeJSONError(w, http.StatusNotAcceptable, "accept must include application/json and text/event-stream")
		t.log.WarnContext(ctx, "accept.unsupported", slog.String("accept", acc))
		return
	}

	if pv := r.Header.Get(mcpProtocolVersionHeader); pv != "" && !mcp.IsSupportedProtocolVersion(pv) {
		_ = writeRPCError(w, http.StatusBadRequest, jsonrpc.ErrorCodeInvalidRequest, "unsupported protocol version: "+pv)
		t.log.WarnContext(ctx, "protocol.version.unsupported", slog.String("client_version", pv))
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		t.log.ErrorContext(ctx, "flusher.missing")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, t.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			t.log.WarnContext(ctx, "body.too_large", slog.Int64("limit", tooLarge.Limit))
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		t.log.WarnContext(ctx, "body.read.fail", slog.String("err", err.Error()))
		return
	}

	msgs, batch, err := jsonrpc.DecodePayload(body)
	if err != nil {
		decodeErr := &ProtocolDecodeError{Code: jsonrpc.ErrorCodeInvalidRequest, Err: err}
		var de *jsonrpc.DecodeError
		if errors.As(err, &de) {
			decodeErr.Code = de.Code
		}
		msg := "invalid request"
		if decodeErr.Code == jsonrpc.ErrorCodeParseError {
			msg = "parse error"
		}
		if wErr := writeRPCError(w, http.StatusBadRequest, decodeErr.Code, msg); wErr != nil {
			t.log.ErrorContext(ctx, "http.write.fail", slog.String("err", wErr.Error()))
		}
		t.log.WarnContext(ctx, "jsonrpc.decode.fail", slog.Int("code", int(decodeErr.Code)), slog.String("err", decodeErr.Error()))
		return
	}

	requests := 0
	for i := range msgs {
		if msgs[i].Type() == "request" {
			requests++
		}
	}

	if requests == 0 {
		for i := range msgs {
			t.dispatch(ctx, &msgs[i])
		}
		w.WriteHeader(http.StatusAccepted)
		t.log.InfoContext(ctx, "http.post.accepted", slog.Int("messages", len(msgs)), slog.Duration("dur", time.Since(start)))
		return
	}

	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	wf := &lockedWriteFlusher{Writer: w, Flusher: f, ctx: ctx}
	wf.Flush()

	for i := range msgs {
		res := t.dispatch(ctx, &msgs[i])
		if res == nil {
			continue
		}
		b, err := json.Marshal(res)
		if err != nil {
			t.log.ErrorContext(ctx, "rpc.response.marshal.fail", slog.String("err", err.Error()))
			b, _ = json.Marshal(jsonrpc.NewErrorResponse(res.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil))
		}
		if err := writeSSEEvent(wf, b); err != nil {
			t.log.ErrorContext(ctx, "sse.write.fail", slog.String("err", err.Error()))
			return
		}
	}

	t.log.InfoContext(ctx, "http.post.ok", slog.Bool("batch", batch), slog.Int("requests", requests), slog.Duration("dur", time.Since(start)))
}

// dispatch routes one decoded message and returns the response to stream,
// if any. Client responses are accepted and dropped: a stateless server
// never issues requests of its own.
func (t *Transport) dispatch(ctx context.Context, msg *jsonrpc.AnyMessage) *jsonrpc.Response {
	start := time.Now()
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: msg.Method,
		ID:     msg.ID.String(),
		Type:   msg.Type(),
	})

	req := msg.AsRequest()
	if req == nil {
		t.log.InfoContext(ctx, "response.inbound.ignored")
		return nil
	}
	res := t.eng.Dispatch(ctx, t.srv, req)
	if res == nil {
		t.log.InfoContext(ctx, "notification.inbound.ok", slog.Duration("dur", time.Since(start)))
		return nil
	}
	t.log.InfoContext(ctx, "rpc.inbound.ok", slog.Bool("error", res.Error != nil), slog.Duration("dur", time.Since(start)))
	return res
}

// acceptsBoth reports whether the Accept header admits both JSON and SSE. An
// absent header admits neither.
func acceptsBoth(r *http.Request) bool {
	if strings.TrimSpace(r.Header.Get("Accept")) == "" {
		return false
	}
	for _, mt := range []contenttype.MediaType{jsonMediaType, eventStreamMediaType} {
		if _, _, err := contenttype.GetAcceptableMediaType(r, []contenttype.MediaType{mt}); err != nil {
			return false
		}
	}
	return true
}
