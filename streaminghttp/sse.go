package streaminghttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/ggoodman/device-info-mcp/internal/jsonrpc"
)

// lockedWriteFlusher wraps an io.Writer + http.Flusher with a mutex and an optional context.
// It serializes writes/flushes and avoids writing after ctx is canceled.
type lockedWriteFlusher struct {
	io.Writer
	http.Flusher
	mu  sync.Mutex
	ctx context.Context
}

func (l *lockedWriteFlusher) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx != nil && l.ctx.Err() != nil {
		return 0, l.ctx.Err()
	}
	return l.Writer.Write(p)
}

func (l *lockedWriteFlusher) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx != nil && l.ctx.Err() != nil {
		return
	}
	l.Flusher.Flush()
}

// writeSSEEvent writes one "message" event carrying payload as its data
// field and flushes it to the client.
func writeSSEEvent(wf *lockedWriteFlusher, payload []byte) error {
	if _, err := wf.Write([]byte("event: message\ndata: ")); err != nil {
		return &TransportWriteError{Op: "event prefix", Err: err}
	}
	if _, err := wf.Write(payload); err != nil {
		return &TransportWriteError{Op: "event payload", Err: err}
	}
	if _, err := wf.Write([]byte("\n\n")); err != nil {
		return &TransportWriteError{Op: "event terminator", Err: err}
	}
	wf.Flush()
	return nil
}

// writeJSONError emits a minimal JSON body for HTTP-layer rejections before a JSON-RPC
// message exchange is possible. Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// writeRPCError answers with a bare JSON-RPC error object whose id is null,
// for payloads rejected before any request id could be trusted.
func writeRPCError(w http.ResponseWriter, status int, code jsonrpc.ErrorCode, msg string) error {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(nil, code, msg, nil)); err != nil {
		return &TransportWriteError{Op: "error body", Err: err}
	}
	return nil
}
