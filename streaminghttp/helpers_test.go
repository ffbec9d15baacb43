package streaminghttp_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ggoodman/device-info-mcp/internal/jsonrpc"
	"github.com/ggoodman/device-info-mcp/mcp"
	"github.com/ggoodman/device-info-mcp/mcpservice"
	"github.com/ggoodman/device-info-mcp/streaminghttp"
)

type noArgs struct{}

// logBridge is an implementation of slog.Handler that works
// with the stdlib testing pkg.
type logBridge struct {
	slog.Handler
	t   testing.TB
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (b *logBridge) Handle(ctx context.Context, rec slog.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.Handler.Handle(ctx, rec); err != nil {
		return err
	}
	output, err := io.ReadAll(b.buf)
	if err != nil {
		return err
	}
	b.t.Helper()
	b.t.Log(string(bytes.TrimSuffix(output, []byte("\n"))))
	return nil
}

func (b *logBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logBridge{t: b.t, buf: b.buf, mu: b.mu, Handler: b.Handler.WithAttrs(attrs)}
}

func (b *logBridge) WithGroup(name string) slog.Handler {
	return &logBridge{t: b.t, buf: b.buf, mu: b.mu, Handler: b.Handler.WithGroup(name)}
}

func testLogger(t *testing.T) *slog.Logger {
	buf := &bytes.Buffer{}
	return slog.New(&logBridge{
		t:       t,
		buf:     buf,
		mu:      &sync.Mutex{},
		Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

// testFactory builds a fresh server per exchange exposing a "hello" tool and
// a "counter" tool whose state lives in the exchange's own registry.
func testFactory(ctx context.Context) (*mcpservice.Server, error) {
	calls := 0
	reg := mcpservice.NewRegistry(
		mcpservice.NewTool[noArgs]("hello", func(ctx context.Context, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[noArgs]) error {
			return w.AppendText("hello world")
		}, mcpservice.WithToolDescription("says hello")),
		mcpservice.NewTool[noArgs]("counter", func(ctx context.Context, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[noArgs]) error {
			calls++
			return w.AppendText(strings.Repeat("x", calls))
		}),
	)
	return mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "device-info", Version: "1.0.0"}),
		mcpservice.WithTools(reg),
	), nil
}

func mustServer(t *testing.T, factory mcpservice.ServerFactory, opts ...streaminghttp.Option) *httptest.Server {
	t.Helper()
	opts = append([]streaminghttp.Option{streaminghttp.WithLogger(testLogger(t))}, opts...)
	srv := httptest.NewServer(streaminghttp.NewRouter("/mcp", factory, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func rpcRequest(id any, method string, params any) *jsonrpc.Request {
	req := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: method}
	if id != nil {
		req.ID = jsonrpc.NewRequestID(id)
	}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			panic(err)
		}
		req.Params = b
	}
	return req
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// doPost performs a POST with the headers a conforming client sends.
// Entries in headers override the defaults; an empty value removes the header.
func doPost(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type sseEvent struct {
	event string
	data  json.RawMessage
}

// readSSE reads events until the stream ends.
func readSSE(t *testing.T, r io.Reader) []sseEvent {
	t.Helper()
	var (
		events  []sseEvent
		current sseEvent
		dataBuf bytes.Buffer
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if dataBuf.Len() > 0 {
				current.data = append([]byte(nil), dataBuf.Bytes()...)
				events = append(events, current)
			}
			current = sseEvent{}
			dataBuf.Reset()
		case strings.HasPrefix(line, "event: "):
			current.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("read sse: %v", err)
	}
	return events
}

func mustUnmarshalJSON[T any](t *testing.T, data []byte, v *T) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal json: %v\ninput: %s", err, string(data))
	}
}

func mustReadBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}
