package streaminghttp_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/ggoodman/device-info-mcp/internal/jsonrpc"
	"github.com/ggoodman/device-info-mcp/mcp"
	"github.com/ggoodman/device-info-mcp/mcpservice"
	"github.com/ggoodman/device-info-mcp/streaminghttp"
)

func TestRouter_Path(t *testing.T) {
	for _, path := range []string{"/mcp", "/api/mcp"} {
		if got := streaminghttp.NewRouter(path, testFactory).Path(); got != path {
			t.Fatalf("expected path %q, got %q", path, got)
		}
	}
}

func TestRouter_Routing(t *testing.T) {
	srv := mustServer(t, testFactory)
	ping := mustJSON(rpcRequest(1, "ping", nil))

	cases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "endpoint", method: http.MethodPost, path: "/mcp", wantStatus: http.StatusOK},
		{name: "endpoint with query", method: http.MethodPost, path: "/mcp?token=abc&x=1", wantStatus: http.StatusOK},
		{name: "root", method: http.MethodPost, path: "/", wantStatus: http.StatusNotFound},
		{name: "trailing slash", method: http.MethodPost, path: "/mcp/", wantStatus: http.StatusNotFound},
		{name: "prefix match", method: http.MethodPost, path: "/mcp2", wantStatus: http.StatusNotFound},
		{name: "nested", method: http.MethodPost, path: "/api/mcp", wantStatus: http.StatusNotFound},
		{name: "get elsewhere", method: http.MethodGet, path: "/health", wantStatus: http.StatusNotFound},
		{name: "get endpoint", method: http.MethodGet, path: "/mcp", wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(ping))
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
			if tc.wantStatus != http.StatusNotFound {
				return
			}
			if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
				t.Fatalf("unexpected content type %q", ct)
			}
			if body := string(mustReadBody(t, resp)); body != "Not found — MCP endpoint is at /mcp" {
				t.Fatalf("unexpected body %q", body)
			}
		})
	}
}

func TestRouter_FactoryError(t *testing.T) {
	srv := mustServer(t, func(ctx context.Context) (*mcpservice.Server, error) {
		return nil, errors.New("no host info")
	})

	resp := doPost(t, srv.URL+"/mcp", mustJSON(rpcRequest(1, "ping", nil)), nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestRouter_FactoryNotCalledOffEndpoint(t *testing.T) {
	calls := 0
	srv := mustServer(t, func(ctx context.Context) (*mcpservice.Server, error) {
		calls++
		return testFactory(ctx)
	})

	resp := doPost(t, srv.URL+"/elsewhere", mustJSON(rpcRequest(1, "ping", nil)), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if calls != 0 {
		t.Fatalf("expected factory not to run, ran %d times", calls)
	}
}

func TestRouter_IsolatesConcurrentExchanges(t *testing.T) {
	var (
		mu      sync.Mutex
		servers = map[*mcpservice.Server]struct{}{}
		regs    = map[*mcpservice.Registry]struct{}{}
	)
	srv := mustServer(t, func(ctx context.Context) (*mcpservice.Server, error) {
		s, err := testFactory(ctx)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		servers[s] = struct{}{}
		regs[s.Tools()] = struct{}{}
		mu.Unlock()
		return s, nil
	})

	const n = 16
	var wg sync.WaitGroup
	bodies := make([][]byte, n)
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each exchange calls the stateful counter tool twice in a batch;
			// a shared registry would leak counts across exchanges.
			body := "[" + mustJSON(rpcRequest(1, "tools/call", map[string]any{"name": "counter"})) + "," +
				mustJSON(rpcRequest(2, "tools/call", map[string]any{"name": "counter"})) + "]"
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			bodies[i], err = io.ReadAll(resp.Body)
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("request failed: %v", err)
	}

	for i, body := range bodies {
		var texts []string
		for _, evt := range readSSE(t, bytes.NewReader(body)) {
			var res jsonrpc.Response
			mustUnmarshalJSON(t, evt.data, &res)
			var call mcp.CallToolResult
			mustUnmarshalJSON(t, res.Result, &call)
			texts = append(texts, call.Content[0].Text)
		}
		if got := strings.Join(texts, ","); got != "x,xx" {
			t.Fatalf("exchange %d: expected x,xx, got %q", i, got)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(servers) != n || len(regs) != n {
		t.Fatalf("expected %d distinct servers and registries, got %d and %d", n, len(servers), len(regs))
	}
}
