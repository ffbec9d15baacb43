package streaminghttp

import (
	"log/slog"
	"net/http"

	"github.com/ggoodman/device-info-mcp/internal/logctx"
	"github.com/ggoodman/device-info-mcp/mcpservice"
	"github.com/google/uuid"
)

var _ http.Handler = (*Router)(nil)

// Router serves the MCP endpoint at a single path. Every matching request
// gets its own Server from the factory and its own Transport.
type Router struct {
	path    string
	factory mcpservice.ServerFactory
	opts    []Option
	log     *slog.Logger
}

// NewRouter builds a Router for path. Options are applied to the Router and
// to every Transport it creates.
func NewRouter(path string, factory mcpservice.ServerFactory, opts ...Option) *Router {
	cfg := newConfig(opts)
	return &Router{
		path:    path,
		factory: factory,
		opts:    opts,
		log:     cfg.logger,
	}
}

// Path returns the endpoint path the Router serves.
func (rt *Router) Path() string { return rt.path }

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})
	r = r.WithContext(ctx)

	if r.URL.Path != rt.path {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not found — MCP endpoint is at " + rt.path))
		rt.log.DebugContext(ctx, "http.route.miss")
		return
	}

	srv, err := rt.factory(ctx)
	if err != nil || srv == nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to create server")
		if err != nil {
			rt.log.ErrorContext(ctx, "server.create.fail", slog.String("err", err.Error()))
		} else {
			rt.log.ErrorContext(ctx, "server.create.fail", slog.String("err", "factory returned nil server"))
		}
		return
	}

	t := NewTransport(rt.opts...)
	t.Bind(srv)
	t.Handle(w, r)
}
