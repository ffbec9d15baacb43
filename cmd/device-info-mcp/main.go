// Command device-info-mcp serves the device information tools over the MCP
// streamable HTTP transport at /mcp.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ggoodman/device-info-mcp/devicetools"
	"github.com/ggoodman/device-info-mcp/internal/config"
	"github.com/ggoodman/device-info-mcp/streaminghttp"
)

const (
	endpointPath    = "/mcp"
	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "device-info-mcp: %v\n", err)
		os.Exit(1)
	}
}

// run serves until ctx is done, then drains in-flight exchanges.
func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := cfg.NewLogger(stderr)

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	deps := devicetools.SystemDeps()
	deps.Logger = log
	router := streaminghttp.NewRouter(endpointPath, devicetools.NewServerFactory(deps), streaminghttp.WithLogger(log))
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	writeBanner(stdout, port, router.Path(), devicetools.Summaries())
	log.InfoContext(ctx, "server.listen.ok", slog.String("addr", ln.Addr().String()), slog.String("path", router.Path()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.InfoContext(context.Background(), "server.shutdown.start")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.InfoContext(context.Background(), "server.shutdown.ok")
		return nil
	})
	return g.Wait()
}

func writeBanner(w io.Writer, port int, path string, tools []devicetools.Summary) {
	url := fmt.Sprintf("http://localhost:%d%s", port, path)
	fmt.Fprintf(w, "Device Info MCP server running at %s\n", url)
	fmt.Fprintf(w, "\nTools available:\n")
	for _, t := range tools {
		fmt.Fprintf(w, "  - %-19s%s\n", t.Name, t.Summary)
	}
	fmt.Fprintf(w, "\nNext step — in another terminal, run:\n\n")
	fmt.Fprintf(w, "  npx poke tunnel %s --name \"Device Info\"\n\n", url)
}
