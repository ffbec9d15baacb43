package mcpservice

import (
	"context"

	"github.com/ggoodman/device-info-mcp/mcp"
)

// ServerFactory builds the Server that answers one HTTP exchange. The router
// calls it once per request.
type ServerFactory func(ctx context.Context) (*Server, error)

// ServerOption configures a Server.
type ServerOption func(*Server)

// Server aggregates what a single exchange needs to answer protocol
// requests: implementation info, the advertised capability set and the tool
// Registry.
type Server struct {
	info         mcp.ImplementationInfo
	instructions string
	tools        *Registry
}

// NewServer builds a Server using functional options. A Server built without
// WithTools carries an empty Registry.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.tools == nil {
		s.tools = NewRegistry()
	}
	return s
}

// WithServerInfo sets the implementation info returned during initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *Server) { s.info = info }
}

// WithInstructions sets human-readable instructions returned during initialize.
func WithInstructions(instr string) ServerOption {
	return func(s *Server) { s.instructions = instr }
}

// WithTools wires the tool Registry served by this Server.
func WithTools(reg *Registry) ServerOption {
	return func(s *Server) { s.tools = reg }
}

// Info returns the implementation info.
func (s *Server) Info() mcp.ImplementationInfo { return s.info }

// Instructions returns the configured instructions, if any.
func (s *Server) Instructions() string { return s.instructions }

// Tools returns the Server's tool Registry.
func (s *Server) Tools() *Registry { return s.tools }

// Capabilities returns the capability set advertised during initialize. The
// tools capability is always present; the tool set never changes within an
// exchange so listChanged is not advertised.
func (s *Server) Capabilities() mcp.ServerCapabilities {
	return mcp.ServerCapabilities{Tools: &mcp.ToolsCapability{}}
}
