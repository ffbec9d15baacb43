// Package mcpservice holds the server-side building blocks that sit behind the
// streamable HTTP transport: a Registry of named tools, the typed tool
// constructor used to populate it and the Server aggregate that pairs a
// Registry with implementation info and advertised capabilities.
//
// Quick start:
//
//	type EchoArgs struct {
//	    Message string `json:"message"`
//	}
//
//	reg := mcpservice.NewRegistry()
//	err := reg.Register(mcpservice.NewTool[EchoArgs]("echo",
//	    func(ctx context.Context, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[EchoArgs]) error {
//	        return w.AppendText("you said: " + r.Args().Message)
//	    },
//	    mcpservice.WithToolDescription("Echo a message back to the caller"),
//	))
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithTools(reg),
//	)
//
// A Server is cheap to build. The HTTP router constructs a fresh one for
// every exchange through a ServerFactory, so nothing registered during one
// exchange is visible to another.
//
// Tool input is validated against a JSON schema derived from the argument
// struct before the handler runs. Handlers report failures either by
// returning an error or by marking the result with SetError; a returned error
// or a panic surfaces from Registry.Invoke as a *ToolExecutionError.
package mcpservice
