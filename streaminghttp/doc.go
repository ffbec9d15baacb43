// Package streaminghttp implements the MCP streamable HTTP transport in
// stateless mode and the router that mounts it on a single endpoint path.
//
// Responsibilities
//   - Endpoint routing: only the configured path (any query string) reaches
//     the transport; everything else receives a fixed plain-text 404.
//   - Exchange isolation: the Router asks a mcpservice.ServerFactory for a
//     fresh Server and binds it to a fresh Transport for every request.
//   - Request validation: POST only, application/json bodies, an Accept
//     header admitting JSON and event streams, a supported
//     Mcp-Protocol-Version header when one is sent.
//   - Framing: JSON-RPC single messages and batches in, one Server-Sent
//     Event per request response out, in request order.
//
// Construction
//
//	factory := func(ctx context.Context) (*mcpservice.Server, error) {
//	    reg := mcpservice.NewRegistry()
//	    // register tools...
//	    return mcpservice.NewServer(mcpservice.WithTools(reg)), nil
//	}
//	router := streaminghttp.NewRouter("/mcp", factory, streaminghttp.WithLogger(log))
//	http.ListenAndServe(":8787", router)
//
// # Statelessness
//
// No Mcp-Session-Id header is issued or required. Every exchange may carry an
// initialize request, and tools/list or tools/call are answered without a
// prior handshake. GET and DELETE are rejected with 405 because there is no
// standalone stream to open and no session to terminate.
//
// # Errors
//
// Undecodable payloads are answered with HTTP 400 and a JSON-RPC error
// object whose id is null; the cause is logged as a *ProtocolDecodeError.
// Once the event stream has started, a failed write ends the exchange and is
// logged as a *TransportWriteError. Neither affects other exchanges.
package streaminghttp
