// Package mcp contains the Model Context Protocol data types used by the
// device-info server. It mirrors the wire representation of the subset of the
// protocol the server speaks (initialize, ping, tools/list, tools/call) while
// keeping the surface Go-friendly: exported structs with json tags and string
// constants for method names.
//
// The package is free of transport logic. The streaminghttp transport and the
// internal engine import these types but own framing and dispatch; tool code
// in mcpservice and devicetools builds results from them.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes.
//
// # Protocol Versions
//
// SupportedProtocolVersions lists every protocol date the server accepts,
// newest first. NegotiateProtocolVersion picks the client's requested version
// when supported and otherwise falls back to LatestProtocolVersion.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
package mcp
