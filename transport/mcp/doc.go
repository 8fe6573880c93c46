// Package mcp provides the Model Context Protocol surface of the relay.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for hub inspection and delivery
//   - A thin proxy that calls the REST API rather than the hub directly
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - relay_stats: Connected client count and active room names
//   - broadcast_message: Send a message to every client in the default room
//   - room_members: List the socket ids currently in a room
//   - send_to_room: Emit a named event to every member of a room
//
// Architecture:
//
// The client proxies every tool call through the REST API instead of
// holding a hub reference. This keeps the MCP surface identical to what a
// remote operator could do with curl, and lets it run against any relay
// instance reachable over HTTP.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:3000")
//	httpServer := server.NewStreamableHTTPServer(client.GetMCPServer())
//	router.Handle("/mcp", httpServer)
package mcp
