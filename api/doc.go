// Package api provides the HTTP REST surface of the relay.
//
// The api package implements:
//   - Hub statistics reporting
//   - Server-initiated broadcasts to the default room
//   - Room inspection and room-targeted delivery
//   - Health checking
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Hub Operations:
//   - GET /stats - Connected client count and active room names
//   - POST /broadcast - Emit a "broadcast" event to the default room
//   - GET /health - Liveness probe
//
// Rooms:
//   - GET /rooms/{room} - List the socket ids currently in a room
//   - POST /rooms/{room}/broadcast - Emit an event to every room member
//
// WebSocket:
//   - /ws - Upgrade to the event-envelope protocol
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Broadcasts are sent as POST with a
// JSON body:
//
//	{
//	  "message": "text delivered as the broadcast payload"
//	}
//
// Room-targeted broadcasts may name an arbitrary event instead:
//
//	{
//	  "event": "announcement",
//	  "data": {"title": "..."}
//	}
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
