// Package websocket implements the connection/room hub at the core of the
// relay.
//
// The package implements:
//   - The wire envelope codec ({event, data} JSON frames)
//   - A process-wide connection registry keyed by socket id
//   - Room membership with implicit room creation and cleanup
//   - Per-socket event handler registration and dispatch
//   - Direct, addressed, and room-scoped delivery
//
// Architecture:
//
// The package uses a hub-and-spoke model. The Hub owns the registry and the
// room index behind a single mutex; every Socket owns its transport handle
// exclusively and serializes writes through a buffered send queue drained by
// a dedicated write pump.
//
// Delivery semantics:
//
// Frames queued on one socket are delivered in emit order (FIFO per
// connection). Broadcasts snapshot the room's membership under the lock and
// write outside it, so a connection that joins mid-broadcast may or may not
// receive that particular frame. Delivery is best effort: frames addressed
// to a closing connection, or queued behind a full buffer, are dropped.
//
// Connection lifecycle:
//
//  1. The HTTP layer upgrades and calls Hub.HandleOpen
//  2. The socket is registered, auto-joined to the default room, and the
//     connection hooks run
//  3. Inbound frames are decoded and dispatched to registered handlers
//  4. The first transport close or error fires the socket's "disconnect"
//     handlers exactly once, then removes it from all rooms and the registry
//
// Concurrency:
//
// All hub operations are safe for concurrent use. Registry and room
// mutations are fast in-memory operations; blocking is confined to the
// transport write path.
package websocket
