// Package relay installs the application-level event handlers on every hub
// connection: chat echo/broadcast, room membership, private messages, and
// bridging requests toward the external live-event source.
package relay

import (
	"fmt"

	"github.com/nglmercer/tiktok-apirest/live"
	ws "github.com/nglmercer/tiktok-apirest/transport/websocket"
)

// Install wires the connection hook that equips each new socket with the
// relay's event handlers. A nil bridge disables the live-source events; they
// answer with an error envelope instead.
func Install(hub *ws.Hub, bridge *live.Bridge) {
	hub.OnConnection(func(s *ws.Socket) {
		installChat(hub, s)
		installRooms(hub, s)
		installLive(bridge, s)
	})
}

func installChat(hub *ws.Hub, s *ws.Socket) {
	s.On("message", func(args ...interface{}) {
		msg, ok := firstString(args)
		if !ok {
			sendError(s, "message requires a text payload")
			return
		}
		s.Emit("echo", msg)
		s.To(hub.DefaultRoom()).Emit("broadcast", map[string]interface{}{
			"from":    s.ID(),
			"message": msg,
		})
	})

	s.On("private-message", func(args ...interface{}) {
		payload, ok := firstObject(args)
		if !ok {
			sendError(s, "private-message requires {to, message}")
			return
		}
		to, _ := payload["to"].(string)
		msg, _ := payload["message"].(string)
		if to == "" {
			sendError(s, "private-message requires a target id")
			return
		}
		delivered := hub.EmitTo(to, "private-message", map[string]interface{}{
			"from":    s.ID(),
			"message": msg,
		})
		if !delivered {
			sendError(s, fmt.Sprintf("unknown client: %s", to))
		}
	})
}

func installRooms(hub *ws.Hub, s *ws.Socket) {
	s.On("join-room", func(args ...interface{}) {
		room, ok := firstString(args)
		if !ok {
			sendError(s, "join-room requires a room name")
			return
		}
		s.Join(room)
		s.Emit("joined", map[string]interface{}{"room": room})
		s.To(room).Emit("user-joined", map[string]interface{}{
			"id":   s.ID(),
			"room": room,
		})
	})

	s.On("leave-room", func(args ...interface{}) {
		room, ok := firstString(args)
		if !ok {
			sendError(s, "leave-room requires a room name")
			return
		}
		s.Leave(room)
		s.To(room).Emit("user-left", map[string]interface{}{
			"id":   s.ID(),
			"room": room,
		})
	})

	s.On("disconnect", func(args ...interface{}) {
		s.To(hub.DefaultRoom()).Emit("user-left", map[string]interface{}{
			"id": s.ID(),
		})
	})
}

func installLive(bridge *live.Bridge, s *ws.Socket) {
	s.On("tiktok-connect", func(args ...interface{}) {
		username, ok := firstString(args)
		if !ok {
			sendError(s, "tiktok-connect requires a username")
			return
		}
		if bridge == nil {
			sendError(s, "live source unavailable")
			return
		}
		bridge.Subscribe(username, s.ID(), func(event string, data interface{}) {
			s.Emit(event, data)
		})
	})

	s.On("tiktok-disconnect", func(args ...interface{}) {
		username, ok := firstString(args)
		if !ok || bridge == nil {
			return
		}
		bridge.Unsubscribe(username, s.ID())
	})

	s.On("disconnect", func(args ...interface{}) {
		if bridge != nil {
			bridge.DropSocket(s.ID())
		}
	})
}

func sendError(s *ws.Socket, msg string) {
	s.Emit("error", map[string]interface{}{"message": msg})
}

// firstString extracts a string payload from the dispatch arguments.
func firstString(args []interface{}) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	v, ok := args[0].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// firstObject extracts an object payload from the dispatch arguments.
func firstObject(args []interface{}) (map[string]interface{}, bool) {
	if len(args) == 0 {
		return nil, false
	}
	v, ok := args[0].(map[string]interface{})
	return v, ok
}
