package websocket

import (
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventHandler is invoked for every inbound envelope matching the event it
// was registered for. Array payloads arrive as positional arguments, bare
// payloads as a single argument.
type EventHandler func(args ...interface{})

// Socket wraps one client connection. It owns its transport handle
// exclusively: all writes go through the socket's send queue, preserving
// per-connection delivery order.
type Socket struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	handlersMu sync.RWMutex
	handlers   map[string][]EventHandler

	closeOnce sync.Once
}

func newSocket(id string, conn *websocket.Conn, hub *Hub) *Socket {
	return &Socket{
		id:       id,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.opts.SendBuffer),
		done:     make(chan struct{}),
		handlers: make(map[string][]EventHandler),
	}
}

// ID returns the connection identifier, unique for the process lifetime.
func (s *Socket) ID() string {
	return s.id
}

// On appends a handler for event. Multiple registrations for the same event
// are all invoked, in registration order. No de-duplication is performed.
func (s *Socket) On(event string, fn EventHandler) {
	s.handlersMu.Lock()
	s.handlers[event] = append(s.handlers[event], fn)
	s.handlersMu.Unlock()
}

// Off removes the first registration of fn for event, matched by function
// pointer. Other handlers for the same event are untouched.
func (s *Socket) Off(event string, fn EventHandler) {
	ptr := reflect.ValueOf(fn).Pointer()
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	list := s.handlers[event]
	for i, h := range list {
		if reflect.ValueOf(h).Pointer() == ptr {
			s.handlers[event] = append(list[:i:i], list[i+1:]...)
			if len(s.handlers[event]) == 0 {
				delete(s.handlers, event)
			}
			return
		}
	}
}

// Emit encodes the event and queues it on this socket's own transport.
// Delivery is best effort: if the connection is closing or the outgoing
// buffer is full, the frame is dropped silently. The only error is an
// unencodable argument.
func (s *Socket) Emit(event string, args ...interface{}) error {
	frame, err := EncodeEnvelope(event, args...)
	if err != nil {
		return err
	}
	s.enqueue(frame)
	return nil
}

// To returns a send-only proxy whose Emit broadcasts to every other member
// of room. The sender never receives its own room-scoped emits.
func (s *Socket) To(room string) *RoomEmitter {
	return &RoomEmitter{hub: s.hub, room: room, exclude: s.id}
}

// Join adds this socket to room. Joining does not leave other rooms.
func (s *Socket) Join(room string) {
	s.hub.join(s.id, room)
}

// Leave removes this socket from room. Leaving a room it never joined is a
// no-op.
func (s *Socket) Leave(room string) {
	s.hub.leave(s.id, room)
}

// Rooms returns a snapshot of the rooms this socket currently belongs to.
func (s *Socket) Rooms() []string {
	return s.hub.RoomsOf(s.id)
}

// Close disconnects the socket server-side. Safe to call more than once.
func (s *Socket) Close() {
	s.shutdown("server disconnect")
}

// RoomEmitter is the room-scoped send proxy returned by Socket.To.
type RoomEmitter struct {
	hub     *Hub
	room    string
	exclude string
}

// Emit broadcasts the event to every current member of the room except the
// originating socket. An empty or unknown room is a silent no-op.
func (re *RoomEmitter) Emit(event string, args ...interface{}) error {
	frame, err := EncodeEnvelope(event, args...)
	if err != nil {
		return err
	}
	re.hub.broadcastFrame(re.room, re.exclude, frame)
	return nil
}

// enqueue pushes a frame onto the send queue without blocking. Frames are
// dropped when the buffer is full or the socket is closing.
func (s *Socket) enqueue(frame []byte) {
	select {
	case s.send <- frame:
	default:
	}
}

// dispatch invokes every handler registered for the envelope's event, in
// registration order, synchronously on the caller's goroutine. Events with
// no registered handler are ignored.
func (s *Socket) dispatch(env *Envelope) {
	s.handlersMu.RLock()
	handlers := append([]EventHandler(nil), s.handlers[env.Event]...)
	s.handlersMu.RUnlock()

	args := env.Args()
	for _, fn := range handlers {
		fn(args...)
	}
}

// shutdown moves the socket from Open to Closed exactly once: disconnect
// handlers fire first (so they may still address the socket's rooms), then
// the id is removed from every room and the registry. Later triggers are
// no-ops.
func (s *Socket) shutdown(reason string) {
	s.closeOnce.Do(func() {
		s.dispatch(&Envelope{Event: "disconnect", Data: reason})
		s.hub.remove(s.id)
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// readPump pumps frames from the connection into handler dispatch. It exits,
// and triggers the socket's close transition, when the transport errors or
// closes.
func (s *Socket) readPump() {
	defer s.shutdown("transport closed")

	s.conn.SetReadLimit(s.hub.opts.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.hub.opts.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.hub.opts.PongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("socket %s: read error: %v", s.id, err)
			}
			return
		}
		s.hub.HandleMessage(s, raw)
	}
}

// writePump drains the send queue to the connection and keeps it alive with
// periodic pings. Queued frames behind the first are folded into the same
// write, newline separated.
func (s *Socket) writePump() {
	ticker := time.NewTicker(s.hub.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.opts.WriteWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.opts.WriteWait))
			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(frame)

			n := len(s.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-s.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.opts.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
