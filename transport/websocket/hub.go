package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	defaultWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	defaultPongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	defaultMaxMessageSize = 4096

	// Per-socket outgoing frame buffer depth.
	defaultSendBuffer = 256

	// DefaultRoom is the room every connection joins at registration.
	DefaultRoom = "general"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; apply origin policy at the reverse proxy.
		return true
	},
}

// Options tunes hub and per-socket behavior. Zero values fall back to the
// package defaults.
type Options struct {
	DefaultRoom    string
	MaxMessageSize int64
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
}

func (o *Options) sanitize() {
	if o.DefaultRoom == "" {
		o.DefaultRoom = DefaultRoom
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
}

// pingPeriod is how often the write pump pings the peer. Must be less than
// PongWait.
func (o *Options) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

// Stats is the hub snapshot reported to the REST layer.
type Stats struct {
	ConnectedClients int      `json:"connectedClients"`
	Rooms            []string `json:"rooms"`
}

// ConnectionHandler is invoked once per newly registered socket.
type ConnectionHandler func(*Socket)

// Hub owns the connection registry and the room index. A single mutex guards
// both, since membership consistency spans the two structures. Broadcasts
// snapshot their targets under the lock and write outside it, so one stalled
// connection never blocks unrelated join/leave/register traffic.
type Hub struct {
	opts Options

	mu      sync.Mutex
	sockets map[string]*Socket
	rooms   *roomIndex
	hooks   []ConnectionHandler

	wg sync.WaitGroup
}

// NewHub creates a hub ready to accept connections.
func NewHub(opts Options) *Hub {
	opts.sanitize()
	return &Hub{
		opts:    opts,
		sockets: make(map[string]*Socket),
		rooms:   newRoomIndex(),
	}
}

// OnConnection registers a hook fired once for every new socket, before its
// pumps start. The application layer uses it to install event handlers.
func (h *Hub) OnConnection(fn ConnectionHandler) {
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// DefaultRoom returns the room every connection is auto-joined to.
func (h *Hub) DefaultRoom() string {
	return h.opts.DefaultRoom
}

// ServeWS upgrades the HTTP request and hands the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	h.HandleOpen(conn)
}

// HandleOpen registers a fresh socket for conn: it assigns an identifier,
// auto-joins the default room, fires the connection hooks, and starts the
// read/write pumps. Returns the new handle.
func (h *Hub) HandleOpen(conn *websocket.Conn) *Socket {
	s := newSocket(uuid.NewString(), conn, h)
	h.attach(s)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		s.writePump()
	}()
	go func() {
		defer h.wg.Done()
		s.readPump()
	}()

	return s
}

// attach registers the socket, auto-joins the default room, and fires the
// connection hooks. Split from HandleOpen so tests can register sockets
// without a live transport.
func (h *Hub) attach(s *Socket) {
	h.mu.Lock()
	h.sockets[s.id] = s
	h.rooms.add(s.id, h.opts.DefaultRoom)
	hooks := append([]ConnectionHandler(nil), h.hooks...)
	total := len(h.sockets)
	h.mu.Unlock()

	log.Printf("socket %s connected (total clients: %d)", s.id, total)

	for _, fn := range hooks {
		fn(s)
	}
}

// HandleMessage decodes one raw inbound frame for s and dispatches it.
// Malformed frames are logged and dropped; the connection stays open.
func (h *Hub) HandleMessage(s *Socket, raw []byte) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		log.Printf("socket %s: dropping frame: %v", s.id, err)
		return
	}
	s.dispatch(env)
}

// HandleClose disconnects the socket with the given id. A second close for
// the same id, or an id that was never registered, is a no-op: the disconnect
// notification fires at most once per connection lifetime.
func (h *Hub) HandleClose(id string) {
	if s, ok := h.Lookup(id); ok {
		s.shutdown("transport closed")
	}
}

// Lookup returns the socket registered under id.
func (h *Hub) Lookup(id string) (*Socket, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sockets[id]
	return s, ok
}

// Sockets returns a snapshot of every live socket.
func (h *Hub) Sockets() []*Socket {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Socket, 0, len(h.sockets))
	for _, s := range h.sockets {
		out = append(out, s)
	}
	return out
}

// EmitTo sends an event directly to the socket registered under id. It
// reports false when id is unknown; an absent target is a normal condition,
// never an error.
func (h *Hub) EmitTo(id, event string, args ...interface{}) bool {
	s, ok := h.Lookup(id)
	if !ok {
		return false
	}
	s.Emit(event, args...)
	return true
}

// Broadcast delivers the event to every current member of room except
// excludeID (pass "" to exclude no one). Unknown and empty rooms are silent
// no-ops. Returns the number of targeted members.
func (h *Hub) Broadcast(room, excludeID, event string, args ...interface{}) int {
	frame, err := EncodeEnvelope(event, args...)
	if err != nil {
		log.Printf("broadcast to %s: %v", room, err)
		return 0
	}
	return h.broadcastFrame(room, excludeID, frame)
}

// BroadcastAll delivers message under the "broadcast" event to every member
// of the default room, excluding no one. Returns the number of targets.
func (h *Hub) BroadcastAll(message string) int {
	return h.Broadcast(h.opts.DefaultRoom, "", "broadcast", message)
}

// MembersOf returns a snapshot of the socket ids currently in room.
func (h *Hub) MembersOf(room string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.members(room)
}

// RoomsOf returns a snapshot of the rooms the socket id has joined.
func (h *Hub) RoomsOf(id string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.roomsOf(id)
}

// Stats reports the number of live connections and every room with at least
// one member. The room list is sorted and never nil.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		ConnectedClients: len(h.sockets),
		Rooms:            h.rooms.names(),
	}
}

// Shutdown disconnects every socket and waits for their pumps to finish, or
// until ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	for _, s := range h.Sockets() {
		s.shutdown("server shutdown")
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// broadcastFrame fans an encoded frame out to the room's members. The target
// list is snapshotted under the lock; writes happen after it is released.
func (h *Hub) broadcastFrame(room, excludeID string, frame []byte) int {
	h.mu.Lock()
	targets := make([]*Socket, 0, len(h.rooms.rooms[room]))
	for id := range h.rooms.rooms[room] {
		if id == excludeID {
			continue
		}
		if s, ok := h.sockets[id]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.enqueue(frame)
	}
	return len(targets)
}

// join adds id to room, provided the socket is still registered. Joining
// after disconnect would leave dangling membership, so it is refused.
func (h *Hub) join(id, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sockets[id]; !ok {
		return
	}
	h.rooms.add(id, room)
}

// leave removes id from room. Unknown pairs are no-ops.
func (h *Hub) leave(id, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms.remove(id, room)
}

// remove deletes id from the registry and from every room it joined.
// Removing an absent id is a no-op.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sockets[id]; !ok {
		return
	}
	delete(h.sockets, id)
	h.rooms.removeAll(id)
	log.Printf("socket %s disconnected (total clients: %d)", id, len(h.sockets))
}
