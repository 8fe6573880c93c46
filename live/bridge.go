package live

import (
	"context"
	"log"
	"sync"
)

// eventPrefix namespaces re-emitted source events on client sockets, so the
// upstream's "chat" arrives as "tiktok-chat".
const eventPrefix = "tiktok-"

// EmitFunc delivers one re-emitted event to a subscribed connection. It must
// not block; the hub's send queues already drop on overflow.
type EmitFunc func(event string, data interface{})

// Bridge fans external live streams out to subscribed connections.
//
// One upstream stream is shared per username, reference counted: it is opened
// lazily on the first subscription and torn down when the last subscriber
// leaves. Subscriptions are keyed (username, connection id), so repeating a
// bridging request is a no-op rather than stacking listeners, and DropSocket
// guarantees every subscription dies with its connection.
type Bridge struct {
	connector Connector
	backoff   BackoffConfig

	mu        sync.Mutex
	upstreams map[string]*upstream
	closed    bool
}

type upstream struct {
	cancel context.CancelFunc
	subs   map[string]EmitFunc
}

// NewBridge creates a bridge over the given connector.
func NewBridge(connector Connector, bo BackoffConfig) *Bridge {
	bo.sanitize()
	return &Bridge{
		connector: connector,
		backoff:   bo,
		upstreams: make(map[string]*upstream),
	}
}

// Subscribe routes username's live events to the connection identified by
// socketID via emit. The first subscriber for a username opens the shared
// upstream stream; an existing (username, socketID) pair is a no-op.
func (b *Bridge) Subscribe(username, socketID string, emit EmitFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	u := b.upstreams[username]
	if u == nil {
		ctx, cancel := context.WithCancel(context.Background())
		u = &upstream{
			cancel: cancel,
			subs:   make(map[string]EmitFunc),
		}
		b.upstreams[username] = u
		go runWithReconnect(ctx, b.connector, username, b.backoff, func(ev Event) {
			b.fanout(username, ev)
		})
		log.Printf("live: opening shared stream for %s", username)
	}

	if _, exists := u.subs[socketID]; exists {
		return
	}
	u.subs[socketID] = emit
}

// Unsubscribe removes one (username, socketID) subscription. The shared
// upstream closes when its last subscriber leaves. Unknown pairs are no-ops.
func (b *Bridge) Unsubscribe(username, socketID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropLocked(username, socketID)
}

// DropSocket removes every subscription held by the connection. Called from
// the socket's disconnect handler.
func (b *Bridge) DropSocket(socketID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for username, u := range b.upstreams {
		if _, ok := u.subs[socketID]; ok {
			b.dropLocked(username, socketID)
		}
	}
}

// Subscribers returns the subscription count for username.
func (b *Bridge) Subscribers(username string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u := b.upstreams[username]; u != nil {
		return len(u.subs)
	}
	return 0
}

// Active returns the usernames with an open shared stream.
func (b *Bridge) Active() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.upstreams))
	for username := range b.upstreams {
		names = append(names, username)
	}
	return names
}

// Close tears down every shared stream and rejects further subscriptions.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for username, u := range b.upstreams {
		u.cancel()
		delete(b.upstreams, username)
	}
}

func (b *Bridge) dropLocked(username, socketID string) {
	u := b.upstreams[username]
	if u == nil {
		return
	}
	delete(u.subs, socketID)
	if len(u.subs) == 0 {
		u.cancel()
		delete(b.upstreams, username)
		log.Printf("live: closing shared stream for %s (no subscribers)", username)
	}
}

// fanout re-emits one source event to every current subscriber. The
// subscriber snapshot is taken under the lock; emits happen outside it.
func (b *Bridge) fanout(username string, ev Event) {
	b.mu.Lock()
	u := b.upstreams[username]
	var emits []EmitFunc
	if u != nil {
		emits = make([]EmitFunc, 0, len(u.subs))
		for _, emit := range u.subs {
			emits = append(emits, emit)
		}
	}
	b.mu.Unlock()

	for _, emit := range emits {
		emit(eventPrefix+ev.Name, ev.Data)
	}
}
