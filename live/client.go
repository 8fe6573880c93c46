package live

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
)

const (
	defaultBackoffMin = time.Second
	defaultBackoffMax = 30 * time.Second

	streamBuffer = 32
)

// BackoffConfig bounds the redial delay after a stream failure.
type BackoffConfig struct {
	Min time.Duration
	Max time.Duration
}

func (b *BackoffConfig) sanitize() {
	if b.Min <= 0 {
		b.Min = defaultBackoffMin
	}
	if b.Max < b.Min {
		b.Max = defaultBackoffMax
	}
}

// WebsocketConnector opens live streams by dialing an upstream event gateway
// over WebSocket. The endpoint is a template with one %s verb for the
// username, e.g. "wss://gateway.example.com/live/%s". Frames on the upstream
// connection carry the same {event, data} shape as the relay's own envelope.
type WebsocketConnector struct {
	endpoint string
	dialer   *websocket.Dialer
}

// NewWebsocketConnector creates a connector for the given endpoint template.
func NewWebsocketConnector(endpoint string) *WebsocketConnector {
	return &WebsocketConnector{
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
	}
}

// Open dials the gateway for username and starts pumping its frames.
func (c *WebsocketConnector) Open(ctx context.Context, username string) (Stream, error) {
	target := fmt.Sprintf(c.endpoint, url.PathEscape(username))
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial live source for %s: %w", username, err)
	}

	st := &wsStream{
		conn:   conn,
		events: make(chan Event, streamBuffer),
	}
	go st.readLoop()
	return st, nil
}

type wsStream struct {
	conn      *websocket.Conn
	events    chan Event
	closeOnce sync.Once
}

func (st *wsStream) Events() <-chan Event {
	return st.events
}

func (st *wsStream) Close() error {
	var err error
	st.closeOnce.Do(func() {
		err = st.conn.Close()
	})
	return err
}

func (st *wsStream) readLoop() {
	defer close(st.events)
	for {
		var ev Event
		if err := st.conn.ReadJSON(&ev); err != nil {
			return
		}
		if ev.Name == "" {
			// Unnamed frames carry nothing dispatchable.
			continue
		}
		st.events <- ev
	}
}

// runWithReconnect keeps one username's stream alive: it forwards every event
// to sink, synthesizes a "disconnected" marker when the stream fails, and
// redials with jittered exponential backoff until ctx is cancelled. The
// backoff resets after each successful open.
func runWithReconnect(ctx context.Context, c Connector, username string, bo BackoffConfig, sink func(Event)) {
	bo.sanitize()
	delay := &backoff.Backoff{
		Min:    bo.Min,
		Max:    bo.Max,
		Jitter: true,
	}

	for {
		stream, err := c.Open(ctx, username)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d := delay.Duration()
			log.Printf("live: open stream for %s failed: %v (retrying in %s)", username, err, d)
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
			continue
		}

		delay.Reset()

		for {
			select {
			case <-ctx.Done():
				stream.Close()
				return
			case ev, ok := <-stream.Events():
				if !ok {
					sink(Event{Name: "disconnected"})
					goto redial
				}
				sink(ev)
			}
		}

	redial:
		if ctx.Err() != nil {
			return
		}
		d := delay.Duration()
		log.Printf("live: stream for %s ended, reconnecting in %s", username, d)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
	}
}
