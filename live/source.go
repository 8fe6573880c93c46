package live

import "context"

// Event is one named occurrence from an external live stream. Names are
// opaque to the hub; the source's own markers ("connected", "disconnected")
// travel through the same type.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Stream is one open per-username event sequence. Events is closed when the
// stream ends, whether by remote close or transport failure.
type Stream interface {
	Events() <-chan Event
	Close() error
}

// Connector opens streams against the external live-event source. The
// production implementation dials the upstream gateway; tests substitute a
// fake.
type Connector interface {
	Open(ctx context.Context, username string) (Stream, error)
}
