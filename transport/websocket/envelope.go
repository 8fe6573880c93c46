package websocket

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire unit exchanged with clients: one JSON object per text
// frame, carrying an event name and an arbitrary payload. Multi-argument
// emits carry their arguments as a JSON array under Data.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// DecodeEnvelope parses a raw text frame into an Envelope. It fails when the
// frame is not a JSON object or the event name is missing. Callers treat a
// failure as "drop this frame, keep the connection open".
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("envelope missing event name")
	}
	return &env, nil
}

// EncodeEnvelope serializes an event and its arguments to a wire frame.
// A single argument is encoded as the bare value, multiple arguments as an
// ordered JSON array, and zero arguments omit the data field entirely.
func EncodeEnvelope(event string, args ...interface{}) ([]byte, error) {
	env := Envelope{Event: event}
	switch len(args) {
	case 0:
	case 1:
		env.Data = args[0]
	default:
		env.Data = args
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope %q: %w", event, err)
	}
	return frame, nil
}

// Args returns the positional-argument view of the payload used for handler
// dispatch: the elements of Data when it decoded as a JSON array, the bare
// value as a single argument otherwise, and nil when Data is absent.
func (e *Envelope) Args() []interface{} {
	if e.Data == nil {
		return nil
	}
	if args, ok := e.Data.([]interface{}); ok {
		return args
	}
	return []interface{}{e.Data}
}
