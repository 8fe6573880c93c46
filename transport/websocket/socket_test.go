package websocket

import (
	"testing"
)

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	var order []string
	s.On("ev", func(args ...interface{}) { order = append(order, "first") })
	s.On("ev", func(args ...interface{}) { order = append(order, "second") })
	s.On("ev", func(args ...interface{}) { order = append(order, "third") })

	s.dispatch(&Envelope{Event: "ev"})

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("Expected registration order, got %v", order)
	}
}

func TestDuplicateRegistrationInvokedTwice(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	calls := 0
	fn := func(args ...interface{}) { calls++ }
	s.On("ev", fn)
	s.On("ev", fn)

	s.dispatch(&Envelope{Event: "ev"})

	if calls != 2 {
		t.Errorf("Expected 2 invocations, got %d", calls)
	}
}

func TestOffRemovesOnlyMatchingHandler(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	var order []string
	keep := EventHandler(func(args ...interface{}) { order = append(order, "keep") })
	drop := EventHandler(func(args ...interface{}) { order = append(order, "drop") })

	s.On("ev", keep)
	s.On("ev", drop)
	s.Off("ev", drop)

	s.dispatch(&Envelope{Event: "ev"})

	if len(order) != 1 || order[0] != "keep" {
		t.Errorf("Expected only the remaining handler to run, got %v", order)
	}
}

func TestOffUnknownHandlerIsNoOp(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	calls := 0
	s.On("ev", func(args ...interface{}) { calls++ })
	s.Off("ev", func(args ...interface{}) {})
	s.Off("other", func(args ...interface{}) {})

	s.dispatch(&Envelope{Event: "ev"})

	if calls != 1 {
		t.Errorf("Expected registered handler to survive, got %d calls", calls)
	}
}

func TestDispatchPassesArrayElementsPositionally(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	var got []interface{}
	s.On("multi", func(args ...interface{}) { got = args })

	env, err := DecodeEnvelope([]byte(`{"event":"multi","data":["x",1,false]}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	s.dispatch(env)

	if len(got) != 3 {
		t.Fatalf("Expected 3 positional args, got %d", len(got))
	}
	if got[0] != "x" || got[1] != float64(1) || got[2] != false {
		t.Errorf("Unexpected args: %v", got)
	}
}

func TestEmitAfterCloseIsSilent(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	s.Close()

	if err := s.Emit("late", "frame"); err != nil {
		t.Errorf("Emit after close must not fail the caller, got %v", err)
	}
	if h.EmitTo("a", "late", "frame") {
		t.Error("EmitTo must report false once the socket is gone")
	}
}

func TestRoomsSnapshotFollowsMembership(t *testing.T) {
	h := NewHub(Options{})
	s := testSocket(h, "a")

	s.Join("alpha")
	s.Join("beta")
	s.Leave("alpha")

	rooms := s.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms (default + beta), got %v", rooms)
	}
	for _, room := range rooms {
		if room != DefaultRoom && room != "beta" {
			t.Errorf("Unexpected room %q in %v", room, rooms)
		}
	}
}
