package websocket

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := EncodeEnvelope("message", "hi")
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	env, err := DecodeEnvelope(frame)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	if env.Event != "message" {
		t.Errorf("Expected event 'message', got %q", env.Event)
	}
	if env.Data != "hi" {
		t.Errorf("Expected data 'hi', got %v", env.Data)
	}
}

func TestEncodeMultipleArgs(t *testing.T) {
	frame, err := EncodeEnvelope("update", "a", float64(2), true)
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	env, err := DecodeEnvelope(frame)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	args := env.Args()
	want := []interface{}{"a", float64(2), true}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Expected args %v, got %v", want, args)
	}
}

func TestEncodeNoArgs(t *testing.T) {
	frame, err := EncodeEnvelope("ping")
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	if string(frame) != `{"event":"ping"}` {
		t.Errorf("Expected data field omitted, got %s", frame)
	}

	env, err := DecodeEnvelope(frame)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Args() != nil {
		t.Errorf("Expected nil args, got %v", env.Args())
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "not json at all"},
		{"truncated", `{"event":"mess`},
		{"json array", `[1,2,3]`},
		{"bare string", `"hello"`},
		{"missing event", `{"data":"hi"}`},
		{"empty event", `{"event":"","data":"hi"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeEnvelope([]byte(tc.raw)); err == nil {
				t.Errorf("Expected decode error for %q", tc.raw)
			}
		})
	}
}

func TestArgsBareValueIsSingleArgument(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"message","data":{"text":"hi"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	args := env.Args()
	if len(args) != 1 {
		t.Fatalf("Expected 1 argument, got %d", len(args))
	}
	obj, ok := args[0].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object argument, got %T", args[0])
	}
	if obj["text"] != "hi" {
		t.Errorf("Expected text 'hi', got %v", obj["text"])
	}
}

func TestArgsArrayIsPositional(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"move","data":["up",2]}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	args := env.Args()
	if len(args) != 2 {
		t.Fatalf("Expected 2 arguments, got %d", len(args))
	}
	if args[0] != "up" || args[1] != float64(2) {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestEncodeUnserializableArgument(t *testing.T) {
	if _, err := EncodeEnvelope("bad", make(chan int)); err == nil {
		t.Error("Expected error for unserializable argument")
	}
}
