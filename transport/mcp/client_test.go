package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:3000"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	expectedResponse := map[string]interface{}{
		"connectedClients": float64(3),
		"rooms":            []interface{}{"general"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expectedResponse)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	err := client.apiCall("GET", "/stats", nil, &response)
	if err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["connectedClients"] != expectedResponse["connectedClients"] {
		t.Errorf("Expected connectedClients %v, got %v",
			expectedResponse["connectedClients"], response["connectedClients"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	err := client.apiCall("GET", "/stats", nil, nil)
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("GET", "/stats", nil, nil)
	if err == nil {
		t.Error("Expected error for HTTP 500 response")
	}

	if !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_apiCall_JSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no members in room: ghost"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("POST", "/rooms/ghost/broadcast", map[string]string{"message": "hi"}, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 404 response")
	}

	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("Expected API error message passed through, got: %v", err)
	}
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got none")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestClient_handleRelayStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/stats" {
			t.Errorf("Expected GET /stats, got %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"connectedClients": 2,
			"rooms":            []string{"general", "vip"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleRelayStats(context.Background(), toolRequest("relay_stats", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleRelayStats failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "Connected clients: 2") {
		t.Errorf("Expected client count in result, got: %s", text)
	}
	if !strings.Contains(text, "general, vip") {
		t.Errorf("Expected room list in result, got: %s", text)
	}
}

func TestClient_handleBroadcastMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/broadcast" {
			t.Errorf("Expected POST /broadcast, got %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["message"] != "hello" {
			t.Errorf("Expected message hello, got %q", req["message"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "sent": 4})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleBroadcastMessage(context.Background(),
		toolRequest("broadcast_message", map[string]interface{}{"message": "hello"}))
	if err != nil {
		t.Fatalf("handleBroadcastMessage failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "4 client(s)") {
		t.Errorf("Expected delivery count in result, got: %s", text)
	}
}

func TestClient_handleBroadcastMessage_MissingArg(t *testing.T) {
	client := NewClient("http://localhost:3000")

	result, err := client.handleBroadcastMessage(context.Background(),
		toolRequest("broadcast_message", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleBroadcastMessage failed: %v", err)
	}

	if !result.IsError {
		t.Error("Expected error result for missing message")
	}
}

func TestClient_handleRoomMembers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/rooms/vip" {
			t.Errorf("Expected GET /rooms/vip, got %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"room":    "vip",
			"members": []string{"sock-1", "sock-2"},
			"count":   2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleRoomMembers(context.Background(),
		toolRequest("room_members", map[string]interface{}{"room": "vip"}))
	if err != nil {
		t.Fatalf("handleRoomMembers failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "2 member(s)") || !strings.Contains(text, "sock-1") {
		t.Errorf("Expected member listing in result, got: %s", text)
	}
}

func TestClient_handleSendToRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/rooms/vip/broadcast" {
			t.Errorf("Expected POST /rooms/vip/broadcast, got %s %s", r.Method, r.URL.Path)
		}
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["event"] != "announcement" {
			t.Errorf("Expected event announcement, got %v", req["event"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "sent": 3})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleSendToRoom(context.Background(),
		toolRequest("send_to_room", map[string]interface{}{
			"room":  "vip",
			"event": "announcement",
			"data":  map[string]interface{}{"title": "maintenance"},
		}))
	if err != nil {
		t.Fatalf("handleSendToRoom failed: %v", err)
	}

	text := textContent(t, result)
	if !strings.Contains(text, "3 member(s)") {
		t.Errorf("Expected delivery count in result, got: %s", text)
	}
}

func TestClient_Integration(t *testing.T) {
	client := NewClient("http://localhost:3000")

	if client == nil {
		t.Fatal("Failed to create client")
	}

	if client.mcpServer == nil {
		t.Fatal("MCP server not initialized")
	}

	if client.baseURL == "" {
		t.Error("Base URL not set")
	}

	if client.httpClient == nil {
		t.Error("HTTP client not initialized")
	}
}
