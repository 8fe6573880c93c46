package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"TikTok Live Relay",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`TikTok Live Relay - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The relay organizes WebSocket connections into named rooms and forwards
live-stream events to subscribed clients.

AVAILABLE TOOLS:
- relay_stats: Connected client count and active room names
- broadcast_message: Send a message to every client in the default room
- room_members: List the socket ids currently in a room
- send_to_room: Emit a named event to every member of a room`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "relay_stats",
		Description: "Get the number of connected clients and the list of active rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRelayStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "broadcast_message",
		Description: "Broadcast a text message to every client in the default room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Text delivered as the broadcast payload",
				},
			},
			Required: []string{"message"},
		},
	}, c.handleBroadcastMessage)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "room_members",
		Description: "List the socket ids currently joined to a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room": map[string]interface{}{
					"type":        "string",
					"description": "Room name to inspect",
				},
			},
			Required: []string{"room"},
		},
	}, c.handleRoomMembers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_to_room",
		Description: "Emit a named event with an arbitrary JSON payload to every member of a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room": map[string]interface{}{
					"type":        "string",
					"description": "Target room name",
				},
				"event": map[string]interface{}{
					"type":        "string",
					"description": "Event name to emit",
				},
				"data": map[string]interface{}{
					"description": "Event payload (any JSON value)",
				},
			},
			Required: []string{"room", "event"},
		},
	}, c.handleSendToRoom)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleRelayStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats struct {
		ConnectedClients int      `json:"connectedClients"`
		Rooms            []string `json:"rooms"`
	}

	err := c.apiCall("GET", "/stats", nil, &stats)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Connected clients: %d\n", stats.ConnectedClients)
	if len(stats.Rooms) == 0 {
		result += "No active rooms"
	} else {
		result += fmt.Sprintf("Active rooms (%d): %s", len(stats.Rooms), strings.Join(stats.Rooms, ", "))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleBroadcastMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	message, _ := args["message"].(string)
	if message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	var response struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
	}

	err := c.apiCall("POST", "/broadcast", map[string]interface{}{"message": message}, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Broadcast delivered to %d client(s)", response.Sent)), nil
}

func (c *Client) handleRoomMembers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	room, _ := args["room"].(string)
	if room == "" {
		return mcp.NewToolResultError("room is required"), nil
	}

	var listing struct {
		Room    string   `json:"room"`
		Members []string `json:"members"`
		Count   int      `json:"count"`
	}

	err := c.apiCall("GET", fmt.Sprintf("/rooms/%s", room), nil, &listing)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if listing.Count == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Room %q is empty", room)), nil
	}

	result := fmt.Sprintf("Room %q has %d member(s):\n", listing.Room, listing.Count)
	for _, id := range listing.Members {
		result += fmt.Sprintf("• %s\n", id)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSendToRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	room, _ := args["room"].(string)
	event, _ := args["event"].(string)
	if room == "" || event == "" {
		return mcp.NewToolResultError("room and event are required"), nil
	}

	body := map[string]interface{}{
		"event": event,
		"data":  args["data"],
	}

	var response struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
	}

	err := c.apiCall("POST", fmt.Sprintf("/rooms/%s/broadcast", room), body, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %q delivered to %d member(s) of %q", event, response.Sent, room)), nil
}
