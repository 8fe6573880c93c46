package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nglmercer/tiktok-apirest/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	hub    *websocket.Hub
	router *mux.Router
}

// NewServer creates a new API server
func NewServer(hub *websocket.Hub) *Server {
	s := &Server{
		hub:    hub,
		router: mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/broadcast", s.handleBroadcast).Methods("POST")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Room inspection and targeted delivery
	s.router.HandleFunc("/rooms/{room}", s.handleRoomMembers).Methods("GET")
	s.router.HandleFunc("/rooms/{room}/broadcast", s.handleRoomBroadcast).Methods("POST")

	// WebSocket
	s.router.HandleFunc("/ws", s.hub.ServeWS)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying mux so callers can mount extra endpoints.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.hub.Stats())
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sent := s.hub.BroadcastAll(req.Message)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sent":    sent,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoomMembers(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	members := s.hub.MembersOf(room)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"room":    room,
		"members": members,
		"count":   len(members),
	})
}

func (s *Server) handleRoomBroadcast(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	var req struct {
		Event   string      `json:"event"`
		Data    interface{} `json:"data"`
		Message string      `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	event := req.Event
	data := req.Data
	if event == "" {
		if req.Message == "" {
			respondError(w, http.StatusBadRequest, "event or message is required")
			return
		}
		event = "broadcast"
		data = req.Message
	}

	sent := s.hub.Broadcast(room, "", event, data)
	if sent == 0 {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no members in room: %s", room))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sent":    sent,
	})
}
