package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/pathfind"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
	"github.com/wricardo/mcp-training/rescuebot/transport/websocket"
)

// Option configures the server
type Option func(*Server)

// WithLogger enables request logging
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// Server represents the REST API server
type Server struct {
	service service.MissionService
	hub     *websocket.Hub
	router  *mux.Router
	metrics http.Handler
	log     *zap.Logger
}

// NewServer creates a new API server
func NewServer(missionService service.MissionService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: missionService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Agent operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/sense", s.handleSense).Methods("GET")
	api.HandleFunc("/sessions/{id}/commands", s.handleExecute).Methods("POST")
	api.HandleFunc("/sessions/{id}/mission", s.handleRunMission).Methods("POST")
	api.HandleFunc("/sessions/{id}/path", s.handleFindPath).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")

	// Maps
	api.HandleFunc("/maps", s.handleListMaps).Methods("GET")
	api.HandleFunc("/maps/{name}", s.handleGetMap).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade needs the raw writer
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pathfind.ErrNoPath):
		return http.StatusUnprocessableEntity
	case errors.Is(err, world.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MapID string `json:"map_id,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.MapID == "" {
		req.MapID = r.URL.Query().Get("map")
	}

	session, err := s.service.CreateSession(r.Context(), req.MapID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < total {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Agent Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSense(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Sense(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Commands string `json:"commands"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Execute(r.Context(), sessionID, req.Commands)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result.State)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunMission(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.RunMission(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, result.State)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	var goal world.Position
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body, expected {\"row\":r,\"col\":c}")
		return
	}

	result, err := s.service.FindPath(r.Context(), mux.Vars(r)["id"], goal)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.broadcast(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) broadcast(sessionID string, state *service.StateView) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

// Map Handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.service.ListMaps(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.LoadMap(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}
	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
