// Package server provides the HTTP server for kinectkeys.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/kinectkeys/internal/capture"
	"github.com/ayusman/kinectkeys/internal/gesture"
	"github.com/ayusman/kinectkeys/internal/server/api"
	"github.com/ayusman/kinectkeys/internal/store"
)

// Config holds the server configuration. Every field is optional; routes whose
// dependencies are missing are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       api.Controller
	Color     *capture.ColorBuffer
	Skeleton  SkeletonSource
	// Defaults are the bindings shown for gestures without an override.
	Defaults gesture.Bindings
	// Reload is called after a binding override changes.
	Reload func() error
}

// Server represents the HTTP server for the kinectkeys application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		s.mux.Handle("/api/status", api.NewStatusHandler(s.config.App))
	}

	if s.config.Store != nil {
		bindings := api.NewBindingHandler(s.config.Store, s.config.Defaults, s.config.Reload)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
		s.mux.Handle("/api/events", api.NewEventHandler(s.config.Store))
	}

	if s.config.Color != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Color))
	}

	if s.config.Skeleton != nil {
		s.mux.Handle("/api/skeleton", NewSkeletonHandler(s.config.Skeleton))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["running"] = s.config.App.Status().Running
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
