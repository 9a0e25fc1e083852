// Package server provides the HTTP server for the abhinaya face gesture service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/abhinaya/internal/log"
	"github.com/ayusman/abhinaya/internal/server/api"
	"github.com/ayusman/abhinaya/internal/store"
)

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   api.Session
	Plugins   api.PluginLister
	Events    *EventHub
	Preview   PreviewSource
}

// Server represents the HTTP server for the abhinaya application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
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
	s.mux.Handle("/api/gestures", api.NewGestureHandler())

	if s.config.Session != nil {
		s.mux.Handle("/api/session", api.NewSessionHandler(s.config.Session))
		s.mux.Handle("/api/thresholds", api.NewThresholdsHandler(s.config.Session))
	}

	if s.config.Store != nil {
		actionHandler := api.NewActionHandler(s.config.Store, s.config.Plugins)
		s.mux.Handle("/api/actions", actionHandler)
		s.mux.Handle("/api/actions/", actionHandler)
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// detectorKinder is implemented by sessions that report their face analysis.
type detectorKinder interface {
	DetectorKind() string
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Session != nil {
		response["running"] = s.config.Session.IsRunning()
		if d, ok := s.config.Session.(detectorKinder); ok {
			response["detector"] = d.DetectorKind()
		}
	}
	if s.config.Events != nil {
		response["subscribers"] = s.config.Events.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.config.Events != nil {
		s.config.Events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("http server stopped")
	return nil
}
