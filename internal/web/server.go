// Package web exposes the running session over HTTP: a status endpoint,
// pause/resume/cancel controls and a server-sent event stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hmarchand/wcagaudit/internal/audit"
	"github.com/hmarchand/wcagaudit/internal/control"
	"github.com/hmarchand/wcagaudit/internal/events"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// Config holds the server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	EnableCORS      bool
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8321",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    0, // unset: the SSE stream must outlive a fixed window
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		EnableCORS:      true,
		CORSOrigins:     []string{"http://localhost:5173"},
	}
}

// Server serves the session control API.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	config     Config
	logger     *logging.Logger

	session *audit.Session
	plane   *control.Plane
	bus     *events.Bus
}

// New creates a control server bound to a session.
func New(cfg Config, session *audit.Session, plane *control.Plane, bus *events.Bus, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		session: session,
		plane:   plane,
		bus:     bus,
	}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		corsMiddleware := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		})
		r.Use(corsMiddleware.Handler)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/control/pause", s.handlePause)
		r.Post("/control/resume", s.handleResume)
		r.Post("/control/cancel", s.handleCancel)
		if s.bus != nil {
			r.Get("/events", s.handleEvents)
		}
	})

	return r
}

// Start runs the server until the context is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("control server listening", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down control server: %w", err)
		}
		return nil
	}
}

// Handler returns the router, useful for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.session == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, s.session.Progress())
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.plane.Pause()
	s.logger.Info("pause requested via control api")
	writeJSON(w, http.StatusOK, s.plane.Status())
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	s.plane.Resume()
	s.logger.Info("resume requested via control api")
	writeJSON(w, http.StatusOK, s.plane.Status())
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	s.plane.Cancel()
	// A paused session must observe the cancellation too.
	s.plane.Resume()
	s.logger.Info("cancel requested via control api")
	writeJSON(w, http.StatusOK, s.plane.Status())
}

// handleEvents streams bus events as server-sent events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.EventType(), data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
