// Package web is the small ops surface of the engine: health, week
// listing, sweeper status and the ICS feed. It is not the chat command
// layer; that lives outside this process entirely.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"stembot/internal/config"
	"stembot/internal/ics"
	appLog "stembot/internal/log"
	"stembot/internal/service"
	"stembot/internal/sweep"
)

// Server provides the HTTP status API.
type Server struct {
	cfg     *config.Config
	svc     *service.Service
	sweeper *sweep.Sweeper
	mux     *http.ServeMux
}

// NewServer constructs a Server and registers its routes.
func NewServer(cfg *config.Config, svc *service.Service, sweeper *sweep.Sweeper) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		sweeper: sweeper,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleWeekEvents)
	s.mux.HandleFunc("GET /api/sweeper", s.handleSweeperStatus)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="stembot", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWeekEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListForUsers(r.Context())
	if err != nil {
		appLog.Error("week listing failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleSweeperStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.sweeper.Status())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.UpcomingForExport(r.Context())
	if err != nil {
		appLog.Error("ics listing failed", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(ics.Serialize(events, time.Now())))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("json encode failed", err)
	}
}

// StartServer runs the HTTP server until ctx is canceled, then shuts it
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, svc *service.Service, sweeper *sweep.Sweeper) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: NewServer(cfg, svc, sweeper).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
