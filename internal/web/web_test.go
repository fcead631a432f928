package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stembot/internal/config"
	"stembot/internal/model"
	"stembot/internal/service"
	"stembot/internal/sweep"
)

// stubStore serves fixed listings so the handlers run without a database.
type stubStore struct {
	events []model.Event
}

func (s *stubStore) Insert(context.Context, *model.Event) (uint, error)       { return 0, nil }
func (s *stubStore) GetByID(context.Context, uint) (*model.Event, error)     { return nil, nil }
func (s *stubStore) UpdateFields(context.Context, uint, model.FieldPatch) (bool, error) {
	return false, nil
}
func (s *stubStore) Delete(context.Context, uint) (bool, error) { return false, nil }
func (s *stubStore) WeekActive(context.Context, time.Time) ([]model.Event, error) {
	return s.events, nil
}
func (s *stubStore) ActiveUpcoming(context.Context, time.Time, int) ([]model.Event, error) {
	return s.events, nil
}
func (s *stubStore) Moderation(context.Context, model.ModerationFilter, time.Time) ([]model.Event, error) {
	return s.events, nil
}
func (s *stubStore) Deduplicate(context.Context) (model.DedupStats, error) {
	return model.DedupStats{}, nil
}

func (s *stubStore) DueRecurring(context.Context, time.Time) ([]model.Event, error) {
	return nil, nil
}
func (s *stubStore) DueAutoClose(context.Context, time.Time) ([]model.Event, error) {
	return nil, nil
}

func newTestHandler(cfg *config.Config) http.Handler {
	store := &stubStore{events: []model.Event{{
		ID: 1, Name: "standup",
		OccurrenceDate: time.Date(2026, time.September, 7, 0, 0, 0, 0, time.Local),
		OccurrenceTime: "09:30",
		Kind:           model.KindRecurring, Status: model.StatusActive,
		FrequencyRule: "weekly on Monday",
	}}}
	svc := service.New(store, service.Options{})
	sweeper := sweep.New(store, nil)
	return NewServer(cfg, svc, sweeper).Handler()
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(config.DefaultConfig())

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/health", http.StatusOK, "ok"},
		{"/api/events", http.StatusOK, `"standup"`},
		{"/api/sweeper", http.StatusOK, `"running":false`},
		{"/calendar.ics", http.StatusOK, "BEGIN:VCALENDAR"},
		{"/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
			continue
		}
		if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
			t.Errorf("GET %s body %q missing %q", tt.path, rec.Body.String(), tt.contains)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "hunter2"}
	h := newTestHandler(cfg)

	// Health stays open for probes.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health without credentials = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/events without credentials = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("401 without WWW-Authenticate header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/events with bad password = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/events with credentials = %d, want 200", rec.Code)
	}
}
