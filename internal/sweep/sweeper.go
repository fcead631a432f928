// Package sweep is the periodic lifecycle pass: it advances due recurring
// events to their next occurrence and auto-completes due one-off events.
// The schedule is cron-driven; the sweeper itself owns its running state,
// so a second Start is refused instead of double-processing due events.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	appLog "stembot/internal/log"
	"stembot/internal/model"
)

// runTimeout bounds a single unattended sweep pass.
const runTimeout = 5 * time.Minute

// Store is the persistence surface the sweeper needs.
type Store interface {
	DueRecurring(ctx context.Context, now time.Time) ([]model.Event, error)
	DueAutoClose(ctx context.Context, now time.Time) ([]model.Event, error)
	UpdateFields(ctx context.Context, id uint, p model.FieldPatch) (bool, error)
}

// Sweeper drives the periodic pass. Construct with New, then Start once
// the embedding process is ready (database connected, migrations done).
type Sweeper struct {
	store Store
	now   func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron

	lastMu sync.RWMutex
	last   *Result
}

// New builds a Sweeper. now is injectable for tests; nil means time.Now.
func New(store Store, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: store, now: now}
}

// Start schedules the sweep under the given cron spec (e.g. "0 * * * *").
// It is idempotent: a second Start while running returns false without
// touching the existing schedule.
func (s *Sweeper) Start(spec string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		appLog.Warn("sweeper already running, start ignored")
		return false, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return false, err
	}
	c.Start()
	s.cron = c
	s.running = true
	appLog.Info("sweeper started", "schedule", spec)
	return true, nil
}

// Stop halts the schedule. Idempotent; returns false when nothing was
// running. An in-flight sweep finishes its batch.
func (s *Sweeper) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
	appLog.Info("sweeper stopped")
	return true
}

func (s *Sweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	s.Run(ctx)
}

// Run executes both duties once and records the result. It never panics
// or returns an error past its boundary; failures are counted per event.
func (s *Sweeper) Run(ctx context.Context) Result {
	res := Result{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}

	s.advanceRecurring(ctx, &res)
	s.autoCloseOneOffs(ctx, &res)

	res.FinishedAt = s.now()
	appLog.Info("sweep finished",
		"run_id", res.RunID,
		"advanced", res.Advanced.Succeeded,
		"advance_failed", res.Advanced.Failed,
		"auto_closed", res.AutoClosed.Succeeded,
		"auto_close_failed", res.AutoClosed.Failed,
	)

	s.lastMu.Lock()
	s.last = &res
	s.lastMu.Unlock()
	return res
}

// Status reports the sweeper state for the ops surface.
type SchedStatus struct {
	Running bool       `json:"running"`
	NextRun *time.Time `json:"next_run,omitempty"`
	Last    *Result    `json:"last_run,omitempty"`
}

// Status returns the current running flag, the next scheduled fire time,
// and the last run's result.
func (s *Sweeper) Status() SchedStatus {
	st := SchedStatus{}

	s.mu.Lock()
	st.Running = s.running
	if s.cron != nil {
		if entries := s.cron.Entries(); len(entries) > 0 {
			next := entries[0].Next
			st.NextRun = &next
		}
	}
	s.mu.Unlock()

	s.lastMu.RLock()
	st.Last = s.last
	s.lastMu.RUnlock()
	return st
}
