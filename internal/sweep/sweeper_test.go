package sweep

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stembot/internal/model"
)

// sweepStore is an in-memory Store for sweeper tests. It serves the due
// listings from a fixed slice and applies patches to its event map.
type sweepStore struct {
	events    map[uint]*model.Event
	failWrite map[uint]error // per-id forced write failures
	queryErr  error
}

func newSweepStore(events ...model.Event) *sweepStore {
	s := &sweepStore{events: map[uint]*model.Event{}, failWrite: map[uint]error{}}
	for i := range events {
		cp := events[i]
		s.events[cp.ID] = &cp
	}
	return s
}

func (s *sweepStore) due(now time.Time, kind model.Kind) []model.Event {
	var out []model.Event
	for _, ev := range s.events {
		if ev.Status != model.StatusActive || ev.Kind != kind {
			continue
		}
		switch kind {
		case model.KindRecurring:
			if !ev.OccurrenceAt().After(now) {
				out = append(out, *ev)
			}
		case model.KindOneOff:
			if ev.AutoClose && !ev.AutoCloseDeadline().After(now) {
				out = append(out, *ev)
			}
		}
	}
	return out
}

func (s *sweepStore) DueRecurring(_ context.Context, now time.Time) ([]model.Event, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.due(now, model.KindRecurring), nil
}

func (s *sweepStore) DueAutoClose(_ context.Context, now time.Time) ([]model.Event, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.due(now, model.KindOneOff), nil
}

func (s *sweepStore) UpdateFields(_ context.Context, id uint, p model.FieldPatch) (bool, error) {
	if err := s.failWrite[id]; err != nil {
		return false, err
	}
	ev, ok := s.events[id]
	if !ok {
		return false, nil
	}
	if p.Date != nil {
		day, err := time.ParseInLocation(model.DateLayout, *p.Date, time.Local)
		if err != nil {
			return false, err
		}
		ev.OccurrenceDate = day
	}
	if p.Time != nil {
		ev.OccurrenceTime = *p.Time
	}
	if p.Status != nil {
		ev.Status = *p.Status
	}
	return true, nil
}

var sweepNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestRunAdvancesDueRecurring(t *testing.T) {
	store := newSweepStore(
		model.Event{ID: 1, Name: "standup", Kind: model.KindRecurring, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "09:30",
			FrequencyRule: "weekly on Tuesday"},
		model.Event{ID: 2, Name: "later today", Kind: model.KindRecurring, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "18:00",
			FrequencyRule: "daily"},
	)
	sw := New(store, func() time.Time { return sweepNow })

	res := sw.Run(context.Background())
	if res.RunID == "" {
		t.Error("run id missing")
	}
	if res.Advanced.Candidates != 1 || res.Advanced.Succeeded != 1 || res.Advanced.Failed != 0 {
		t.Fatalf("advanced = %+v", res.Advanced)
	}

	moved := store.events[1]
	if want := day(2026, time.September, 8); !moved.OccurrenceDate.Equal(want) {
		t.Errorf("advanced to %v, want %v", moved.OccurrenceDate, want)
	}
	// Advancing touches only the date.
	if moved.OccurrenceTime != "09:30" || moved.Status != model.StatusActive {
		t.Errorf("advance changed more than the date: %+v", moved)
	}
	// Not yet due, untouched.
	if !store.events[2].OccurrenceDate.Equal(day(2026, time.September, 1)) {
		t.Error("undue event was advanced")
	}
}

func TestRunAutoClosesDueOneOffs(t *testing.T) {
	store := newSweepStore(
		model.Event{ID: 1, Name: "closable", Kind: model.KindOneOff, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "10:00",
			AutoClose: true, AutoCloseDelayHours: 1},
		model.Event{ID: 2, Name: "within delay", Kind: model.KindOneOff, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "11:30",
			AutoClose: true, AutoCloseDelayHours: 1},
		model.Event{ID: 3, Name: "opted out", Kind: model.KindOneOff, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.August, 31), OccurrenceTime: "10:00",
			AutoClose: false, AutoCloseDelayHours: 1},
	)
	sw := New(store, func() time.Time { return sweepNow })

	res := sw.Run(context.Background())
	if res.AutoClosed.Candidates != 1 || res.AutoClosed.Succeeded != 1 {
		t.Fatalf("auto closed = %+v", res.AutoClosed)
	}
	if store.events[1].Status != model.StatusCompleted {
		t.Errorf("event 1 status = %q, want completed", store.events[1].Status)
	}
	if store.events[2].Status != model.StatusActive || store.events[3].Status != model.StatusActive {
		t.Error("undue or opted-out event was closed")
	}
}

func TestRunIsolatesPerEventFailures(t *testing.T) {
	store := newSweepStore(
		model.Event{ID: 1, Name: "broken write", Kind: model.KindRecurring, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "09:00",
			FrequencyRule: "daily"},
		model.Event{ID: 2, Name: "fine", Kind: model.KindRecurring, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "09:00",
			FrequencyRule: "weekly on Tuesday"},
	)
	store.failWrite[1] = errors.New("disk full")
	sw := New(store, func() time.Time { return sweepNow })

	res := sw.Run(context.Background())
	if res.Advanced.Candidates != 2 || res.Advanced.Succeeded != 1 || res.Advanced.Failed != 1 {
		t.Fatalf("advanced = %+v", res.Advanced)
	}
	if len(res.Advanced.Failures) != 1 || !strings.Contains(res.Advanced.Failures[0], "disk full") {
		t.Errorf("failures = %v", res.Advanced.Failures)
	}
	// The failed event keeps its occurrence; the healthy one moved.
	if !store.events[1].OccurrenceDate.Equal(day(2026, time.September, 1)) {
		t.Error("failed event was modified")
	}
	if !store.events[2].OccurrenceDate.Equal(day(2026, time.September, 8)) {
		t.Errorf("healthy event at %v", store.events[2].OccurrenceDate)
	}
}

func TestRunUnknownRuleAdvancesOneDay(t *testing.T) {
	store := newSweepStore(
		model.Event{ID: 1, Name: "odd", Kind: model.KindRecurring, Status: model.StatusActive,
			OccurrenceDate: day(2026, time.September, 1), OccurrenceTime: "09:00",
			FrequencyRule: "every full moon"},
	)
	sw := New(store, func() time.Time { return sweepNow })

	res := sw.Run(context.Background())
	if res.Advanced.Succeeded != 1 {
		t.Fatalf("advanced = %+v", res.Advanced)
	}
	if !store.events[1].OccurrenceDate.Equal(day(2026, time.September, 2)) {
		t.Errorf("unknown rule advanced to %v, want next day", store.events[1].OccurrenceDate)
	}
}

func TestRunQueryFailure(t *testing.T) {
	store := newSweepStore()
	store.queryErr = errors.New("connection reset")
	sw := New(store, func() time.Time { return sweepNow })

	res := sw.Run(context.Background())
	if res.Advanced.Failed != 1 || res.AutoClosed.Failed != 1 {
		t.Errorf("result = %+v, want one failure per duty", res)
	}
}

func TestRunRecordsLastResult(t *testing.T) {
	sw := New(newSweepStore(), func() time.Time { return sweepNow })

	if st := sw.Status(); st.Last != nil || st.Running {
		t.Fatalf("fresh status = %+v", st)
	}
	res := sw.Run(context.Background())
	st := sw.Status()
	if st.Last == nil || st.Last.RunID != res.RunID {
		t.Errorf("status.Last = %+v, want run %s", st.Last, res.RunID)
	}
}

func TestStartStop(t *testing.T) {
	sw := New(newSweepStore(), func() time.Time { return sweepNow })

	started, err := sw.Start("0 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	if !started {
		t.Fatal("first start refused")
	}
	if st := sw.Status(); !st.Running || st.NextRun == nil {
		t.Errorf("status after start = %+v", st)
	}

	// Second start is refused without disturbing the schedule.
	started, err = sw.Start("0 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	if started {
		t.Error("second start accepted")
	}

	if !sw.Stop() {
		t.Error("stop on running sweeper returned false")
	}
	if sw.Stop() {
		t.Error("second stop returned true")
	}
	if st := sw.Status(); st.Running {
		t.Error("still running after stop")
	}

	// Restart after stop is allowed.
	started, err = sw.Start("0 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	if !started {
		t.Error("restart refused")
	}
	sw.Stop()
}

func TestStartBadSpec(t *testing.T) {
	sw := New(newSweepStore(), nil)
	if _, err := sw.Start("not a cron spec"); err == nil {
		t.Fatal("bad cron spec accepted")
	}
	if st := sw.Status(); st.Running {
		t.Error("running after failed start")
	}
}
