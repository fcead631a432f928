package sweep

import (
	"context"
	"fmt"
	"time"

	appLog "stembot/internal/log"
	"stembot/internal/model"
	"stembot/internal/recurrence"
)

// DutyResult aggregates one duty of a sweep run. Failures carry one
// message per failed event; the batch itself never aborts.
type DutyResult struct {
	Candidates int      `json:"candidates"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	Failures   []string `json:"failures,omitempty"`
}

func (d *DutyResult) fail(format string, args ...any) {
	d.Failed++
	d.Failures = append(d.Failures, fmt.Sprintf(format, args...))
}

// Result is the summary of one full sweep run.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Advanced   DutyResult `json:"advanced"`
	AutoClosed DutyResult `json:"auto_closed"`
}

// advanceRecurring moves every due recurring event to its next occurrence.
// Only the occurrence date changes; status, clock time and every other
// field stay untouched. An event whose rule cannot produce a next
// occurrence is left exactly as it is and counted as a failure.
func (s *Sweeper) advanceRecurring(ctx context.Context, res *Result) {
	now := s.now()
	due, err := s.store.DueRecurring(ctx, now)
	if err != nil {
		appLog.Error("sweep: due recurring query failed", err, "run_id", res.RunID)
		res.Advanced.fail("listing due recurring events: %v", err)
		return
	}
	res.Advanced.Candidates = len(due)
	if len(due) == 0 {
		return
	}

	for _, ev := range due {
		rule, err := recurrence.Parse(ev.FrequencyRule, ev.RuleDetail)
		if err != nil {
			res.Advanced.fail("event %d (%s): bad rule detail: %v", ev.ID, ev.Name, err)
			appLog.Error("sweep: rule parse failed", err, "id", ev.ID)
			continue
		}
		if rule.Kind == recurrence.FreqUnknown {
			appLog.Warn("sweep: unrecognized rule, advancing one day",
				"id", ev.ID, "rule", ev.FrequencyRule)
		}

		next, err := recurrence.Next(ev.OccurrenceDate, rule)
		if err != nil {
			// Sentinel or internal failure: never delete or complete on
			// this path.
			res.Advanced.fail("event %d (%s): no next occurrence: %v", ev.ID, ev.Name, err)
			appLog.Error("sweep: next occurrence failed", err, "id", ev.ID)
			continue
		}

		dateStr := next.Format(model.DateLayout)
		ok, err := s.store.UpdateFields(ctx, ev.ID, model.FieldPatch{Date: &dateStr})
		if err != nil {
			res.Advanced.fail("event %d (%s): write failed: %v", ev.ID, ev.Name, err)
			appLog.Error("sweep: advance write failed", err, "id", ev.ID)
			continue
		}
		if !ok {
			res.Advanced.fail("event %d (%s): deleted mid-sweep", ev.ID, ev.Name)
			continue
		}
		res.Advanced.Succeeded++
		appLog.Info("event advanced", "id", ev.ID, "name", ev.Name, "next_date", dateStr)
	}
}

// autoCloseOneOffs completes every due one-off event with auto-close
// enabled. The store already applied the per-event delay.
func (s *Sweeper) autoCloseOneOffs(ctx context.Context, res *Result) {
	now := s.now()
	due, err := s.store.DueAutoClose(ctx, now)
	if err != nil {
		appLog.Error("sweep: due auto-close query failed", err, "run_id", res.RunID)
		res.AutoClosed.fail("listing due one-off events: %v", err)
		return
	}
	res.AutoClosed.Candidates = len(due)

	for _, ev := range due {
		done := model.StatusCompleted
		ok, err := s.store.UpdateFields(ctx, ev.ID, model.FieldPatch{Status: &done})
		if err != nil {
			res.AutoClosed.fail("event %d (%s): write failed: %v", ev.ID, ev.Name, err)
			appLog.Error("sweep: auto-close write failed", err, "id", ev.ID)
			continue
		}
		if !ok {
			res.AutoClosed.fail("event %d (%s): deleted mid-sweep", ev.ID, ev.Name)
			continue
		}
		res.AutoClosed.Succeeded++
		appLog.Info("event auto-completed", "id", ev.ID, "name", ev.Name)
	}
}
