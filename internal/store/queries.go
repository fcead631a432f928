package store

import (
	"context"
	"time"

	"stembot/internal/model"
)

// WeekActive returns active events whose occurrence falls inside the
// current Monday-start calendar week, ordered by (date, time) ascending.
// This feeds the end-user listing.
func (s *Store) WeekActive(ctx context.Context, now time.Time) ([]model.Event, error) {
	start, end := weekWindow(now)
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("status = ? AND occurrence_date BETWEEN ? AND ?", model.StatusActive, start, end).
		Order("occurrence_date, occurrence_time").
		Find(&events).Error
	if err != nil {
		return nil, model.WrapError(model.CodePersistence, err, "week listing")
	}
	return events, nil
}

// DueRecurring returns active recurring events whose occurrence instant is
// at or before now: the candidates for recurrence advancement. SQL narrows
// by calendar day; the exact instant comparison happens here, on the
// combined date+time, so the boundary hour is handled correctly.
func (s *Store) DueRecurring(ctx context.Context, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("status = ? AND kind = ? AND occurrence_date <= ?",
			model.StatusActive, model.KindRecurring, dayOf(now)).
		Order("occurrence_date, occurrence_time").
		Find(&events).Error
	if err != nil {
		return nil, model.WrapError(model.CodePersistence, err, "due recurring listing")
	}
	due := events[:0]
	for _, ev := range events {
		if !ev.OccurrenceAt().After(now) {
			due = append(due, ev)
		}
	}
	return due, nil
}

// DueAutoClose returns active one-off events with auto-close enabled whose
// occurrence instant plus the per-event delay is at or before now: the
// candidates for auto-completion.
func (s *Store) DueAutoClose(ctx context.Context, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("status = ? AND kind = ? AND auto_close = ? AND occurrence_date <= ?",
			model.StatusActive, model.KindOneOff, true, dayOf(now)).
		Order("occurrence_date, occurrence_time").
		Find(&events).Error
	if err != nil {
		return nil, model.WrapError(model.CodePersistence, err, "due auto-close listing")
	}
	due := events[:0]
	for _, ev := range events {
		if !ev.AutoCloseDeadline().After(now) {
			due = append(due, ev)
		}
	}
	return due, nil
}

// ActiveUpcoming returns active events up to horizon days out, ordered by
// (date, time) ascending. This feeds the ICS export.
func (s *Store) ActiveUpcoming(ctx context.Context, now time.Time, horizonDays int) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("status = ? AND occurrence_date BETWEEN ? AND ?",
			model.StatusActive, dayOf(now), dayOf(now).AddDate(0, 0, horizonDays)).
		Order("occurrence_date, occurrence_time").
		Find(&events).Error
	if err != nil {
		return nil, model.WrapError(model.CodePersistence, err, "upcoming listing")
	}
	return events, nil
}

// Moderation returns events for the administrator listing. Every filter
// orders by (date, time) descending except FilterRecent, which follows
// insertion order descending and caps at a fixed count.
func (s *Store) Moderation(ctx context.Context, filter model.ModerationFilter, now time.Time) ([]model.Event, error) {
	q := s.db.WithContext(ctx).Model(&model.Event{})

	switch filter {
	case model.FilterAll:
		// no predicate
	case model.FilterActive, model.FilterCompleted, model.FilterCancelled, model.FilterPostponed:
		q = q.Where("status = ?", model.Status(filter))
	case model.FilterWeek:
		start, end := weekWindow(now)
		q = q.Where("occurrence_date BETWEEN ? AND ?", start, end)
	case model.FilterRecent:
		var events []model.Event
		err := q.Order("id DESC").Limit(recentLimit).Find(&events).Error
		if err != nil {
			return nil, model.WrapError(model.CodePersistence, err, "moderation listing")
		}
		return events, nil
	default:
		return nil, model.NewError(model.CodeInvalidFormat, "unknown moderation filter %q", string(filter))
	}

	var events []model.Event
	err := q.Order("occurrence_date DESC, occurrence_time DESC").Find(&events).Error
	if err != nil {
		return nil, model.WrapError(model.CodePersistence, err, "moderation listing")
	}
	return events, nil
}

// weekWindow returns the Monday and Sunday of the week containing now.
func weekWindow(now time.Time) (time.Time, time.Time) {
	// time.Weekday counts Sunday as 0; shift so Monday starts the week.
	offset := (int(now.Weekday()) + 6) % 7
	start := dayOf(now).AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
