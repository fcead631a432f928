// Package service is the inbound surface of the event engine. The chat
// command layer calls it and renders whatever comes back; every mutation
// returns the resulting event or a typed *model.Error, every listing
// returns an ordered slice (empty slice is the valid empty case).
package service

import (
	"context"
	"time"

	appLog "stembot/internal/log"
	"stembot/internal/model"
	"stembot/internal/recurrence"
	"stembot/internal/validate"
)

// Store is the persistence surface the service depends on. The gorm store
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	Insert(ctx context.Context, ev *model.Event) (uint, error)
	GetByID(ctx context.Context, id uint) (*model.Event, error)
	UpdateFields(ctx context.Context, id uint, p model.FieldPatch) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	WeekActive(ctx context.Context, now time.Time) ([]model.Event, error)
	ActiveUpcoming(ctx context.Context, now time.Time, horizonDays int) ([]model.Event, error)
	Moderation(ctx context.Context, filter model.ModerationFilter, now time.Time) ([]model.Event, error)
	Deduplicate(ctx context.Context) (model.DedupStats, error)
}

// Options tunes service defaults.
type Options struct {
	// AutoCloseDefaultHours is applied to one-off events whose creator
	// did not choose a delay.
	AutoCloseDefaultHours float64
	// ExportHorizonDays bounds the ICS export listing.
	ExportHorizonDays int
	// Now is the clock; defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// Service wires validation and the store together.
type Service struct {
	store Store
	opts  Options
}

// New builds a Service with sane defaults filled in.
func New(store Store, opts Options) *Service {
	if opts.AutoCloseDefaultHours <= 0 {
		opts.AutoCloseDefaultHours = 1
	}
	if opts.ExportHorizonDays <= 0 {
		opts.ExportHorizonDays = 90
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, opts: opts}
}

// OneOffInput carries a create_one_off request.
type OneOffInput struct {
	Name      string `validate:"required"`
	Date      string `validate:"required"` // DD/MM/YYYY
	Time      string `validate:"required"` // HH:MM
	Link      string
	CreatedBy string `validate:"required"`

	// AutoClose defaults to true, AutoCloseDelayHours to the service
	// default, when left nil.
	AutoClose           *bool
	AutoCloseDelayHours *float64
}

// RecurringInput carries a create_recurring request.
type RecurringInput struct {
	Name          string `validate:"required"`
	Date          string `validate:"required"`
	Time          string `validate:"required"`
	Link          string
	FrequencyRule string `validate:"required"`
	RuleDetail    string
	CreatedBy     string `validate:"required"`
}

// CreateOneOff validates and stores a one-off event.
func (s *Service) CreateOneOff(ctx context.Context, in OneOffInput) (*model.Event, error) {
	if err := validate.Shape(in); err != nil {
		return nil, err
	}
	day, clock, err := s.checkSchedule(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	autoClose := true
	if in.AutoClose != nil {
		autoClose = *in.AutoClose
	}
	delay := s.opts.AutoCloseDefaultHours
	if in.AutoCloseDelayHours != nil {
		if *in.AutoCloseDelayHours < 0 {
			return nil, model.NewError(model.CodeInvalidFormat,
				"auto-close delay must be non-negative, got %v", *in.AutoCloseDelayHours)
		}
		delay = *in.AutoCloseDelayHours
	}

	ev := &model.Event{
		Name:                in.Name,
		OccurrenceDate:      day,
		OccurrenceTime:      clock,
		Link:                in.Link,
		CreatedBy:           in.CreatedBy,
		Kind:                model.KindOneOff,
		Status:              model.StatusActive,
		FrequencyRule:       model.FrequencyNone,
		AutoClose:           autoClose,
		AutoCloseDelayHours: delay,
	}
	if _, err := s.store.Insert(ctx, ev); err != nil {
		return nil, err
	}
	appLog.Info("one-off event created", "id", ev.ID, "name", ev.Name,
		"date", in.Date, "time", clock)
	return ev, nil
}

// CreateRecurring validates and stores a recurring event. Passing the
// sentinel rule falls back to a one-off creation with defaults, mirroring
// how the chat command offers one frequency dropdown for both shapes.
func (s *Service) CreateRecurring(ctx context.Context, in RecurringInput) (*model.Event, error) {
	if err := validate.Shape(in); err != nil {
		return nil, err
	}

	rule, err := validate.RuleWithDetail(in.FrequencyRule, in.RuleDetail)
	if err != nil {
		return nil, err
	}
	if rule.Kind == recurrence.FreqNone {
		return s.CreateOneOff(ctx, OneOffInput{
			Name: in.Name, Date: in.Date, Time: in.Time,
			Link: in.Link, CreatedBy: in.CreatedBy,
		})
	}
	if rule.Kind == recurrence.FreqUnknown {
		// Kept storable so rows written under older vocabularies stay
		// editable, but it will only ever advance one day at a time.
		appLog.Warn("storing unrecognized frequency rule", "rule", in.FrequencyRule)
	}

	day, clock, err := s.checkSchedule(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	ev := &model.Event{
		Name:           in.Name,
		OccurrenceDate: day,
		OccurrenceTime: clock,
		Link:           in.Link,
		CreatedBy:      in.CreatedBy,
		Kind:           model.KindRecurring,
		Status:         model.StatusActive,
		FrequencyRule:  in.FrequencyRule,
		RuleDetail:     in.RuleDetail,
	}
	if _, err := s.store.Insert(ctx, ev); err != nil {
		return nil, err
	}
	appLog.Info("recurring event created", "id", ev.ID, "name", ev.Name,
		"rule", in.FrequencyRule, "detail", in.RuleDetail)
	return ev, nil
}

// checkSchedule parses and future-checks a date+time pair.
func (s *Service) checkSchedule(date, clock string) (time.Time, string, error) {
	day, err := validate.Date(date)
	if err != nil {
		return time.Time{}, "", err
	}
	canonical, err := validate.Clock(clock)
	if err != nil {
		return time.Time{}, "", err
	}
	if err := validate.FutureInstant(day, canonical, s.opts.Now()); err != nil {
		return time.Time{}, "", err
	}
	return day, canonical, nil
}
