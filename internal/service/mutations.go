package service

import (
	"context"

	appLog "stembot/internal/log"
	"stembot/internal/model"
	"stembot/internal/validate"
)

// Edit applies a sparse field patch to an event. Check order, pinned by
// tests: existence first, then patch emptiness, then per-field validation.
func (s *Service) Edit(ctx context.Context, id uint, p model.FieldPatch) (*model.Event, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.NewError(model.CodeNotFound, "event %d not found", id)
	}
	if p.IsEmpty() {
		return nil, model.NewError(model.CodeEmptyUpdate, "no fields supplied for update")
	}

	if err := s.validatePatch(current, &p); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateFields(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The row vanished between the existence check and the update.
		return nil, model.NewError(model.CodeNotFound, "event %d not found", id)
	}

	updated, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	appLog.Info("event updated", "id", id)
	return updated, nil
}

// validatePatch normalizes and checks a patch against the current row.
// Schedule and recurrence checks run on effective values: the patched
// field where present, the stored one otherwise.
func (s *Service) validatePatch(current *model.Event, p *model.FieldPatch) error {
	if p.TouchesSchedule() {
		day := current.OccurrenceDate
		clock := current.OccurrenceTime
		if p.Date != nil {
			d, err := validate.Date(*p.Date)
			if err != nil {
				return err
			}
			day = d
			// Store the canonical form; the store parses it strictly.
			canonical := d.Format(model.DateLayout)
			p.Date = &canonical
		}
		if p.Time != nil {
			c, err := validate.Clock(*p.Time)
			if err != nil {
				return err
			}
			clock = c
			p.Time = &c
		}
		if err := validate.FutureInstant(day, clock, s.opts.Now()); err != nil {
			return err
		}
	}

	if p.FrequencyRule != nil || p.RuleDetail != nil {
		rule := current.FrequencyRule
		detail := current.RuleDetail
		if p.FrequencyRule != nil {
			rule = *p.FrequencyRule
		}
		if p.RuleDetail != nil {
			detail = *p.RuleDetail
		}
		if _, err := validate.RuleWithDetail(rule, detail); err != nil {
			return err
		}
	}

	if p.AutoCloseDelayHours != nil && *p.AutoCloseDelayHours < 0 {
		// A negative delay would make the auto-close deadline precede the
		// occurrence itself.
		return model.NewError(model.CodeInvalidFormat,
			"auto-close delay must be non-negative, got %v", *p.AutoCloseDelayHours)
	}

	if p.Status != nil {
		if err := validate.StatusValue(*p.Status); err != nil {
			return err
		}
		if err := checkTransition(current.Status, *p.Status); err != nil {
			return err
		}
	}
	return nil
}

// checkTransition enforces the status state machine: every transition
// originates from active, and nothing returns an event to active through
// the core.
func checkTransition(from, to model.Status) error {
	if from == to {
		return nil
	}
	if from != model.StatusActive {
		return model.NewError(model.CodeInvalidState,
			"event is already %s", string(from))
	}
	return nil
}

// Complete transitions an active event to completed. Completing an event
// in any other state is an invalid-state error naming the current status.
func (s *Service) Complete(ctx context.Context, id uint) (*model.Event, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.NewError(model.CodeNotFound, "event %d not found", id)
	}
	if current.Status != model.StatusActive {
		return nil, model.NewError(model.CodeInvalidState,
			"event is already %s", string(current.Status))
	}

	done := model.StatusCompleted
	ok, err := s.store.UpdateFields(ctx, id, model.FieldPatch{Status: &done})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewError(model.CodeNotFound, "event %d not found", id)
	}
	current.Status = model.StatusCompleted
	appLog.Info("event completed", "id", id, "name", current.Name)
	return current, nil
}

// Delete removes an event outright.
func (s *Service) Delete(ctx context.Context, id uint) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return model.NewError(model.CodeNotFound, "event %d not found", id)
	}
	appLog.Info("event deleted", "id", id)
	return nil
}
