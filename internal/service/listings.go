package service

import (
	"context"

	"stembot/internal/model"
)

// ListForUsers returns the active events of the current calendar week,
// ordered by (date, time) ascending. An empty week yields an empty slice,
// never an error.
func (s *Service) ListForUsers(ctx context.Context) ([]model.Event, error) {
	return s.store.WeekActive(ctx, s.opts.Now())
}

// ListForModeration returns events for the administrator listing under the
// chosen filter.
func (s *Service) ListForModeration(ctx context.Context, filter model.ModerationFilter) ([]model.Event, error) {
	if !filter.Valid() {
		return nil, model.NewError(model.CodeInvalidFormat, "unknown moderation filter %q", string(filter))
	}
	return s.store.Moderation(ctx, filter, s.opts.Now())
}

// UpcomingForExport returns the active events inside the export horizon,
// feeding the ICS feed.
func (s *Service) UpcomingForExport(ctx context.Context) ([]model.Event, error) {
	return s.store.ActiveUpcoming(ctx, s.opts.Now(), s.opts.ExportHorizonDays)
}

// Deduplicate runs the duplicate sweep over active events.
func (s *Service) Deduplicate(ctx context.Context) (model.DedupStats, error) {
	return s.store.Deduplicate(ctx)
}
