// Package store is the durable keyed storage for events, backed by
// PostgreSQL through gorm. It never validates business rules; that is the
// validation layer's job. It does reject structurally incomplete records.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appLog "stembot/internal/log"
	"stembot/internal/model"
)

// recentLimit caps the "most recent" moderation listing.
const recentLimit = 10

// Store wraps the gorm handle. All writes are durable before the call
// returns; multi-field updates go out as a single UPDATE so concurrent
// readers never observe a partial patch.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and runs the additive auto-migration.
// Column defaults keep pre-migration rows meaningful: status 'active',
// kind 'one_off', auto_close on with a one hour delay.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.Event{}); err != nil {
		return nil, err
	}
	appLog.Info("database connected and migrated")
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing gorm handle (used by integration tests).
func NewWithDB(db *gorm.DB) *Store { return &Store{db: db} }

// Insert persists a new event and fills in its assigned id.
func (s *Store) Insert(ctx context.Context, ev *model.Event) (uint, error) {
	if ev.Name == "" || ev.OccurrenceDate.IsZero() || ev.OccurrenceTime == "" || ev.CreatedBy == "" {
		return 0, model.NewError(model.CodePersistence, "incomplete event record")
	}
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return 0, model.WrapError(model.CodePersistence, err, "insert event")
	}
	return ev.ID, nil
}

// GetByID returns the event with the given id, or nil when it does not
// exist.
func (s *Store) GetByID(ctx context.Context, id uint) (*model.Event, error) {
	var ev model.Event
	err := s.db.WithContext(ctx).First(&ev, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.WrapError(model.CodePersistence, err, "load event %d", id)
	}
	return &ev, nil
}

// UpdateFields applies a sparse field patch in one atomic UPDATE. It
// returns false, without error, when the id does not exist or the patch is
// empty. The event kind is re-derived whenever the frequency rule changes
// so the two never contradict.
func (s *Store) UpdateFields(ctx context.Context, id uint, p model.FieldPatch) (bool, error) {
	updates, err := patchColumns(p)
	if err != nil {
		return false, err
	}
	if len(updates) == 0 {
		return false, nil
	}
	res := s.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, model.WrapError(model.CodePersistence, res.Error, "update event %d", id)
	}
	return res.RowsAffected > 0, nil
}

// patchColumns translates a FieldPatch into a column update map.
func patchColumns(p model.FieldPatch) (map[string]any, error) {
	updates := map[string]any{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Date != nil {
		day, err := time.ParseInLocation(model.DateLayout, *p.Date, time.Local)
		if err != nil {
			return nil, model.WrapError(model.CodePersistence, err, "unparseable date in patch")
		}
		updates["occurrence_date"] = day
	}
	if p.Time != nil {
		updates["occurrence_time"] = *p.Time
	}
	if p.Link != nil {
		updates["link"] = *p.Link
	}
	if p.FrequencyRule != nil {
		updates["frequency_rule"] = *p.FrequencyRule
		updates["kind"] = model.KindForFrequency(*p.FrequencyRule)
	}
	if p.RuleDetail != nil {
		updates["rule_detail"] = *p.RuleDetail
	}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	if p.AutoClose != nil {
		updates["auto_close"] = *p.AutoClose
	}
	if p.AutoCloseDelayHours != nil {
		updates["auto_close_delay_hours"] = *p.AutoCloseDelayHours
	}
	return updates, nil
}

// Delete removes an event outright. Deletion is not a status; the row is
// gone afterwards.
func (s *Store) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&model.Event{}, id)
	if res.Error != nil {
		return false, model.WrapError(model.CodePersistence, res.Error, "delete event %d", id)
	}
	return res.RowsAffected > 0, nil
}
