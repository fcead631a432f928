package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	appLog "stembot/internal/log"
	"stembot/internal/model"
)

// Deduplicate finds groups of active events identical in (name, date,
// time, kind), keeps the lowest id of each group, and deletes the rest in
// one transaction. It reports how many duplicate groups existed and how
// many rows were removed.
func (s *Store) Deduplicate(ctx context.Context) (model.DedupStats, error) {
	var stats model.DedupStats

	var active []model.Event
	err := s.db.WithContext(ctx).
		Where("status = ?", model.StatusActive).
		Order("id").
		Find(&active).Error
	if err != nil {
		return stats, model.WrapError(model.CodePersistence, err, "dedup scan")
	}

	groups, losers := dedupPlan(active)
	stats.Groups = groups
	if len(losers) == 0 {
		return stats, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Event{}, losers)
		if res.Error != nil {
			return res.Error
		}
		stats.Removed = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return model.DedupStats{Groups: groups}, model.WrapError(model.CodePersistence, err, "dedup delete")
	}

	appLog.Info("dedup sweep finished", "groups", stats.Groups, "removed", stats.Removed)
	return stats, nil
}

// dedupPlan decides, for a list of active events sorted by id ascending,
// which ids to delete. The first (lowest-id) member of each duplicate
// group survives. Pure function so the grouping rule is testable without a
// database.
func dedupPlan(events []model.Event) (groups int, losers []uint) {
	seen := map[string]bool{}
	counted := map[string]bool{}
	for _, ev := range events {
		key := fmt.Sprintf("%s|%s|%s|%s",
			ev.Name, ev.OccurrenceDate.Format(model.DateLayout), ev.OccurrenceTime, ev.Kind)
		if !seen[key] {
			seen[key] = true
			continue
		}
		if !counted[key] {
			counted[key] = true
			groups++
		}
		losers = append(losers, ev.ID)
	}
	return groups, losers
}
