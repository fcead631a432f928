package model

// ModerationFilter selects which slice of the event table a moderation
// listing returns.
type ModerationFilter string

const (
	FilterAll       ModerationFilter = "all"
	FilterActive    ModerationFilter = "active"
	FilterCompleted ModerationFilter = "completed"
	FilterCancelled ModerationFilter = "cancelled"
	FilterPostponed ModerationFilter = "postponed"
	// FilterWeek restricts to the current calendar week, any status.
	FilterWeek ModerationFilter = "week"
	// FilterRecent returns the most recently created events, insertion
	// order descending, capped at a fixed count.
	FilterRecent ModerationFilter = "recent"
)

// Valid reports whether f is a known moderation filter.
func (f ModerationFilter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted, FilterCancelled,
		FilterPostponed, FilterWeek, FilterRecent:
		return true
	}
	return false
}

// DedupStats summarizes a deduplication sweep: how many duplicate groups
// were found and how many rows were removed.
type DedupStats struct {
	Groups  int `json:"groups"`
	Removed int `json:"removed"`
}
