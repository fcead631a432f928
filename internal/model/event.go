package model

import "time"

// Input/storage layouts for the naive calendar-day and clock-time values.
// Dates use the DD/MM/YYYY convention of the chat commands; times are a
// 24-hour clock. Neither carries a timezone: all values are local.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// FrequencyNone is the sentinel frequency rule of one-off events.
const FrequencyNone = "does not repeat"

// Status is the lifecycle state of an event.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusPostponed Status = "postponed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusPostponed:
		return true
	}
	return false
}

// Kind distinguishes one-off from recurring events. It is derived from the
// frequency rule and must never contradict it.
type Kind string

const (
	KindOneOff    Kind = "one_off"
	KindRecurring Kind = "recurring"
)

// KindForFrequency derives the event kind from a frequency rule string.
func KindForFrequency(rule string) Kind {
	if rule == "" || rule == FrequencyNone {
		return KindOneOff
	}
	return KindRecurring
}

// Event is the central entity: a named occurrence with an optional
// recurrence rule and a status lifecycle.
//
// OccurrenceDate/OccurrenceTime always describe the current, not yet
// resolved occurrence. For recurring events the sweeper overwrites them in
// place when advancing; no historical occurrence log is kept.
type Event struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name string `gorm:"not null" json:"name"`

	// Calendar day of the current occurrence (date component only).
	OccurrenceDate time.Time `gorm:"type:date;not null;index:idx_events_occurrence,priority:1" json:"occurrence_date"`
	// Clock time "HH:MM"; zero-padded so lexicographic order matches
	// chronological order.
	OccurrenceTime string `gorm:"type:varchar(5);not null;index:idx_events_occurrence,priority:2" json:"occurrence_time"`

	Link      string `json:"link,omitempty"`
	CreatedBy string `gorm:"not null" json:"created_by"`

	Kind   Kind   `gorm:"type:varchar(16);not null;default:one_off" json:"kind"`
	Status Status `gorm:"type:varchar(16);not null;default:active;index" json:"status"`

	// FrequencyRule holds the canonical rule text ("does not repeat",
	// "weekly on Monday", ...); RuleDetail the optional qualifier
	// ("day 15", "second Tuesday", "22 July").
	FrequencyRule string `gorm:"not null;default:'does not repeat'" json:"frequency_rule"`
	RuleDetail    string `json:"rule_detail,omitempty"`

	// Auto-close applies to one-off events only: once the occurrence plus
	// the delay has passed, the sweeper completes the event.
	AutoClose           bool    `gorm:"not null;default:true" json:"auto_close"`
	AutoCloseDelayHours float64 `gorm:"not null;default:1" json:"auto_close_delay_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OccurrenceAt combines the occurrence date and time into a single local
// instant. A malformed stored time yields midnight of the occurrence day.
func (e Event) OccurrenceAt() time.Time {
	return CombineDateTime(e.OccurrenceDate, e.OccurrenceTime)
}

// AutoCloseDeadline is the instant at which auto-completion becomes
// eligible for a one-off event.
func (e Event) AutoCloseDeadline() time.Time {
	delay := time.Duration(e.AutoCloseDelayHours * float64(time.Hour))
	return e.OccurrenceAt().Add(delay)
}

// CombineDateTime merges a calendar day and an "HH:MM" clock time into a
// local time.Time.
func CombineDateTime(day time.Time, clock string) time.Time {
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		t = time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
}
