package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Mapping from parsed rules onto iCalendar RRULEs, used by the ICS export.
// The stored cadence semantics (weekly = +7 days from the stored date)
// line up with FREQ=WEEKLY anchored on the event's DTSTART.

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRuleString renders r as an RRULE property value ("FREQ=WEEKLY;..."),
// anchored on start. The sentinel rule yields an empty string: one-off
// events carry no RRULE.
func RRuleString(r Rule, start time.Time) (string, error) {
	opt, ok := roption(r, start)
	if !ok {
		return "", nil
	}
	// NewRRule validates the option combination before we serialize it.
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

func roption(r Rule, start time.Time) (rrule.ROption, bool) {
	opt := rrule.ROption{Dtstart: start}

	switch r.Kind {
	case FreqNone:
		return opt, false

	case FreqWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rruleWeekdays[r.Weekday]}

	case FreqBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
		opt.Byweekday = []rrule.Weekday{rruleWeekdays[r.Weekday]}

	case FreqMonthlyDay:
		day := r.MonthDay
		if day == 0 {
			day = start.Day()
		}
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{day}

	case FreqMonthlyWeekday:
		// Nth has a pointer receiver, so the map value needs a home first.
		wd := rruleWeekdays[r.Weekday]
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = []rrule.Weekday{wd.Nth(int(r.Ordinal))}

	case FreqYearly:
		opt.Freq = rrule.YEARLY

	case FreqBusinessDays:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

	case FreqDaily, FreqUnknown:
		opt.Freq = rrule.DAILY
	}

	return opt, true
}
