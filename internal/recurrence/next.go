package recurrence

import (
	"errors"
	"time"
)

// ErrNoRecurrence is returned when the sentinel "does not repeat" rule is
// asked for a next occurrence. The calculator never silently advances a
// one-off event.
var ErrNoRecurrence = errors.New("rule does not repeat")

// Next computes the calendar day of the occurrence that follows current
// under the given rule. The clock time of an event is untouched by
// advancement, so Next operates on dates only.
//
// For every rule except the sentinel the result is strictly later than
// current. Weekly and biweekly rules trust the stored cadence: they add
// exactly 7 or 14 days without re-deriving the weekday.
func Next(current time.Time, r Rule) (time.Time, error) {
	switch r.Kind {
	case FreqNone:
		return time.Time{}, ErrNoRecurrence

	case FreqWeekly:
		return current.AddDate(0, 0, 7), nil

	case FreqBiweekly:
		return current.AddDate(0, 0, 14), nil

	case FreqMonthlyDay:
		day := r.MonthDay
		if day == 0 {
			day = current.Day()
		}
		y, m := nextMonth(current.Year(), current.Month())
		return clampedDate(y, m, day, current), nil

	case FreqMonthlyWeekday:
		y, m := nextMonth(current.Year(), current.Month())
		return nthWeekdayOfMonth(y, m, r.Weekday, r.Ordinal, current.Location()), nil

	case FreqYearly:
		return clampedDate(current.Year()+1, current.Month(), current.Day(), current), nil

	case FreqBusinessDays:
		d := current.AddDate(0, 0, 1)
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		return d, nil

	case FreqDaily, FreqUnknown:
		// FreqUnknown is the documented degenerate fallback: advance one
		// day. The caller logs the unrecognized rule text.
		return current.AddDate(0, 0, 1), nil
	}

	return time.Time{}, errors.New("unhandled frequency kind")
}

// nextMonth advances (year, month) by one, rolling December into January.
func nextMonth(y int, m time.Month) (int, time.Month) {
	if m == time.December {
		return y + 1, time.January
	}
	return y, m + 1
}

// clampedDate builds a date in year y / month m, clamping day to the last
// valid day of that month. Without clamping, "monthly on day 31" applied in
// January would normalize into March.
func clampedDate(y int, m time.Month, day int, ref time.Time) time.Time {
	if last := daysInMonth(y, m); day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, ref.Location())
}

func daysInMonth(y int, m time.Month) int {
	// Day zero of the following month is the last day of m.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nthWeekdayOfMonth finds the ord-th occurrence of wd in year y / month m
// by scanning forward from the first day of the month. OrdinalLast keeps
// the final match.
func nthWeekdayOfMonth(y int, m time.Month, wd time.Weekday, ord Ordinal, loc *time.Location) time.Time {
	var last time.Time
	count := 0
	for day := 1; day <= daysInMonth(y, m); day++ {
		d := time.Date(y, m, day, 0, 0, 0, 0, loc)
		if d.Weekday() != wd {
			continue
		}
		count++
		last = d
		if ord != OrdinalLast && count == int(ord) {
			return d
		}
	}
	// OrdinalLast, or an ordinal beyond the matches in this month (a fifth
	// Monday that does not exist): fall back to the final match, which is
	// always set since every weekday occurs at least four times a month.
	return last
}
