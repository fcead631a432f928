package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"stembot/internal/model"
)

// FrequencyKind is the closed set of recurrence patterns. Rules are parsed
// once, at validation time, into a tagged Rule value; the calculator
// switches on the tag instead of sniffing free text.
type FrequencyKind int

const (
	// FreqNone is the sentinel of one-off events ("does not repeat").
	FreqNone FrequencyKind = iota
	FreqWeekly
	FreqBiweekly
	// FreqMonthlyDay repeats on the same calendar day number each month.
	FreqMonthlyDay
	// FreqMonthlyWeekday repeats on the Nth (or last) named weekday of
	// each month, e.g. "the second Tuesday".
	FreqMonthlyWeekday
	FreqYearly
	FreqBusinessDays
	FreqDaily
	// FreqUnknown marks rule text outside the vocabulary. The calculator
	// degrades to a one-day advance; callers are expected to flag it.
	FreqUnknown
)

// Ordinal selects which matching weekday of the month a monthly-weekday
// rule fires on. OrdinalLast means the final match in the month.
type Ordinal int

const (
	OrdinalFirst  Ordinal = 1
	OrdinalSecond Ordinal = 2
	OrdinalThird  Ordinal = 3
	OrdinalFourth Ordinal = 4
	OrdinalLast   Ordinal = -1
)

// Rule is the parsed form of (frequency_rule, rule_detail).
type Rule struct {
	Kind FrequencyKind

	// Weekday applies to weekly, biweekly and monthly-weekday rules.
	Weekday time.Weekday
	// Ordinal applies to monthly-weekday rules.
	Ordinal Ordinal
	// MonthDay applies to monthly-day rules (0 means "use the current
	// occurrence's day") and to yearly details that name a day.
	MonthDay int
	// Month applies to yearly details naming a month.
	Month time.Month

	// Raw preserves the original rule text for unknown rules so the
	// degenerate fallback can be reported meaningfully.
	Raw string
}

const (
	ruleWeeklyPrefix   = "weekly on "
	ruleBiweeklyPrefix = "biweekly on "
	ruleMonthlyDay     = "monthly (same day)"
	ruleMonthlyWeekday = "monthly (same weekday position)"
	ruleYearly         = "yearly (same day)"
	ruleBusinessDays   = "every business day"
	ruleDaily          = "daily"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var ordinalNames = map[string]Ordinal{
	"first":  OrdinalFirst,
	"second": OrdinalSecond,
	"third":  OrdinalThird,
	"fourth": OrdinalFourth,
	"last":   OrdinalLast,
}

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// Parse maps a frequency rule string plus its optional detail onto a Rule.
//
// A detail that does not fit the rule returns a typed invalid-detail error;
// weekly, biweekly, daily and business-day rules ignore any detail (it is
// accepted and discarded). Unrecognized rule text is not an error: it
// produces a FreqUnknown rule so the mismatch surfaces at advance time
// rather than silently blocking edits made through older vocabularies.
func Parse(rule, detail string) (Rule, error) {
	text := strings.TrimSpace(rule)
	lower := strings.ToLower(text)

	switch {
	case text == "" || lower == model.FrequencyNone:
		return Rule{Kind: FreqNone, Raw: text}, nil

	case strings.HasPrefix(lower, ruleWeeklyPrefix):
		wd, err := parseWeekday(lower[len(ruleWeeklyPrefix):])
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: FreqWeekly, Weekday: wd, Raw: text}, nil

	case strings.HasPrefix(lower, ruleBiweeklyPrefix):
		wd, err := parseWeekday(lower[len(ruleBiweeklyPrefix):])
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: FreqBiweekly, Weekday: wd, Raw: text}, nil

	case lower == ruleMonthlyDay:
		day, err := parseDayDetail(detail)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: FreqMonthlyDay, MonthDay: day, Raw: text}, nil

	case lower == ruleMonthlyWeekday:
		ord, wd, err := parseOrdinalWeekdayDetail(detail)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: FreqMonthlyWeekday, Ordinal: ord, Weekday: wd, Raw: text}, nil

	case lower == ruleYearly:
		month, day, err := parseYearlyDetail(detail)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: FreqYearly, Month: month, MonthDay: day, Raw: text}, nil

	case lower == ruleBusinessDays:
		return Rule{Kind: FreqBusinessDays, Raw: text}, nil

	case lower == ruleDaily:
		return Rule{Kind: FreqDaily, Raw: text}, nil
	}

	return Rule{Kind: FreqUnknown, Raw: text}, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.TrimSpace(name)]
	if !ok {
		return 0, model.NewError(model.CodeInvalidDetail, "unknown weekday %q", strings.TrimSpace(name))
	}
	return wd, nil
}

// parseDayDetail accepts "day N" with N in [1, 31]. An empty detail is
// valid: the calculator then keeps the current occurrence's day number.
func parseDayDetail(detail string) (int, error) {
	d := strings.TrimSpace(strings.ToLower(detail))
	if d == "" {
		return 0, nil
	}
	rest, ok := strings.CutPrefix(d, "day ")
	if !ok {
		return 0, model.NewError(model.CodeInvalidDetail,
			"monthly rules expect a detail like %q, got %q", "day 15", detail)
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 || n > 31 {
		return 0, model.NewError(model.CodeInvalidDetail, "invalid day number in %q", detail)
	}
	return n, nil
}

// parseOrdinalWeekdayDetail accepts "<ordinal> <weekday>", e.g.
// "second Tuesday" or "last Friday". The detail is mandatory: without it
// the rule is not computable.
func parseOrdinalWeekdayDetail(detail string) (Ordinal, time.Weekday, error) {
	fields := strings.Fields(strings.ToLower(detail))
	if len(fields) != 2 {
		return 0, 0, model.NewError(model.CodeInvalidDetail,
			"monthly weekday rules expect a detail like %q, got %q", "second Tuesday", detail)
	}
	ord, ok := ordinalNames[fields[0]]
	if !ok {
		return 0, 0, model.NewError(model.CodeInvalidDetail, "unknown ordinal %q", fields[0])
	}
	wd, ok := weekdayNames[fields[1]]
	if !ok {
		return 0, 0, model.NewError(model.CodeInvalidDetail, "unknown weekday %q", fields[1])
	}
	return ord, wd, nil
}

// parseYearlyDetail accepts a month name optionally combined with a day,
// in either order: "July", "22 July", "July 22". Empty detail is valid;
// the calculator then anchors on the current occurrence's month and day.
func parseYearlyDetail(detail string) (time.Month, int, error) {
	d := strings.TrimSpace(strings.ToLower(detail))
	if d == "" {
		return 0, 0, nil
	}

	var month time.Month
	day := 0
	for _, f := range strings.Fields(d) {
		if m, ok := monthNames[f]; ok {
			month = m
			continue
		}
		if n, err := strconv.Atoi(f); err == nil && n >= 1 && n <= 31 {
			day = n
			continue
		}
		// Connector words ("of") are tolerated; anything else is noise.
		if f == "of" {
			continue
		}
		return 0, 0, model.NewError(model.CodeInvalidDetail,
			"yearly rules expect a month name, optionally with a day (e.g. %q), got %q", "22 July", detail)
	}
	if month == 0 {
		return 0, 0, model.NewError(model.CodeInvalidDetail,
			"yearly rules expect a recognized month name, got %q", detail)
	}
	return month, day, nil
}

// String renders the canonical rule text for a parsed Rule, mainly for
// logging.
func (r Rule) String() string {
	switch r.Kind {
	case FreqNone:
		return model.FrequencyNone
	case FreqWeekly:
		return ruleWeeklyPrefix + r.Weekday.String()
	case FreqBiweekly:
		return ruleBiweeklyPrefix + r.Weekday.String()
	case FreqMonthlyDay:
		return ruleMonthlyDay
	case FreqMonthlyWeekday:
		return ruleMonthlyWeekday
	case FreqYearly:
		return ruleYearly
	case FreqBusinessDays:
		return ruleBusinessDays
	case FreqDaily:
		return ruleDaily
	}
	return fmt.Sprintf("unknown rule %q", r.Raw)
}
