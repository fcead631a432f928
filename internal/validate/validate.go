// Package validate rejects malformed or semantically invalid input before
// it reaches the store. Every check is independent and returns a typed
// *model.Error; the reference time is always passed in so tests control it.
package validate

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"stembot/internal/model"
	"stembot/internal/recurrence"
)

var shapeValidator = validator.New()

// Shape runs struct-tag validation ("required" etc.) on an input value and
// converts the first failure into a typed error naming the field.
func Shape(in any) error {
	err := shapeValidator.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return model.NewError(model.CodeInvalidFormat, "field %s is %s",
			strings.ToLower(fe.Field()), describeTag(fe.Tag()))
	}
	return model.WrapError(model.CodeInvalidFormat, err, "invalid input")
}

func describeTag(tag string) string {
	if tag == "required" {
		return "required"
	}
	return "invalid (" + tag + ")"
}

// Date parses a DD/MM/YYYY token. time.Parse enforces calendar rules, so
// "31/02/2024" is rejected, not normalized.
func Date(s string) (time.Time, error) {
	d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, model.NewError(model.CodeInvalidFormat,
			"invalid date %q, expected DD/MM/YYYY", s)
	}
	return d, nil
}

// Clock parses an HH:MM 24-hour token and returns it zero-padded.
func Clock(s string) (string, error) {
	t, err := time.Parse(model.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", model.NewError(model.CodeInvalidFormat,
			"invalid time %q, expected HH:MM (24-hour)", s)
	}
	return t.Format(model.TimeLayout), nil
}

// FutureInstant requires the combined date+clock to be strictly later than
// now. It applies to creation and to any edit that changes date or time.
func FutureInstant(day time.Time, clock string, now time.Time) error {
	at := model.CombineDateTime(day, clock)
	if !at.After(now) {
		return model.NewError(model.CodeInvalidSchedule,
			"event date and time must be in the future")
	}
	return nil
}

// RuleWithDetail cross-validates the rule detail against the frequency rule
// and returns the parsed tagged rule. Monthly rules expect a "day N" or
// ordinal+weekday detail, yearly rules a month name; weekly, biweekly,
// daily and business-day rules accept and discard any detail.
func RuleWithDetail(rule, detail string) (recurrence.Rule, error) {
	return recurrence.Parse(rule, detail)
}

// StatusValue checks a status token against the closed status set.
func StatusValue(s model.Status) error {
	if !s.Valid() {
		return model.NewError(model.CodeInvalidFormat, "unknown status %q", string(s))
	}
	return nil
}
