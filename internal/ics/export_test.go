package ics

import (
	"strings"
	"testing"
	"time"

	"stembot/internal/model"
)

func TestSerialize(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	events := []model.Event{
		{
			ID:             1,
			Name:           "team lunch",
			OccurrenceDate: time.Date(2026, time.September, 2, 0, 0, 0, 0, time.Local),
			OccurrenceTime: "12:30",
			Link:           "https://example.com/lunch",
			Kind:           model.KindOneOff,
			Status:         model.StatusActive,
			FrequencyRule:  model.FrequencyNone,
		},
		{
			ID:             2,
			Name:           "standup",
			OccurrenceDate: time.Date(2026, time.September, 7, 0, 0, 0, 0, time.Local),
			OccurrenceTime: "09:30",
			Kind:           model.KindRecurring,
			Status:         model.StatusActive,
			FrequencyRule:  "weekly on Monday",
		},
	}

	out := Serialize(events, now)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"METHOD:PUBLISH",
		"PRODID:-//stembot//event calendar//EN",
		"UID:event-1@stembot",
		"UID:event-2@stembot",
		"SUMMARY:team lunch",
		"SUMMARY:standup",
		"URL:https://example.com/lunch",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q:\n%s", want, out)
		}
	}

	// Only the recurring event carries an RRULE.
	if got := strings.Count(out, "RRULE"); got != 1 {
		t.Errorf("feed has %d RRULE lines, want 1:\n%s", got, out)
	}
	if !strings.Contains(out, "FREQ=WEEKLY") {
		t.Errorf("recurring event missing weekly RRULE:\n%s", out)
	}
}

func TestSerializeEmpty(t *testing.T) {
	out := Serialize(nil, time.Now())
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("empty feed = %q", out)
	}
}

func TestSerializeBadRuleStillExported(t *testing.T) {
	// An event whose detail no longer matches its rule is exported
	// without an RRULE instead of breaking the whole feed.
	events := []model.Event{
		{
			ID:             3,
			Name:           "drifted",
			OccurrenceDate: time.Date(2026, time.September, 15, 0, 0, 0, 0, time.Local),
			OccurrenceTime: "09:00",
			Kind:           model.KindRecurring,
			Status:         model.StatusActive,
			FrequencyRule:  "monthly (same weekday position)",
			RuleDetail:     "day 15",
		},
	}

	out := Serialize(events, time.Now())
	if !strings.Contains(out, "UID:event-3@stembot") {
		t.Errorf("event missing from feed:\n%s", out)
	}
	if strings.Contains(out, "RRULE") {
		t.Errorf("unparseable rule produced an RRULE:\n%s", out)
	}
}
