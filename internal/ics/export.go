// Package ics renders the active event table as an iCalendar feed so
// calendar clients can subscribe to the same schedule the chat bot
// announces. Recurring events carry an RRULE derived from their parsed
// frequency rule.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "stembot/internal/log"
	"stembot/internal/model"
	"stembot/internal/recurrence"
)

const (
	productID = "-//stembot//event calendar//EN"

	// defaultDuration is used for the DTEND of every exported event; the
	// engine itself has no notion of event length.
	defaultDuration = time.Hour
)

// Build converts events into a VCALENDAR. Events whose rule cannot be
// rendered as an RRULE are exported without one (the single stored
// occurrence still appears); the failure is logged, never fatal.
func Build(events []model.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		ve := cal.AddEvent(fmt.Sprintf("event-%d@stembot", ev.ID))
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Name)

		start := ev.OccurrenceAt()
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(defaultDuration))

		if ev.Link != "" {
			ve.SetURL(ev.Link)
		}

		if ev.Kind != model.KindRecurring {
			continue
		}
		rule, err := recurrence.Parse(ev.FrequencyRule, ev.RuleDetail)
		if err != nil {
			appLog.Error("ics export: rule parse failed", err, "id", ev.ID)
			continue
		}
		rr, err := recurrence.RRuleString(rule, start)
		if err != nil {
			appLog.Error("ics export: rrule mapping failed", err, "id", ev.ID)
			continue
		}
		if rr != "" {
			ve.AddRrule(rr)
		}
	}

	return cal
}

// Serialize renders the feed as ICS text.
func Serialize(events []model.Event, now time.Time) string {
	return Build(events, now).Serialize()
}
