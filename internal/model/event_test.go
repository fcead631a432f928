package model

import (
	"errors"
	"testing"
	"time"
)

func TestKindForFrequency(t *testing.T) {
	tests := []struct {
		rule string
		want Kind
	}{
		{"", KindOneOff},
		{FrequencyNone, KindOneOff},
		{"weekly on Monday", KindRecurring},
		{"daily", KindRecurring},
	}
	for _, tt := range tests {
		if got := KindForFrequency(tt.rule); got != tt.want {
			t.Errorf("KindForFrequency(%q) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestOccurrenceAt(t *testing.T) {
	e := Event{
		OccurrenceDate: time.Date(2026, time.July, 22, 0, 0, 0, 0, time.UTC),
		OccurrenceTime: "19:30",
	}
	want := time.Date(2026, time.July, 22, 19, 30, 0, 0, time.Local)
	if got := e.OccurrenceAt(); !got.Equal(want) {
		t.Errorf("OccurrenceAt() = %v, want %v", got, want)
	}

	// Malformed stored time degrades to midnight rather than panicking.
	e.OccurrenceTime = "late"
	want = time.Date(2026, time.July, 22, 0, 0, 0, 0, time.Local)
	if got := e.OccurrenceAt(); !got.Equal(want) {
		t.Errorf("OccurrenceAt() with bad time = %v, want midnight", got)
	}
}

func TestAutoCloseDeadline(t *testing.T) {
	e := Event{
		OccurrenceDate:      time.Date(2026, time.July, 22, 0, 0, 0, 0, time.UTC),
		OccurrenceTime:      "19:00",
		AutoCloseDelayHours: 1.5,
	}
	want := time.Date(2026, time.July, 22, 20, 30, 0, 0, time.Local)
	if got := e.AutoCloseDeadline(); !got.Equal(want) {
		t.Errorf("AutoCloseDeadline() = %v, want %v", got, want)
	}
}

func TestFieldPatch(t *testing.T) {
	var p FieldPatch
	if !p.IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if p.TouchesSchedule() {
		t.Error("zero patch should not touch the schedule")
	}

	empty := ""
	p.Link = &empty // explicit clear counts as a change
	if p.IsEmpty() {
		t.Error("patch with explicit empty link should not be empty")
	}
	if p.TouchesSchedule() {
		t.Error("link change should not touch the schedule")
	}

	date := "22/07/2026"
	p = FieldPatch{Date: &date}
	if !p.TouchesSchedule() {
		t.Error("date change should touch the schedule")
	}
}

func TestErrorCodes(t *testing.T) {
	err := NewError(CodeNotFound, "event %d not found", 7)
	if CodeOf(err) != CodeNotFound {
		t.Errorf("CodeOf = %q, want not_found", CodeOf(err))
	}
	if err.Error() != "not_found: event 7 not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	cause := errors.New("connection refused")
	wrapped := WrapError(CodePersistence, cause, "saving event")
	if CodeOf(wrapped) != CodePersistence {
		t.Errorf("CodeOf(wrapped) = %q, want persistence", CodeOf(wrapped))
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}

	if CodeOf(nil) != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", CodeOf(nil))
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", CodeOf(errors.New("plain")))
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusActive.Valid() || !StatusPostponed.Valid() {
		t.Error("known statuses should be valid")
	}
	if Status("archived").Valid() {
		t.Error("unknown status should be invalid")
	}
}
