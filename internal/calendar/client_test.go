package calendar

import (
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

func TestToEventSummary(t *testing.T) {
	if got := toEventSummary(nil); got.ID != "" {
		t.Errorf("toEventSummary(nil).ID = %q, want empty", got.ID)
	}

	event := &calendar.Event{
		Id:      "ev1",
		Summary: "Standup",
		Status:  "confirmed",
		Start:   &calendar.EventDateTime{DateTime: "2026-03-02T09:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2026-03-02T09:15:00Z"},
		Organizer: &calendar.EventOrganizer{
			Email: "lead@example.com",
		},
		Attendees: []*calendar.EventAttendee{
			{Email: "dev@example.com", ResponseStatus: "accepted"},
		},
		ConferenceData: &calendar.ConferenceData{
			EntryPoints: []*calendar.EntryPoint{
				{EntryPointType: "phone", Uri: "tel:+1"},
				{EntryPointType: "video", Uri: "https://meet.google.com/abc"},
			},
		},
	}

	got := toEventSummary(event)
	if got.ID != "ev1" || got.Summary != "Standup" {
		t.Errorf("summary = %+v", got)
	}
	if got.Start.Format(time.RFC3339) != "2026-03-02T09:00:00Z" {
		t.Errorf("Start = %v", got.Start)
	}
	if got.Organizer != "lead@example.com" {
		t.Errorf("Organizer = %q", got.Organizer)
	}
	if len(got.Attendees) != 1 || got.Attendees[0].ResponseStatus != "accepted" {
		t.Errorf("Attendees = %+v", got.Attendees)
	}
	if got.MeetLink != "https://meet.google.com/abc" {
		t.Errorf("MeetLink = %q, want video entry point", got.MeetLink)
	}
}

func TestParseEventTime_AllDay(t *testing.T) {
	got := parseEventTime(&calendar.EventDateTime{Date: "2026-03-02"})
	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 2 {
		t.Errorf("parseEventTime(all-day) = %v", got)
	}
}

func TestParseEventTime_Invalid(t *testing.T) {
	if got := parseEventTime(nil); !got.IsZero() {
		t.Errorf("parseEventTime(nil) = %v, want zero", got)
	}
	if got := parseEventTime(&calendar.EventDateTime{DateTime: "not-a-time"}); !got.IsZero() {
		t.Errorf("parseEventTime(garbage) = %v, want zero", got)
	}
}

func TestToEventDateTime(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	timed := toEventDateTime(at, false, "")
	if timed.DateTime == "" || timed.Date != "" {
		t.Errorf("timed = %+v, want DateTime set", timed)
	}
	if timed.TimeZone != "UTC" {
		t.Errorf("TimeZone = %q, want UTC default", timed.TimeZone)
	}

	allDay := toEventDateTime(at, true, "")
	if allDay.Date != "2026-03-02" || allDay.DateTime != "" {
		t.Errorf("allDay = %+v, want Date only", allDay)
	}
}

func TestToCalendarInfo(t *testing.T) {
	if got := toCalendarInfo(nil); got.ID != "" {
		t.Errorf("toCalendarInfo(nil).ID = %q, want empty", got.ID)
	}

	got := toCalendarInfo(&calendar.CalendarListEntry{
		Id:         "primary",
		Summary:    "Work",
		TimeZone:   "Europe/Berlin",
		Primary:    true,
		AccessRole: "owner",
	})
	if !got.Primary || got.AccessRole != "owner" || got.TimeZone != "Europe/Berlin" {
		t.Errorf("toCalendarInfo() = %+v", got)
	}
}
