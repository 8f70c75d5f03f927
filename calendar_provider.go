package main

import (
	"strings"
	"time"
)

// CalendarProvider abstracts the remote calendar the availability slots are
// published to. The sync logic only ever lists a window, inserts events and
// (for the cleanup command) deletes them again.
type CalendarProvider interface {
	GetCalendar(calendarID string) error
	ListEvents(calendarID string, timeMin, timeMax time.Time) ([]*Event, error)
	AddEvent(calendarID string, event *Event) (string, error)
	DeleteEvent(calendarID string, eventID string) error
}

const free4BookingSummary = "Free4Booking"

// free4BookingDescription matches the text the previous generation of this
// tool wrote, so humans recognize the events.
const free4BookingDescription = "Automatisch aangemaakt Free4Booking event. Gecheckt op basis van werkschema."

type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Status      string
	Transparent bool

	// Free4Booking is true when the event carries the provider-level marker
	// identifying it as a slot created by this tool. Room carries the marker
	// detail when several rooms are configured.
	Free4Booking bool
	Room         string
}

// IsFree4Booking reports whether ev is an availability slot, either by
// marker or by summary. The summary fallback keeps events created by older
// versions of the tool recognizable.
func (ev *Event) IsFree4Booking() bool {
	if ev.Free4Booking {
		return true
	}
	return strings.Contains(strings.ToLower(ev.Summary), strings.ToLower(free4BookingSummary))
}

// Overlaps reports whether the event intersects the [start, end) interval.
// Touching boundaries do not count as overlap.
func (ev *Event) Overlaps(start, end time.Time) bool {
	return overlaps(ev.Start, ev.End, start, end)
}

// overlaps is the interval intersection rule used everywhere:
// max(starts) < min(ends).
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.IsZero() || aEnd.IsZero() {
		return false
	}
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return start.Before(end)
}

// eventSignature is the duplicate-detection key for imported bookings:
// identical title and identical instants, regardless of time zone rendering.
func eventSignature(summary string, start, end time.Time) string {
	return summary + "|" + start.UTC().Format(time.RFC3339) + "|" + end.UTC().Format(time.RFC3339)
}
