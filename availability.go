package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Slot is one candidate Free4Booking window: a room during a half-day period
// on a concrete date.
type Slot struct {
	Day    string // schedule day name, e.g. "MAANDAG"
	Period string // e.g. "Voormiddag"
	Room   string
	Start  time.Time
	End    time.Time
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s %s (%s-%s)",
		s.Start.Format("2006-01-02"), s.Period, s.Room,
		s.Start.Format("15:04"), s.End.Format("15:04"))
}

// Decision is the outcome of the availability rule for one slot.
type Decision struct {
	Slot   Slot
	Free   bool
	Reason string
}

// buildSlots expands the configured periods and rooms over the date window
// [start, start+days], both ends inclusive. Dates whose weekday has no
// schedule day name produce no slots at all; that is how weekends fall out.
func buildSlots(config *Config, start time.Time, days int, loc *time.Location) ([]Slot, error) {
	periods, err := config.slotPeriods()
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for d := 0; d <= days; d++ {
		date := start.AddDate(0, 0, d)
		dayName := scheduleDayName(config, date.Weekday())
		if dayName == "" {
			continue
		}
		for _, period := range periods {
			slotStart := time.Date(date.Year(), date.Month(), date.Day(),
				period.StartClock/60, period.StartClock%60, 0, 0, loc)
			slotEnd := time.Date(date.Year(), date.Month(), date.Day(),
				period.EndClock/60, period.EndClock%60, 0, 0, loc)
			for _, room := range config.Rooms {
				slots = append(slots, Slot{
					Day:    dayName,
					Period: period.Name,
					Room:   room.Name,
					Start:  slotStart,
					End:    slotEnd,
				})
			}
		}
	}
	return slots, nil
}

// availabilityCheck evaluates the free/occupied rule for slots against one
// run's scraped bookings and calendar events.
type availabilityCheck struct {
	schedule WorkSchedule
	bookings []Booking
	events   []*Event
	minStaff int
}

// decide applies the availability rule: the room must have no overlapping
// booking, the schedule must have an entry for the day and period, and every
// role in that entry must have at least minStaff people who are not tied up
// in an overlapping calendar event.
func (c *availabilityCheck) decide(slot Slot) Decision {
	for _, b := range c.bookings {
		if b.Room == slot.Room && overlaps(b.Start, b.End, slot.Start, slot.End) {
			return Decision{Slot: slot, Reason: fmt.Sprintf("room booked by %s", b.Booker)}
		}
	}

	roomLower := strings.ToLower(slot.Room)
	for _, ev := range c.events {
		if ev.Status == "cancelled" || ev.IsFree4Booking() {
			continue
		}
		if strings.Contains(strings.ToLower(ev.Summary), roomLower) && ev.Overlaps(slot.Start, slot.End) {
			return Decision{Slot: slot, Reason: fmt.Sprintf("room booked: %q", ev.Summary)}
		}
	}

	entry, ok := c.schedule.Entry(slot.Day, slot.Period)
	if !ok {
		return Decision{Slot: slot, Reason: fmt.Sprintf("no schedule entry for %s %s", slot.Day, slot.Period)}
	}

	busy := c.busyNames(entry, slot)

	roles := make([]string, 0, len(entry))
	for role := range entry {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		available := 0
		for _, person := range entry[role] {
			if !busy[strings.ToLower(strings.TrimSpace(person))] {
				available++
			}
		}
		if available < c.minStaff {
			return Decision{Slot: slot, Reason: fmt.Sprintf(
				"role %s has %d of %d required staff available", role, available, c.minStaff)}
		}
	}

	return Decision{Slot: slot, Free: true, Reason: "free"}
}

// busyNames returns the scheduled people whose name appears in the summary of
// a calendar event overlapping the slot. Cancelled events and our own
// Free4Booking events don't make anyone busy.
func (c *availabilityCheck) busyNames(entry map[string][]string, slot Slot) map[string]bool {
	names := scheduleNames(entry)
	busy := make(map[string]bool)
	for _, ev := range c.events {
		if ev.Status == "cancelled" || ev.IsFree4Booking() || !ev.Overlaps(slot.Start, slot.End) {
			continue
		}
		summary := strings.ToLower(ev.Summary)
		for _, name := range names {
			if strings.Contains(summary, name) {
				busy[name] = true
			}
		}
	}
	return busy
}
