package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot(t *testing.T) Slot {
	day := monday(t)
	return Slot{
		Day:    "MAANDAG",
		Period: "Voormiddag",
		Room:   "lokaal FA1",
		Start:  at(t, day, 9),
		End:    at(t, day, 12),
	}
}

func TestDecide(t *testing.T) {
	fullEntry := map[string][]string{"exp1": {"An"}, "exp2": {"Bert"}}
	schedule := WorkSchedule{"MAANDAG": {"Voormiddag": fullEntry}}

	tests := []struct {
		name     string
		schedule WorkSchedule
		bookings []Booking
		events   []*Event
		minStaff int
		free     bool
	}{
		{
			name:     "staffed and unbooked slot is free",
			schedule: schedule,
			free:     true,
		},
		{
			name:     "overlapping booking blocks regardless of staffing",
			schedule: schedule,
			bookings: []Booking{{Room: "lokaal FA1", Booker: "Peeters",
				Start: at(t, monday(t), 10), End: at(t, monday(t), 11)}},
			free: false,
		},
		{
			name:     "booking for another room does not block",
			schedule: schedule,
			bookings: []Booking{{Room: "lokaal B2", Booker: "Peeters",
				Start: at(t, monday(t), 10), End: at(t, monday(t), 11)}},
			free: true,
		},
		{
			name:     "booking touching the slot boundary does not block",
			schedule: schedule,
			bookings: []Booking{{Room: "lokaal FA1", Booker: "Peeters",
				Start: at(t, monday(t), 12), End: at(t, monday(t), 13)}},
			free: true,
		},
		{
			name:     "room event in the calendar blocks",
			schedule: schedule,
			events: []*Event{{Summary: "Peeters (lokaal FA1)", Status: "confirmed",
				Start: at(t, monday(t), 10), End: at(t, monday(t), 11)}},
			free: false,
		},
		{
			name:     "cancelled room event does not block",
			schedule: schedule,
			events: []*Event{{Summary: "Peeters (lokaal FA1)", Status: "cancelled",
				Start: at(t, monday(t), 10), End: at(t, monday(t), 11)}},
			free: true,
		},
		{
			name:     "existing availability event is not a room booking",
			schedule: schedule,
			events: []*Event{{Summary: "Free4Booking", Status: "confirmed", Free4Booking: true, Room: "lokaal FA1",
				Start: at(t, monday(t), 9), End: at(t, monday(t), 12)}},
			free: true,
		},
		{
			name:     "missing schedule entry blocks",
			schedule: WorkSchedule{"MAANDAG": {"Namiddag": fullEntry}},
			free:     false,
		},
		{
			name:     "role with empty name list blocks",
			schedule: WorkSchedule{"MAANDAG": {"Voormiddag": {"exp1": {"An"}, "exp2": {}}}},
			free:     false,
		},
		{
			name:     "busy staff member blocks their role",
			schedule: schedule,
			events: []*Event{{Summary: "Overleg met An", Status: "confirmed",
				Start: at(t, monday(t), 11), End: at(t, monday(t), 13)}},
			free: false,
		},
		{
			name:     "role survives one busy member when another is free",
			schedule: WorkSchedule{"MAANDAG": {"Voormiddag": {"exp1": {"An", "Carla"}, "exp2": {"Bert"}}}},
			events: []*Event{{Summary: "Overleg met An", Status: "confirmed",
				Start: at(t, monday(t), 11), End: at(t, monday(t), 13)}},
			free: true,
		},
		{
			name:     "busy outside the slot does not count",
			schedule: schedule,
			events: []*Event{{Summary: "Overleg met An", Status: "confirmed",
				Start: at(t, monday(t), 13), End: at(t, monday(t), 14)}},
			free: true,
		},
		{
			name:     "threshold of two needs two available per role",
			schedule: WorkSchedule{"MAANDAG": {"Voormiddag": {"exp1": {"An", "Carla"}, "exp2": {"Bert"}}}},
			minStaff: 2,
			free:     false,
		},
		{
			name:     "threshold of two satisfied",
			schedule: WorkSchedule{"MAANDAG": {"Voormiddag": {"exp1": {"An", "Carla"}, "exp2": {"Bert", "Dirk"}}}},
			minStaff: 2,
			free:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minStaff := tt.minStaff
			if minStaff == 0 {
				minStaff = 1
			}
			check := &availabilityCheck{
				schedule: tt.schedule,
				bookings: tt.bookings,
				events:   tt.events,
				minStaff: minStaff,
			}
			decision := check.decide(testSlot(t))
			assert.Equal(t, tt.free, decision.Free, "reason: %s", decision.Reason)
			assert.NotEmpty(t, decision.Reason)
		})
	}
}

func TestBuildSlots(t *testing.T) {
	config := testConfig()
	loc := brussels(t)

	t.Run("one weekday expands to the configured periods", func(t *testing.T) {
		slots, err := buildSlots(config, monday(t), 0, loc)
		require.NoError(t, err)
		require.Len(t, slots, 2)

		assert.Equal(t, "Voormiddag", slots[0].Period)
		assert.Equal(t, "MAANDAG", slots[0].Day)
		assert.True(t, slots[0].Start.Equal(at(t, monday(t), 9)))
		assert.True(t, slots[0].End.Equal(at(t, monday(t), 12)))
		assert.Equal(t, "Namiddag", slots[1].Period)
		assert.True(t, slots[1].Start.Equal(at(t, monday(t), 13)))
	})

	t.Run("weekends are skipped", func(t *testing.T) {
		saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
		slots, err := buildSlots(config, saturday, 1, loc)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("full week covers only mapped days", func(t *testing.T) {
		// Monday through Sunday
		slots, err := buildSlots(config, monday(t), 6, loc)
		require.NoError(t, err)
		assert.Len(t, slots, 5*2)
	})

	t.Run("weekday mapping can be overridden", func(t *testing.T) {
		custom := testConfig()
		custom.Weekdays = map[string]string{"saturday": "ZATERDAG"}
		saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
		slots, err := buildSlots(custom, saturday, 0, loc)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, "ZATERDAG", slots[0].Day)
	})

	t.Run("every room gets its own slot", func(t *testing.T) {
		custom := testConfig()
		custom.Rooms = append(custom.Rooms, RoomConfig{Name: "lokaal B2", Pattern: "lokaal B2"})
		slots, err := buildSlots(custom, monday(t), 0, loc)
		require.NoError(t, err)
		assert.Len(t, slots, 4)
	})
}

func TestOverlaps(t *testing.T) {
	day := monday(t)
	ev := &Event{Start: at(t, day, 9), End: at(t, day, 12)}

	assert.True(t, ev.Overlaps(at(t, day, 11), at(t, day, 13)))
	assert.True(t, ev.Overlaps(at(t, day, 8), at(t, day, 10)))
	assert.True(t, ev.Overlaps(at(t, day, 10), at(t, day, 11)))
	assert.False(t, ev.Overlaps(at(t, day, 12), at(t, day, 13)))
	assert.False(t, ev.Overlaps(at(t, day, 7), at(t, day, 9)))

	// All-day events that failed to parse have zero times and never overlap
	zero := &Event{}
	assert.False(t, zero.Overlaps(at(t, day, 9), at(t, day, 12)))
}

func TestIsFree4Booking(t *testing.T) {
	assert.True(t, (&Event{Free4Booking: true}).IsFree4Booking())
	assert.True(t, (&Event{Summary: "Free4Booking"}).IsFree4Booking())
	assert.True(t, (&Event{Summary: "oud FREE4BOOKING event"}).IsFree4Booking())
	assert.False(t, (&Event{Summary: "Peeters (lokaal FA1)"}).IsFree4Booking())
}
