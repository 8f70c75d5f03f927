package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// cleanupAvailability removes every Free4Booking event in the sync window
// from the remote calendar and from the ledger. Imported bookings are left
// alone; they describe real reservations.
func cleanupAvailability() {
	config, err := readConfig(".free4booking.toml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	loc, err := config.location()
	if err != nil {
		log.Fatalf("Error loading timezone: %v", err)
	}
	calendarID, err := loadCalendarID(config)
	if err != nil {
		log.Fatalf("Error loading calendar ID: %v", err)
	}

	db, err := openDB(".free4booking.db")
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()
	if err := ensureSchema(db); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	ctx := context.Background()
	provider, err := newCalendarProvider(ctx, config, loc)
	if err != nil {
		log.Fatalf("Error initializing calendar provider: %v", err)
	}
	if err := provider.GetCalendar(calendarID); err != nil {
		log.Fatalf("Error accessing calendar %s: %v", calendarID, err)
	}

	now := time.Now().In(loc)
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	windowEnd := windowStart.AddDate(0, 0, config.HorizonDays).Add(24*time.Hour - time.Second)

	deleted, err := cleanupWindow(db, provider, calendarID, windowStart, windowEnd)
	if err != nil {
		log.Fatalf("Error during cleanup: %v", err)
	}

	fmt.Printf("✅ Cleanup complete: %d Free4Booking events removed\n", deleted)
}

func cleanupWindow(db *sql.DB, provider CalendarProvider, calendarID string, timeMin, timeMax time.Time) (int, error) {
	events, err := provider.ListEvents(calendarID, timeMin, timeMax)
	if err != nil {
		return 0, fmt.Errorf("listing events: %w", err)
	}

	deleted := 0
	for _, ev := range events {
		if ev.Status == "cancelled" || !ev.IsFree4Booking() {
			continue
		}
		if err := provider.DeleteEvent(calendarID, ev.ID); err != nil {
			return deleted, fmt.Errorf("deleting event %s: %w", ev.ID, err)
		}
		if err := forgetSlotEvent(db, ev.ID, calendarID); err != nil {
			return deleted, fmt.Errorf("removing event %s from ledger: %w", ev.ID, err)
		}
		printVerbosely(3, "  🗑 Removed %s (%s - %s)\n",
			ev.Summary, ev.Start.Format("2006-01-02 15:04"), ev.End.Format("15:04"))
		deleted++
	}

	return deleted, nil
}
