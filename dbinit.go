package main

import (
	"database/sql"
	"fmt"
	"time"
)

// ensureSchema creates or migrates the ledger database. The ledger records
// every event this tool created; the sync's duplicate check still goes
// against the remote calendar, the ledger only backs list and cleanup.
func ensureSchema(db *sql.DB) error {
	var dbVersion int
	err := db.QueryRow("SELECT version FROM db_version WHERE name='free4booking'").Scan(&dbVersion)
	if err != nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`)
		if err != nil {
			return fmt.Errorf("creating db_version table: %w", err)
		}
		_, err = db.Exec(`INSERT INTO db_version (name, version) VALUES ('free4booking', 0)`)
		if err != nil {
			return fmt.Errorf("initializing db_version table: %w", err)
		}
		dbVersion = 0
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS slot_events (
			event_id TEXT,
			calendar_id TEXT,
			kind TEXT,
			summary TEXT,
			start_time TEXT,
			end_time TEXT,
			created_at TEXT,
			PRIMARY KEY (calendar_id, event_id)
		)`)
		if err != nil {
			return fmt.Errorf("creating slot_events table: %w", err)
		}

		_, err = db.Exec(`UPDATE db_version SET version = 1 WHERE name = 'free4booking'`)
		if err != nil {
			return fmt.Errorf("updating db_version table: %w", err)
		}
	}

	return nil
}

// Ledger event kinds.
const (
	kindImport       = "import"
	kindFree4Booking = "free4booking"
)

func recordSlotEvent(db *sql.DB, eventID, calendarID, kind, summary string, start, end time.Time) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO slot_events
		(event_id, calendar_id, kind, summary, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		eventID, calendarID, kind, summary,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func forgetSlotEvent(db *sql.DB, eventID, calendarID string) error {
	_, err := db.Exec("DELETE FROM slot_events WHERE calendar_id = ? AND event_id = ?", calendarID, eventID)
	return err
}
