package db

import (
	"fmt"
)

// TryProcess claims a relay event for processing.
// It returns false if the event was already claimed, including by an
// earlier run of the terminal.
func (db *DB) TryProcess(eventID string, kind int, createdAt int64) (bool, error) {
	res, err := db.Exec(`
		INSERT OR IGNORE INTO processed_events (event_id, kind, created_at)
		VALUES (?, ?, ?)
	`, eventID, kind, createdAt)
	if err != nil {
		return false, fmt.Errorf("claiming event %s: %w", eventID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming event %s: %w", eventID, err)
	}
	return n == 1, nil
}

// GetHighWaterMark returns the newest relay event timestamp seen so far.
func (db *DB) GetHighWaterMark() (int64, error) {
	var hwm int64
	if err := db.QueryRow(`SELECT high_water_mark FROM relay_state WHERE id = 1`).Scan(&hwm); err != nil {
		return 0, fmt.Errorf("reading high water mark: %w", err)
	}
	return hwm, nil
}

// SetHighWaterMark raises the high water mark to ts. Lower values are ignored.
func (db *DB) SetHighWaterMark(ts int64) error {
	_, err := db.Exec(`
		UPDATE relay_state SET high_water_mark = ?
		WHERE id = 1 AND high_water_mark < ?
	`, ts, ts)
	if err != nil {
		return fmt.Errorf("setting high water mark: %w", err)
	}
	return nil
}
