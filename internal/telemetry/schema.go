package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/brewmon/internal/errors"
)

// initSchema initializes the database schema for snapshot journaling
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS brew_status (
            timestamp INTEGER PRIMARY KEY,
            brew_id TEXT,
            brew_state TEXT,
            flow_rate REAL,
            weight REAL,
            target_weight REAL,
            strategy TEXT,
            valve_position INTEGER,
            error_message TEXT,
            is_active INTEGER
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrStorageInit, err)
	}

	return nil
}
