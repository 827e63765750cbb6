// Package store persists CORTEX hub state in SQLite.
//
// Three tables: readings (append-only telemetry), calibration (per-node
// sensor offsets), and personality_state (the hub's single-row mood). The
// hub is the only writer; the pure-Go sqlite driver keeps the hub free of
// cgo so it cross-compiles cleanly for the Pi.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the hub database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS readings (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    ts_utc       TEXT NOT NULL,
    mac          TEXT NOT NULL,
    node_id      INTEGER NOT NULL,
    seq          INTEGER NOT NULL,
    t_ms         INTEGER NOT NULL,
    temp_c       REAL,
    rh_pct       REAL,
    pressure_hpa REAL,
    lux          REAL,
    accel_g      REAL,
    sound_dbfs   REAL,
    battery_v    REAL,
    low_battery  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_readings_node_ts ON readings(node_id, ts_utc);
CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(ts_utc);

CREATE TABLE IF NOT EXISTS calibration (
    node_id         INTEGER PRIMARY KEY,
    temp_offset     REAL NOT NULL DEFAULT 0,
    rh_offset       REAL NOT NULL DEFAULT 0,
    pressure_offset REAL NOT NULL DEFAULT 0,
    updated_utc     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS personality_state (
    id          INTEGER PRIMARY KEY CHECK (id = 1),
    state       TEXT NOT NULL,
    updated_utc TEXT NOT NULL
);
`

// Open opens (creating if needed) the hub database at the given path and
// applies the schema. Pass ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite allows one writer; a second connection would just contend on
	// the file lock and surface as SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. The health endpoint uses this.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// nowUTC is the canonical timestamp format used across all tables.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
