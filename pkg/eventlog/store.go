package eventlog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store durably mirrors EventLogs into SQLite, keyed by run id. The
// in-memory EventLog remains canonical for hashing and replay; this is
// an opt-in persistence sink (SPEC_FULL.md §4), not a source of
// nondeterminism. Grounded on lib/runtime/persistence.go's
// PRAGMA-busy-timeout / CREATE-TABLE-IF-NOT-EXISTS / INSERT-OR-REPLACE
// pattern, adapted from storing one row per Smalltalk instance to one
// row per run's EventLog. modernc.org/sqlite is the cgo-free driver
// (registered under driver name "sqlite"), preferred over the teacher's
// mattn/go-sqlite3 since this module otherwise builds cgo-free.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) a SQLite-backed event log store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: opening store: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS event_logs (
		run_id TEXT PRIMARY KEY,
		data   TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: creating table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists l under runID, replacing any prior entry.
func (s *Store) Save(runID string, l *EventLog) error {
	data, err := l.ToJSON()
	if err != nil {
		return fmt.Errorf("eventlog: encoding for store: %w", err)
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO event_logs (run_id, data) VALUES (?, ?)", runID, string(data))
	if err != nil {
		return fmt.Errorf("eventlog: saving: %w", err)
	}
	return nil
}

// Load retrieves the log recorded for runID.
func (s *Store) Load(runID string) (*EventLog, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM event_logs WHERE run_id = ?", runID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("eventlog: loading: %w", err)
	}
	return FromJSON([]byte(data))
}

// ErrRunNotFound is returned by Store.Load when no log is recorded for
// the given run id.
var ErrRunNotFound = fmt.Errorf("eventlog: run not found in store")
