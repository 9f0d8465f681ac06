package evidence

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Index durably records where each run's bundle lives and its manifest's
// top-level hashes, so `cmd/boruna evidence` can look up a run without
// re-reading every bundle directory's manifest.json. Grounded on the same
// PRAGMA-busy-timeout / CREATE-TABLE-IF-NOT-EXISTS / INSERT-OR-REPLACE
// shape as pkg/eventlog.Store and lib/runtime/persistence.go, swapped to
// modernc.org/sqlite (cgo-free) rather than the teacher's mattn/go-sqlite3.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) a SQLite-backed bundle index.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("evidence: opening index: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("evidence: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS bundles (
		run_id        TEXT PRIMARY KEY,
		dir           TEXT NOT NULL,
		workflow_name TEXT NOT NULL,
		bundle_hash   TEXT NOT NULL,
		completed_at  TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("evidence: creating table: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error { return ix.db.Close() }

// Record indexes a just-built bundle's manifest.
func (ix *Index) Record(dir string, m *Manifest) error {
	_, err := ix.db.Exec(
		"INSERT OR REPLACE INTO bundles (run_id, dir, workflow_name, bundle_hash, completed_at) VALUES (?, ?, ?, ?, ?)",
		m.RunID, dir, m.WorkflowName, m.BundleHash, m.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("evidence: indexing bundle: %w", err)
	}
	return nil
}

// BundleRef is one indexed bundle's location and identity.
type BundleRef struct {
	RunID        string
	Dir          string
	WorkflowName string
	BundleHash   string
	CompletedAt  string
}

// Lookup returns the indexed location of runID's bundle.
func (ix *Index) Lookup(runID string) (*BundleRef, error) {
	var ref BundleRef
	err := ix.db.QueryRow(
		"SELECT run_id, dir, workflow_name, bundle_hash, completed_at FROM bundles WHERE run_id = ?", runID,
	).Scan(&ref.RunID, &ref.Dir, &ref.WorkflowName, &ref.BundleHash, &ref.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("evidence: looking up bundle: %w", err)
	}
	return &ref, nil
}

// ListByWorkflow returns every indexed bundle for workflowName, most
// recently completed first.
func (ix *Index) ListByWorkflow(workflowName string) ([]BundleRef, error) {
	rows, err := ix.db.Query(
		"SELECT run_id, dir, workflow_name, bundle_hash, completed_at FROM bundles WHERE workflow_name = ? ORDER BY completed_at DESC",
		workflowName,
	)
	if err != nil {
		return nil, fmt.Errorf("evidence: listing bundles: %w", err)
	}
	defer rows.Close()

	var refs []BundleRef
	for rows.Next() {
		var ref BundleRef
		if err := rows.Scan(&ref.RunID, &ref.Dir, &ref.WorkflowName, &ref.BundleHash, &ref.CompletedAt); err != nil {
			return nil, fmt.Errorf("evidence: scanning bundle row: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ErrBundleNotFound is returned by Index.Lookup when no bundle is
// indexed under the given run id.
var ErrBundleNotFound = fmt.Errorf("evidence: bundle not found in index")
