package evidence

import (
	"path/filepath"
	"testing"
	"time"
)

func TestIndexRecordAndLookup(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer ix.Close()

	m := &Manifest{
		RunID:        "run-1",
		WorkflowName: "counter-demo",
		BundleHash:   "deadbeef",
		CompletedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := ix.Record("/bundles/run-1", m); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ref, err := ix.Lookup("run-1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ref.Dir != "/bundles/run-1" || ref.BundleHash != "deadbeef" {
		t.Errorf("Lookup() = %+v", ref)
	}
}

func TestIndexLookupMissingReturnsErrBundleNotFound(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer ix.Close()

	if _, err := ix.Lookup("does-not-exist"); err != ErrBundleNotFound {
		t.Errorf("Lookup() error = %v, want ErrBundleNotFound", err)
	}
}

func TestIndexListByWorkflow(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer ix.Close()

	for i, runID := range []string{"run-a", "run-b"} {
		m := &Manifest{
			RunID:        runID,
			WorkflowName: "counter-demo",
			BundleHash:   "hash",
			CompletedAt:  time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		}
		if err := ix.Record("/bundles/"+runID, m); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	refs, err := ix.ListByWorkflow("counter-demo")
	if err != nil {
		t.Fatalf("ListByWorkflow() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("ListByWorkflow() = %v, want 2 entries", refs)
	}
}
