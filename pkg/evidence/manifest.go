package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/eventlog"
)

// SchemaVersion is the current evidence-bundle manifest schema version.
const SchemaVersion uint32 = 1

const (
	manifestFile   = "manifest.json"
	workflowFile   = "workflow.json"
	policyFile     = "policy.json"
	auditLogFile   = "audit_log.json"
	envFingerprint = "env_fingerprint.json"
	checksumsFile  = "checksums.sha256"
)

// Manifest is the evidence bundle's top-level index (spec §6).
type Manifest struct {
	SchemaVersion  uint32            `json:"schema_version"`
	RunID          string            `json:"run_id"`
	WorkflowName   string            `json:"workflow_name"`
	WorkflowHash   string            `json:"workflow_hash"`
	PolicyHash     string            `json:"policy_hash"`
	AuditLogHash   string            `json:"audit_log_hash"`
	FileChecksums  map[string]string `json:"file_checksums"`
	EnvFingerprint map[string]string `json:"env_fingerprint"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    time.Time         `json:"completed_at"`
	BundleHash     string            `json:"bundle_hash"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.New().String() }

// BuildInput is everything Build needs to assemble one evidence bundle
// directory.
type BuildInput struct {
	Dir            string
	RunID          string
	WorkflowName   string
	WorkflowJSON   []byte
	PolicyJSON     []byte
	EventLog       *eventlog.EventLog
	EnvFingerprint map[string]string
	// Outputs maps step name -> output name -> value, written to
	// outputs/<step>/<name>.json.
	Outputs     map[string]map[string]bytecode.Value
	StartedAt   time.Time
	CompletedAt time.Time
}

// Build writes the full evidence bundle directory (spec §6: manifest.json,
// workflow.json, policy.json, audit_log.json, env_fingerprint.json,
// outputs/<step>/<name>.json, checksums.sha256) and returns the manifest
// it wrote.
func Build(input BuildInput) (*Manifest, error) {
	if err := os.MkdirAll(input.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("evidence: creating bundle dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(input.Dir, workflowFile), input.WorkflowJSON, 0o644); err != nil {
		return nil, fmt.Errorf("evidence: writing workflow.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(input.Dir, policyFile), input.PolicyJSON, 0o644); err != nil {
		return nil, fmt.Errorf("evidence: writing policy.json: %w", err)
	}

	auditLog, err := BuildAuditLog(input.EventLog)
	if err != nil {
		return nil, err
	}
	auditBytes, err := auditLog.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("evidence: encoding audit_log.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(input.Dir, auditLogFile), auditBytes, 0o644); err != nil {
		return nil, fmt.Errorf("evidence: writing audit_log.json: %w", err)
	}

	envBytes, err := json.MarshalIndent(input.EnvFingerprint, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("evidence: encoding env_fingerprint.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(input.Dir, envFingerprint), envBytes, 0o644); err != nil {
		return nil, fmt.Errorf("evidence: writing env_fingerprint.json: %w", err)
	}

	for step, outputs := range input.Outputs {
		stepDir := filepath.Join(input.Dir, "outputs", step)
		if err := os.MkdirAll(stepDir, 0o755); err != nil {
			return nil, fmt.Errorf("evidence: creating outputs/%s: %w", step, err)
		}
		for name, value := range outputs {
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("evidence: encoding outputs/%s/%s.json: %w", step, name, err)
			}
			if err := os.WriteFile(filepath.Join(stepDir, name+".json"), data, 0o644); err != nil {
				return nil, fmt.Errorf("evidence: writing outputs/%s/%s.json: %w", step, name, err)
			}
		}
	}

	exclude := map[string]bool{manifestFile: true, checksumsFile: true}
	checksums, err := computeChecksums(input.Dir, exclude)
	if err != nil {
		return nil, err
	}
	if err := writeChecksumsFile(filepath.Join(input.Dir, checksumsFile), checksums); err != nil {
		return nil, fmt.Errorf("evidence: writing checksums.sha256: %w", err)
	}

	m := &Manifest{
		SchemaVersion:  SchemaVersion,
		RunID:          input.RunID,
		WorkflowName:   input.WorkflowName,
		WorkflowHash:   sha256Hex(input.WorkflowJSON),
		PolicyHash:     sha256Hex(input.PolicyJSON),
		AuditLogHash:   auditLog.TailHash(),
		FileChecksums:  checksums,
		EnvFingerprint: input.EnvFingerprint,
		StartedAt:      input.StartedAt,
		CompletedAt:    input.CompletedAt,
	}
	m.BundleHash, err = bundleHash(m)
	if err != nil {
		return nil, err
	}

	manifestBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("evidence: encoding manifest.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(input.Dir, manifestFile), manifestBytes, 0o644); err != nil {
		return nil, fmt.Errorf("evidence: writing manifest.json: %w", err)
	}

	return m, nil
}

// Verify recomputes every bundle file's checksum, re-chains the audit
// log, and checks the manifest's audit_log_hash against the recomputed
// chain tail (spec §6 verification procedure, exercised by spec §8
// scenario 5). manifest.json and checksums.sha256 themselves are not
// checksummed — a manifest can't name its own checksum without
// recursion, and checksums.sha256 is the checksum listing itself.
func Verify(dir string) error {
	manifestBytes, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return errMalformedBundle("reading manifest.json: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(manifestBytes, &m); err != nil {
		return errMalformedBundle("decoding manifest.json: %v", err)
	}

	exclude := map[string]bool{manifestFile: true, checksumsFile: true}
	recomputed, err := computeChecksums(dir, exclude)
	if err != nil {
		return err
	}
	for file, expected := range m.FileChecksums {
		got, ok := recomputed[file]
		if !ok || got != expected {
			return errChecksumMismatch(file)
		}
	}

	auditBytes, err := os.ReadFile(filepath.Join(dir, auditLogFile))
	if err != nil {
		return errMalformedBundle("reading audit_log.json: %v", err)
	}
	auditLog, err := AuditLogFromJSON(auditBytes)
	if err != nil {
		return err
	}
	if err := auditLog.Verify(); err != nil {
		return err
	}
	if auditLog.TailHash() != m.AuditLogHash {
		return errAuditChainBroken(uint64(len(auditLog.Entries)))
	}

	return nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// bundleHash hashes the canonical JSON of m with BundleHash cleared, so
// the field doesn't hash itself.
func bundleHash(m *Manifest) (string, error) {
	clone := *m
	clone.BundleHash = ""
	data, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("evidence: hashing manifest: %w", err)
	}
	return sha256Hex(data), nil
}
