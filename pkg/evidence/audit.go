package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/chazu/boruna/pkg/eventlog"
)

// zeroHash is the all-zero hash the audit chain starts from (spec §3): the
// hex encoding of 32 zero bytes.
var zeroHash = strings.Repeat("0", sha256.Size*2)

// AuditEntry is one hash-chained audit log entry (spec §6): a sequence
// number, the previous entry's hash, the event itself, and this entry's
// own hash over (sequence, prev_hash, canonical_json(event)).
type AuditEntry struct {
	Sequence  uint64         `json:"sequence"`
	PrevHash  string         `json:"prev_hash"`
	Event     eventlog.Event `json:"event"`
	EntryHash string         `json:"entry_hash"`
}

// AuditLog is the ordered chain of AuditEntry records built over one run's
// EventLog.
type AuditLog struct {
	Entries []AuditEntry `json:"entries"`
}

// computeEntryHash implements spec §3's `entry_hash = SHA256(sequence ‖
// prev_hash ‖ canonical_json(event))`: the sequence number's decimal
// string and the previous hash's hex string are concatenated with the
// event's canonical JSON bytes before hashing, since the sequence and
// prev_hash values are otherwise not byte strings.
func computeEntryHash(sequence uint64, prevHash string, event eventlog.Event) (string, error) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, 20+len(prevHash)+len(eventJSON))
	buf = append(buf, strconv.FormatUint(sequence, 10)...)
	buf = append(buf, prevHash...)
	buf = append(buf, eventJSON...)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// BuildAuditLog chains every event in log into an AuditLog starting from
// the all-zero hash.
func BuildAuditLog(log *eventlog.EventLog) (*AuditLog, error) {
	entries := make([]AuditEntry, 0, len(log.Events))
	prev := zeroHash
	for i, event := range log.Events {
		seq := uint64(i)
		hash, err := computeEntryHash(seq, prev, event)
		if err != nil {
			return nil, errMalformedBundle("hashing audit entry %d: %v", seq, err)
		}
		entries = append(entries, AuditEntry{Sequence: seq, PrevHash: prev, Event: event, EntryHash: hash})
		prev = hash
	}
	return &AuditLog{Entries: entries}, nil
}

// TailHash returns the hash of the last entry in the chain, or the
// all-zero hash for an empty chain.
func (a *AuditLog) TailHash() string {
	if len(a.Entries) == 0 {
		return zeroHash
	}
	return a.Entries[len(a.Entries)-1].EntryHash
}

// Verify re-derives every entry hash from its recorded sequence/prev_hash/
// event and checks it matches the recorded entry_hash, and that each
// entry's prev_hash matches the previous entry's entry_hash. Returns an
// AuditChainBroken error naming the first sequence where the chain
// diverges from what verification recomputes.
func (a *AuditLog) Verify() error {
	prev := zeroHash
	for _, entry := range a.Entries {
		if entry.PrevHash != prev {
			return errAuditChainBroken(entry.Sequence)
		}
		hash, err := computeEntryHash(entry.Sequence, entry.PrevHash, entry.Event)
		if err != nil {
			return errMalformedBundle("hashing audit entry %d: %v", entry.Sequence, err)
		}
		if hash != entry.EntryHash {
			return errAuditChainBroken(entry.Sequence)
		}
		prev = entry.EntryHash
	}
	return nil
}

// ToJSON renders the audit log as the `audit_log.json` array of entries
// (spec §6: "Audit log is a JSON array of entries").
func (a *AuditLog) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a.Entries, "", "  ")
}

// AuditLogFromJSON parses an `audit_log.json` array of entries.
func AuditLogFromJSON(data []byte) (*AuditLog, error) {
	var entries []AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errMalformedBundle("decoding audit_log.json: %v", err)
	}
	return &AuditLog{Entries: entries}, nil
}
