package bytecode

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Magic and version for the .axbc binary module format (spec §6). New
// magic distinct from both the teacher's "TTBC" and the Rust original's
// "LLMB" — this is a new wire format, not a reuse of either.
var Magic = [4]byte{'A', 'X', 'B', 'C'}

const FormatVersion uint16 = 1

// TypeKind distinguishes a record type definition from an enum type
// definition in a Module's type table.
type TypeKind uint8

const (
	TypeKindRecord TypeKind = iota
	TypeKindEnum
)

// TypeDef is the field/variant metadata for one record or enum type,
// ported from llmbc::module::TypeDef/TypeKind.
type TypeDef struct {
	Name string   `json:"name"`
	Kind TypeKind `json:"kind"`
	// Fields holds (name, type-name) pairs for a Record; Variants holds
	// (name, optional payload type-name) pairs for an Enum. Only one of
	// the two is populated, selected by Kind.
	Fields   []FieldDef   `json:"fields,omitempty"`
	Variants []VariantDef `json:"variants,omitempty"`
}

type FieldDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type VariantDef struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Function is one compiled function in a Module. Capabilities is the
// declared capability set the compiler surfaces to the VM (spec §3); any
// cap-call whose capability is absent from this list fails regardless of
// policy (purity enforcement hangs off this list being empty for
// update/view, spec §4.C).
type Function struct {
	Name         string        `json:"name"`
	Arity        uint8         `json:"arity"`
	Locals       uint16        `json:"locals"`
	Code         []Instruction `json:"code"`
	Capabilities []Capability  `json:"capabilities"`
	MatchTables  [][]MatchArm  `json:"match_tables,omitempty"`
}

// DeclaresCapability reports whether f's declared capability set permits
// cap. Used by the VM's CapCall handling (spec §4.C: capability checks
// are against the calling function's declared set, not a free-floating
// flag) and by AppValidator's purity check (update/view must declare
// none).
func (f *Function) DeclaresCapability(cap Capability) bool {
	for _, c := range f.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Module is the immutable compiled artifact: constant pool, type table,
// function table, entry point. Read-only once loaded; safe to share
// across VM instances by value-copy (Go struct copy) or by pointer, per
// spec §3's "owned by value-clone or by shared read-only reference."
type Module struct {
	Name      string     `json:"name"`
	Version   uint16     `json:"version"`
	Constants []Value    `json:"constants"`
	Globals   []string   `json:"globals"`
	Types     []TypeDef  `json:"types"`
	Functions []Function `json:"functions"`
	Entry     uint32     `json:"entry"`
}

// NewModule creates an empty module at the current FormatVersion.
func NewModule(name string) *Module {
	return &Module{Name: name, Version: FormatVersion}
}

// AddConst appends a constant and returns its index.
func (m *Module) AddConst(v Value) uint32 {
	idx := uint32(len(m.Constants))
	m.Constants = append(m.Constants, v)
	return idx
}

// AddFunction appends a function and returns its index.
func (m *Module) AddFunction(f Function) uint32 {
	idx := uint32(len(m.Functions))
	m.Functions = append(m.Functions, f)
	return idx
}

// FunctionByName returns the index of the named function, mirroring the
// fn_map lookup AppRuntime builds in llmfw/src/runtime.rs.
func (m *Module) FunctionByName(name string) (uint32, bool) {
	for i, f := range m.Functions {
		if f.Name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// ToJSON renders the canonical-JSON payload form (used directly as an
// event-log-adjacent artifact and as the .axbc payload).
func (m *Module) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON parses a module from its canonical-JSON payload form.
func FromJSON(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModule, err)
	}
	return &m, nil
}

// Serialize encodes m to the .axbc binary format: 4-byte magic, 2-byte
// little-endian version, 4-byte little-endian payload length, then the
// canonical-JSON payload. Framing mirrors the teacher's
// pkg/bytecode/chunk.go Serialize/Deserialize (bounds-checked reads,
// descriptive truncation errors), with the payload itself swapped to the
// JSON-Module form per spec §6 (rather than the teacher's raw op stream).
func (m *Module) Serialize() ([]byte, error) {
	payload, err := m.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("bytecode: encoding module payload: %w", err)
	}

	buf := make([]byte, 0, 10+len(payload))
	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, FormatVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	return buf, nil
}

// Deserialize decodes the .axbc binary format, validating magic, version,
// and exact payload length before decoding the payload. Never panics on
// malformed input (spec §4.A failure model); every inconsistency is a
// typed error.
func Deserialize(data []byte) (*Module, error) {
	const headerLen = 4 + 2 + 4
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: header truncated, have %d bytes, need %d", ErrTruncatedPayload, len(data), headerLen)
	}
	if [4]byte(data[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: module version %d, max supported %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	payloadLen := binary.LittleEndian.Uint32(data[6:10])
	if uint64(len(data)-headerLen) < uint64(payloadLen) {
		return nil, fmt.Errorf("%w: declared payload length %d, have %d bytes remaining", ErrTruncatedPayload, payloadLen, len(data)-headerLen)
	}
	if uint64(len(data)-headerLen) > uint64(payloadLen) {
		return nil, fmt.Errorf("%w: declared payload length %d, have %d bytes remaining", ErrMalformedModule, payloadLen, len(data)-headerLen)
	}
	payload := data[headerLen : headerLen+int(payloadLen)]
	m, err := FromJSON(payload)
	if err != nil {
		return nil, err
	}
	return m, nil
}
