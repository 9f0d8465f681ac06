// Package bytecode defines the value universe, capability table, opcode
// set, and compiled module format shared by the VM, the capability
// gateway, the actor scheduler, and the framework runtime.
//
// # Architecture overview
//
// The package has four pieces:
//
//   - Value: the tagged union every opcode pushes and pops. Equality is
//     structural; canonical encoding is deterministic (sorted map keys,
//     NFC-normalized strings, minimal numeric forms).
//
//   - Capability: the fixed, stable set of side-effect permissions a
//     function may declare. Both a small integer id and a dotted name are
//     part of the wire format.
//
//   - OpCode/Instruction: one bytecode instruction. Each opcode has a fixed
//     byte tag; the tag space is stable and new opcodes are appended to
//     unused ranges.
//
//   - Module: the immutable compiled artifact — constant pool, type table,
//     function table, entry point — and its ".axbc" binary encoding.
//
// # Canonical encoding
//
// Two encodings exist for the same Value universe: a canonical JSON form
// (used for event logs and module payloads, so bundles are diffable and
// greppable) and a canonical CBOR form (CanonicalCBOR, for callers that
// want a compact deterministic byte string; nothing in this module's
// .axbc format or hashing uses it). Both sort map keys and forbid NaN in
// hashed positions.
package bytecode
