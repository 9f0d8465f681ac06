package bytecode

import "errors"

// Decode-error sentinels for Module/.axbc decoding (spec §4.A, §6).
// None of these are ever produced by a panic; decode_module fails with
// a typed error on any inconsistency.
var (
	ErrInvalidMagic        = errors.New("bytecode: invalid magic bytes")
	ErrUnsupportedVersion  = errors.New("bytecode: unsupported module version")
	ErrMalformedModule     = errors.New("bytecode: malformed module")
	ErrTruncatedPayload    = errors.New("bytecode: truncated module payload")
)
