package bytecode

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the variant held by a Value. Go has no sum types, so
// Value is a struct carrying one tag plus whichever fields that tag uses;
// every other field is the zero value.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindNone
	KindSome
	KindOk
	KindErr
	KindRecord
	KindEnum
	KindList
	KindMap
	KindActorID
	KindFnRef
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindNone:
		return "None"
	case KindSome:
		return "Some"
	case KindOk:
		return "Ok"
	case KindErr:
		return "Err"
	case KindRecord:
		return "Record"
	case KindEnum:
		return "Enum"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindActorID:
		return "ActorId"
	case KindFnRef:
		return "FnRef"
	default:
		return "Unknown"
	}
}

// LegacyListTypeID marks a Record that is actually a list literal encoded
// by an older compiler generation. Readers must treat it as a List; new
// code always produces KindList directly. See original_source's
// llmvm/src/vm.rs ListLen/ListGet/ListPush and llmfw's as_list helpers.
const LegacyListTypeID = 0xFFFF

// Value is a runtime value in the VM. All values are immutable once
// constructed; opcodes that "mutate" a List or Map produce a new Value.
type Value struct {
	kind Kind

	b      bool
	i      int64
	f      float64
	s      string
	inner  *Value // Some/Ok/Err payload
	typeID uint32
	variant uint8 // Enum
	fields []Value // Record fields, List elements
	m      map[string]Value
}

func Unit() Value                 { return Value{kind: KindUnit} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func Str(s string) Value          { return Value{kind: KindString, s: s} }
func None() Value                 { return Value{kind: KindNone} }
func ActorID(id uint64) Value     { return Value{kind: KindActorID, i: int64(id)} }
func FnRef(idx uint32) Value      { return Value{kind: KindFnRef, typeID: idx} }

func Some(v Value) Value { return Value{kind: KindSome, inner: &v} }
func Ok(v Value) Value   { return Value{kind: KindOk, inner: &v} }
func Err(v Value) Value  { return Value{kind: KindErr, inner: &v} }

func Record(typeID uint32, fields []Value) Value {
	return Value{kind: KindRecord, typeID: typeID, fields: fields}
}

func Enum(typeID uint32, variant uint8, payload Value) Value {
	return Value{kind: KindEnum, typeID: typeID, variant: variant, inner: &payload}
}

func List(items []Value) Value {
	return Value{kind: KindList, fields: items}
}

func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) BoolValue() bool           { return v.b }
func (v Value) IntValue() int64           { return v.i }
func (v Value) FloatValue() float64       { return v.f }
func (v Value) StringValue() string       { return v.s }
func (v Value) ActorIDValue() uint64      { return uint64(v.i) }
func (v Value) FnRefValue() uint32        { return v.typeID }
func (v Value) TypeID() uint32            { return v.typeID }
func (v Value) Variant() uint8            { return v.variant }
func (v Value) ListItems() []Value        { return v.fields }
func (v Value) RecordFields() []Value     { return v.fields }
func (v Value) MapEntries() map[string]Value { return v.m }

// Inner returns the wrapped payload of Some/Ok/Err/Enum. For any other
// kind (no payload) it returns Unit; callers must check Kind() first.
func (v Value) Inner() Value {
	if v.inner == nil {
		return Unit()
	}
	return *v.inner
}

// AsList extracts list elements, recognizing the legacy
// Record{type_id: LegacyListTypeID} alias. Returns ok=false for anything
// else. Mirrors llmfw/src/effect.rs's as_list and policy.rs's
// extract_string_list (generalized to arbitrary elements here).
func (v Value) AsList() (items []Value, ok bool) {
	switch v.kind {
	case KindList:
		return v.fields, true
	case KindRecord:
		if v.typeID == LegacyListTypeID {
			return v.fields, true
		}
	}
	return nil, false
}

// IsTruthy mirrors original_source's Value::is_truthy.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindUnit, KindNone, KindErr:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0.0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.fields) > 0
	case KindMap:
		return len(v.m) > 0
	case KindRecord, KindEnum, KindActorID, KindFnRef, KindSome, KindOk:
		return true
	default:
		return false
	}
}

// Equal is structural equality, recursing through containers.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUnit, KindNone:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt, KindActorID:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindFnRef:
		return a.typeID == b.typeID
	case KindSome, KindOk, KindErr:
		return Equal(a.Inner(), b.Inner())
	case KindEnum:
		return a.typeID == b.typeID && a.variant == b.variant && Equal(a.Inner(), b.Inner())
	case KindRecord, KindList:
		if a.typeID != b.typeID || len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if !Equal(a.fields[i], b.fields[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindUnit:
		return "()"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindInt, KindActorID:
		if v.kind == KindActorID {
			return fmt.Sprintf("Actor#%d", v.i)
		}
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%v", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindNone:
		return "None"
	case KindSome:
		return fmt.Sprintf("Some(%s)", v.Inner())
	case KindOk:
		return fmt.Sprintf("Ok(%s)", v.Inner())
	case KindErr:
		return fmt.Sprintf("Err(%s)", v.Inner())
	case KindRecord:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.String()
		}
		return fmt.Sprintf("Record#%d{%s}", v.typeID, strings.Join(parts, ", "))
	case KindEnum:
		return fmt.Sprintf("Enum#%d::%d(%s)", v.typeID, v.variant, v.Inner())
	case KindList:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.String()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.m[k])
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case KindFnRef:
		return fmt.Sprintf("Fn#%d", v.typeID)
	default:
		return "<invalid>"
	}
}

// TypeName mirrors original_source's Value::type_name, used in VmError's
// TypeError{expected, got} messages.
func (v Value) TypeName() string { return v.kind.String() }

// SortedMapKeys returns a Map's keys in lexicographic order, the order
// required wherever a Map participates in canonical encoding or hashing.
func SortedMapKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
