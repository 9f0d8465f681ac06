package bytecode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/text/unicode/norm"
)

// wireValue is the canonical on-wire shape of a Value: one discriminator
// plus whichever fields that kind uses. encoding/json already sorts map
// keys alphabetically, which is what makes Go's encoder produce a stable
// byte string for the Map field here without extra bookkeeping.
type wireValue struct {
	Kind    string             `json:"kind"`
	Bool    *bool              `json:"b,omitempty"`
	Int     *int64             `json:"i,omitempty"`
	Float   *float64           `json:"f,omitempty"`
	Str     *string            `json:"s,omitempty"`
	Inner   *wireValue         `json:"v,omitempty"`
	TypeID  *uint32            `json:"type_id,omitempty"`
	Variant *uint8             `json:"variant,omitempty"`
	Fields  []wireValue        `json:"fields,omitempty"`
	Map     map[string]wireValue `json:"map,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: building canonical CBOR mode: %v", err))
	}
	cborEncMode = mode
}

// toWire converts v to its canonical wire shape, normalizing strings to
// NFC and rejecting NaN floats (spec §3: "NaN disallowed in hashed
// positions").
func toWire(v Value) (wireValue, error) {
	switch v.kind {
	case KindUnit:
		return wireValue{Kind: "Unit"}, nil
	case KindBool:
		b := v.b
		return wireValue{Kind: "Bool", Bool: &b}, nil
	case KindInt:
		i := v.i
		return wireValue{Kind: "Int", Int: &i}, nil
	case KindFloat:
		if math.IsNaN(v.f) {
			return wireValue{}, ErrNaNInHashedPosition
		}
		f := v.f
		return wireValue{Kind: "Float", Float: &f}, nil
	case KindString:
		s := norm.NFC.String(v.s)
		return wireValue{Kind: "String", Str: &s}, nil
	case KindNone:
		return wireValue{Kind: "None"}, nil
	case KindSome, KindOk, KindErr:
		inner, err := toWire(v.Inner())
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Kind: v.kind.String(), Inner: &inner}, nil
	case KindRecord:
		fields := make([]wireValue, len(v.fields))
		for i, f := range v.fields {
			w, err := toWire(f)
			if err != nil {
				return wireValue{}, err
			}
			fields[i] = w
		}
		tid := v.typeID
		return wireValue{Kind: "Record", TypeID: &tid, Fields: fields}, nil
	case KindEnum:
		tid := v.typeID
		variant := v.variant
		inner, err := toWire(v.Inner())
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Kind: "Enum", TypeID: &tid, Variant: &variant, Inner: &inner}, nil
	case KindList:
		items := make([]wireValue, len(v.fields))
		for i, f := range v.fields {
			w, err := toWire(f)
			if err != nil {
				return wireValue{}, err
			}
			items[i] = w
		}
		return wireValue{Kind: "List", Fields: items}, nil
	case KindMap:
		m := make(map[string]wireValue, len(v.m))
		for k, val := range v.m {
			w, err := toWire(val)
			if err != nil {
				return wireValue{}, err
			}
			m[norm.NFC.String(k)] = w
		}
		return wireValue{Kind: "Map", Map: m}, nil
	case KindActorID:
		i := v.i
		return wireValue{Kind: "ActorId", Int: &i}, nil
	case KindFnRef:
		tid := v.typeID
		return wireValue{Kind: "FnRef", TypeID: &tid}, nil
	default:
		return wireValue{}, fmt.Errorf("bytecode: unknown value kind %d", v.kind)
	}
}

func fromWire(w wireValue) (Value, error) {
	switch w.Kind {
	case "Unit":
		return Unit(), nil
	case "Bool":
		return Bool(derefBool(w.Bool)), nil
	case "Int":
		return Int(derefInt(w.Int)), nil
	case "Float":
		return Float(derefFloat(w.Float)), nil
	case "String":
		return Str(derefStr(w.Str)), nil
	case "None":
		return None(), nil
	case "Some", "Ok", "Err":
		if w.Inner == nil {
			return Value{}, fmt.Errorf("bytecode: %s missing inner value", w.Kind)
		}
		inner, err := fromWire(*w.Inner)
		if err != nil {
			return Value{}, err
		}
		switch w.Kind {
		case "Some":
			return Some(inner), nil
		case "Ok":
			return Ok(inner), nil
		default:
			return Err(inner), nil
		}
	case "Record":
		fields := make([]Value, len(w.Fields))
		for i, f := range w.Fields {
			v, err := fromWire(f)
			if err != nil {
				return Value{}, err
			}
			fields[i] = v
		}
		return Record(derefU32(w.TypeID), fields), nil
	case "Enum":
		if w.Inner == nil {
			return Value{}, fmt.Errorf("bytecode: Enum missing payload")
		}
		payload, err := fromWire(*w.Inner)
		if err != nil {
			return Value{}, err
		}
		return Enum(derefU32(w.TypeID), derefU8(w.Variant), payload), nil
	case "List":
		items := make([]Value, len(w.Fields))
		for i, f := range w.Fields {
			v, err := fromWire(f)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items), nil
	case "Map":
		m := make(map[string]Value, len(w.Map))
		for k, f := range w.Map {
			v, err := fromWire(f)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	case "ActorId":
		return ActorID(uint64(derefInt(w.Int))), nil
	case "FnRef":
		return FnRef(derefU32(w.TypeID)), nil
	default:
		return Value{}, fmt.Errorf("bytecode: unknown wire kind %q", w.Kind)
	}
}

func derefBool(p *bool) bool       { if p == nil { return false }; return *p }
func derefInt(p *int64) int64      { if p == nil { return 0 }; return *p }
func derefFloat(p *float64) float64 { if p == nil { return 0 }; return *p }
func derefStr(p *string) string    { if p == nil { return "" }; return *p }
func derefU32(p *uint32) uint32    { if p == nil { return 0 }; return *p }
func derefU8(p *uint8) uint8       { if p == nil { return 0 }; return *p }

// MarshalJSON implements canonical JSON encoding: NFC-normalized strings,
// sorted map keys (a property of encoding/json's map handling), and
// rejection of NaN in any position reachable from this call.
func (v Value) MarshalJSON() ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := fromWire(w)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// CanonicalJSON returns the deterministic JSON encoding of v.
func CanonicalJSON(v Value) ([]byte, error) {
	return v.MarshalJSON()
}

// CanonicalCBOR returns the deterministic CBOR encoding of v. The .axbc
// payload and the LLM cache key both use the canonical JSON form, not
// this one.
func CanonicalCBOR(v Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(w)
}

// DecodeCanonicalCBOR is the inverse of CanonicalCBOR.
func DecodeCanonicalCBOR(data []byte) (Value, error) {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Value{}, err
	}
	return fromWire(w)
}

// ErrNaNInHashedPosition is returned by canonical encoding when a Float
// NaN appears anywhere that would flow into a hash or a replay-compared
// log, per spec §3's invariant forbidding it.
var ErrNaNInHashedPosition = fmt.Errorf("bytecode: NaN is not permitted in a hashed position")
