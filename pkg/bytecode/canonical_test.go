package bytecode

import "testing"

func roundTripJSON(t *testing.T, v Value) Value {
	t.Helper()
	data, err := CanonicalJSON(v)
	if err != nil {
		t.Fatalf("CanonicalJSON() error = %v", err)
	}
	var out Value
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	return out
}

func TestCanonicalJSONRoundTrip(t *testing.T) {
	values := []Value{
		Unit(), Bool(true), Int(-42), Float(3.5), Str("héllo"),
		None(), Some(Int(1)), Ok(Str("ok")), Err(Str("bad")),
		Record(7, []Value{Int(1), Str("x")}),
		Enum(3, 1, Int(9)),
		List([]Value{Int(1), Int(2), Int(3)}),
		Map(map[string]Value{"b": Int(2), "a": Int(1)}),
		ActorID(12), FnRef(4),
	}
	for _, v := range values {
		got := roundTripJSON(t, v)
		if !Equal(got, v) {
			t.Errorf("round trip changed value: got %v, want %v", got, v)
		}
	}
}

func TestCanonicalCBORRoundTrip(t *testing.T) {
	v := Record(1, []Value{Int(1), List([]Value{Str("a"), Str("b")})})
	data, err := CanonicalCBOR(v)
	if err != nil {
		t.Fatalf("CanonicalCBOR() error = %v", err)
	}
	got, err := DecodeCanonicalCBOR(data)
	if err != nil {
		t.Fatalf("DecodeCanonicalCBOR() error = %v", err)
	}
	if !Equal(got, v) {
		t.Errorf("CBOR round trip changed value: got %v, want %v", got, v)
	}
}

func TestCanonicalEncodingIsDeterministic(t *testing.T) {
	v := Map(map[string]Value{"z": Int(1), "a": Int(2), "m": Int(3)})
	first, err := CanonicalJSON(v)
	if err != nil {
		t.Fatalf("CanonicalJSON() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := CanonicalJSON(v)
		if err != nil {
			t.Fatalf("CanonicalJSON() error = %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("CanonicalJSON() is not deterministic across calls:\n%s\nvs\n%s", first, again)
		}
	}
}

// TestCanonicalEncodeNFCNormalizesStrings checks that "e" followed by a
// combining acute accent (NFD, two codepoints) canonicalizes to the same
// bytes as the single precomposed codepoint (NFC) representing "é".
func TestCanonicalEncodeNFCNormalizesStrings(t *testing.T) {
	nfd := Str("e\u0301")
	nfc := Str("\u00e9")
	dataNFD, err := CanonicalJSON(nfd)
	if err != nil {
		t.Fatalf("CanonicalJSON(nfd) error = %v", err)
	}
	dataNFC, err := CanonicalJSON(nfc)
	if err != nil {
		t.Fatalf("CanonicalJSON(nfc) error = %v", err)
	}
	if string(dataNFD) != string(dataNFC) {
		t.Errorf("NFD and NFC forms of the same string canonicalize differently: %s vs %s", dataNFD, dataNFC)
	}
}

func TestCanonicalEncodeRejectsNaN(t *testing.T) {
	nan := Float(nanValue())
	if _, err := CanonicalJSON(nan); err != ErrNaNInHashedPosition {
		t.Errorf("CanonicalJSON(NaN) error = %v, want ErrNaNInHashedPosition", err)
	}
	if _, err := CanonicalCBOR(nan); err != ErrNaNInHashedPosition {
		t.Errorf("CanonicalCBOR(NaN) error = %v, want ErrNaNInHashedPosition", err)
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
