package bytecode

import "testing"

func TestEqualStructural(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int-equal", Int(3), Int(3), true},
		{"int-diff", Int(3), Int(4), false},
		{"string-equal", Str("hi"), Str("hi"), true},
		{"list-equal", List([]Value{Int(1), Int(2)}), List([]Value{Int(1), Int(2)}), true},
		{"list-diff-order", List([]Value{Int(1), Int(2)}), List([]Value{Int(2), Int(1)}), false},
		{"some-vs-none", Some(Int(1)), None(), false},
		{"ok-err", Ok(Int(1)), Err(Int(1)), false},
		{"record-equal", Record(1, []Value{Int(1)}), Record(1, []Value{Int(1)}), true},
		{"record-type-mismatch", Record(1, []Value{Int(1)}), Record(2, []Value{Int(1)}), false},
		{"enum-equal", Enum(1, 2, Int(3)), Enum(1, 2, Int(3)), true},
		{"enum-variant-mismatch", Enum(1, 2, Int(3)), Enum(1, 3, Int(3)), false},
		{"map-equal", Map(map[string]Value{"a": Int(1)}), Map(map[string]Value{"a": Int(1)}), true},
		{"map-diff-value", Map(map[string]Value{"a": Int(1)}), Map(map[string]Value{"a": Int(2)}), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Equal(c.a, c.b); got != c.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Unit(), false},
		{None(), false},
		{Err(Int(1)), false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), false},
		{Int(1), true},
		{Str(""), false},
		{Str("x"), true},
		{List(nil), false},
		{List([]Value{Int(1)}), true},
		{Some(Int(0)), true},
		{Ok(Int(0)), true},
		{ActorID(0), true},
	}
	for _, c := range cases {
		if got := c.v.IsTruthy(); got != c.want {
			t.Errorf("IsTruthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestAsListRecognizesLegacyRecordAlias(t *testing.T) {
	legacy := Record(LegacyListTypeID, []Value{Int(1), Int(2)})
	items, ok := legacy.AsList()
	if !ok {
		t.Fatal("AsList() ok = false for legacy list record")
	}
	if len(items) != 2 || items[0].IntValue() != 1 {
		t.Errorf("AsList() = %v, want [1 2]", items)
	}

	ordinary := Record(5, []Value{Int(1)})
	if _, ok := ordinary.AsList(); ok {
		t.Error("AsList() ok = true for a non-legacy record")
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]Value{"z": Int(1), "a": Int(2), "m": Int(3)}
	keys := SortedMapKeys(m)
	want := []string{"a", "m", "z"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("SortedMapKeys() = %v, want %v", keys, want)
		}
	}
}
