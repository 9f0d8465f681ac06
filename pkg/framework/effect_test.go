package framework

import (
	"testing"

	"github.com/chazu/boruna/pkg/bytecode"
)

func effectRecord(kind, callbackTag string, payload bytecode.Value) bytecode.Value {
	return bytecode.Record(3, []bytecode.Value{bytecode.Str(kind), payload, bytecode.Str(callbackTag)})
}

func TestParseEffectsList(t *testing.T) {
	effects := bytecode.List([]bytecode.Value{
		effectRecord("http_request", "on_fetch", bytecode.Str("https://example.com")),
		effectRecord("unknown_kind", "ignored", bytecode.Unit()),
	})
	parsed := ParseEffects(effects)
	if len(parsed) != 1 {
		t.Fatalf("ParseEffects() = %v, want 1 recognized effect", parsed)
	}
	if parsed[0].Kind != EffectHttpRequest || parsed[0].CallbackTag != "on_fetch" {
		t.Errorf("parsed[0] = %+v", parsed[0])
	}
}

func TestParseEffectsLegacyListAlias(t *testing.T) {
	legacy := bytecode.Record(bytecode.LegacyListTypeID, []bytecode.Value{
		effectRecord("timer", "on_tick", bytecode.Unit()),
	})
	parsed := ParseEffects(legacy)
	if len(parsed) != 1 || parsed[0].Kind != EffectTimer {
		t.Fatalf("ParseEffects(legacy) = %v", parsed)
	}
}

func TestParseEffectsRejectsNonList(t *testing.T) {
	if got := ParseEffects(bytecode.Int(5)); got != nil {
		t.Errorf("ParseEffects(non-list) = %v, want nil", got)
	}
}

func TestParseUpdateResult(t *testing.T) {
	state := bytecode.Int(1)
	effects := bytecode.List([]bytecode.Value{effectRecord("random", "on_random", bytecode.Unit())})
	result := bytecode.Record(1, []bytecode.Value{state, effects})

	gotState, gotEffects, ok := ParseUpdateResult(result)
	if !ok {
		t.Fatal("ParseUpdateResult() ok = false, want true")
	}
	if gotState.IntValue() != 1 {
		t.Errorf("state = %v, want 1", gotState)
	}
	if len(gotEffects) != 1 || gotEffects[0].Kind != EffectRandom {
		t.Errorf("effects = %v", gotEffects)
	}
}

func TestParseUpdateResultRejectsNonRecord(t *testing.T) {
	if _, _, ok := ParseUpdateResult(bytecode.Str("nope")); ok {
		t.Error("ParseUpdateResult(non-record) ok = true, want false")
	}
}

func TestEffectKindCapability(t *testing.T) {
	if cap, ok := EffectSpawnActor.Capability(); !ok || cap != bytecode.CapActorSpawn {
		t.Errorf("EffectSpawnActor.Capability() = (%v, %v)", cap, ok)
	}
	if _, ok := EffectKind("bogus").Capability(); ok {
		t.Error("unknown EffectKind.Capability() ok = true, want false")
	}
}
