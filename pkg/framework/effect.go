package framework

import "github.com/chazu/boruna/pkg/bytecode"

// EffectKind names a declarative side effect an update() call can
// request. update() never performs IO itself (spec §4.F purity rule) — it
// returns effects as data, which the host executes via an EffectExecutor.
type EffectKind string

const (
	EffectHttpRequest EffectKind = "http_request"
	EffectDbQuery     EffectKind = "db_query"
	EffectFsRead      EffectKind = "fs_read"
	EffectFsWrite     EffectKind = "fs_write"
	EffectTimer       EffectKind = "timer"
	EffectRandom      EffectKind = "random"
	EffectSpawnActor  EffectKind = "spawn_actor"
	EffectEmitUi      EffectKind = "emit_ui"
	EffectLlmCall     EffectKind = "llm_call"
	EffectSendToActor EffectKind = "send_to_actor"
)

// Capability returns the gateway capability this effect kind dispatches
// through (SpawnActor maps to ActorSpawn, SendToActor to ActorSend); the
// second result is false for an unknown kind.
func (k EffectKind) Capability() (bytecode.Capability, bool) {
	switch k {
	case EffectHttpRequest:
		return bytecode.CapNetFetch, true
	case EffectDbQuery:
		return bytecode.CapDbQuery, true
	case EffectFsRead:
		return bytecode.CapFsRead, true
	case EffectFsWrite:
		return bytecode.CapFsWrite, true
	case EffectTimer:
		return bytecode.CapTimeNow, true
	case EffectRandom:
		return bytecode.CapRandom, true
	case EffectEmitUi:
		return bytecode.CapUiRender, true
	case EffectLlmCall:
		return bytecode.CapLlmCall, true
	case EffectSpawnActor:
		return bytecode.CapActorSpawn, true
	case EffectSendToActor:
		return bytecode.CapActorSend, true
	default:
		return 0, false
	}
}

func parseEffectKind(s string) (EffectKind, bool) {
	switch EffectKind(s) {
	case EffectHttpRequest, EffectDbQuery, EffectFsRead, EffectFsWrite, EffectTimer,
		EffectRandom, EffectSpawnActor, EffectEmitUi, EffectLlmCall, EffectSendToActor:
		return EffectKind(s), true
	default:
		return "", false
	}
}

// Effect is one declarative side effect returned from update(), paired
// with the message tag its eventual result should be delivered under.
type Effect struct {
	Kind        EffectKind
	Payload     bytecode.Value
	CallbackTag string
}

// ParseEffects extracts the effect list from update()'s second return
// field: a List (or legacy Record{type_id:0xFFFF} list alias) of Records
// shaped [kind: String, payload: Value, callback_tag: String].
func ParseEffects(effectsValue bytecode.Value) []Effect {
	items, ok := effectsValue.AsList()
	if !ok {
		return nil
	}
	out := make([]Effect, 0, len(items))
	for _, item := range items {
		if item.Kind() != bytecode.KindRecord {
			continue
		}
		fields := item.RecordFields()
		if len(fields) < 3 {
			continue
		}
		if fields[0].Kind() != bytecode.KindString {
			continue
		}
		kind, ok := parseEffectKind(fields[0].StringValue())
		if !ok {
			continue
		}
		tag := ""
		if fields[2].Kind() == bytecode.KindString {
			tag = fields[2].StringValue()
		}
		out = append(out, Effect{Kind: kind, Payload: fields[1], CallbackTag: tag})
	}
	return out
}

// ParseUpdateResult splits update()'s return value into the new state and
// its declared effects. update() must return a Record with at least two
// fields: [state, effects].
func ParseUpdateResult(value bytecode.Value) (state bytecode.Value, effects []Effect, ok bool) {
	if value.Kind() != bytecode.KindRecord {
		return bytecode.Value{}, nil, false
	}
	fields := value.RecordFields()
	if len(fields) < 2 {
		return bytecode.Value{}, nil, false
	}
	return fields[0], ParseEffects(fields[1]), true
}
