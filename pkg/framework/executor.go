package framework

import (
	"sort"

	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
)

// EffectExecutor executes a batch of declarative effects and produces the
// callback messages to deliver on the next cycle.
type EffectExecutor interface {
	Execute(effects []Effect) ([]Message, error)
}

// MockEffectExecutor returns deterministic stub responses, keyed by
// callback tag. Execute only looks responses up by tag and never ranges
// over the map, so Go's randomized map order cannot affect its output;
// sortedResponseTags lists the keys in sorted order.
type MockEffectExecutor struct {
	responses        map[string]bytecode.Value
	defaultResponse  bytecode.Value
	nextMockActorID  uint64
}

// NewMockEffectExecutor returns an executor with "mock_result" as its
// default response and mock actor ids starting at 1.
func NewMockEffectExecutor() *MockEffectExecutor {
	return &MockEffectExecutor{
		responses:       map[string]bytecode.Value{},
		defaultResponse: bytecode.Str("mock_result"),
		nextMockActorID: 1,
	}
}

// SetResponse sets the response returned for effects with this callback tag.
func (m *MockEffectExecutor) SetResponse(callbackTag string, value bytecode.Value) {
	m.responses[callbackTag] = value
}

// SetDefaultResponse overrides the fallback response for unrecognized tags.
func (m *MockEffectExecutor) SetDefaultResponse(value bytecode.Value) {
	m.defaultResponse = value
}

// Execute implements EffectExecutor. EmitUi is fire-and-forget (spec
// §4.F effect table): it produces no callback message.
func (m *MockEffectExecutor) Execute(effects []Effect) ([]Message, error) {
	messages := make([]Message, 0, len(effects))
	for _, effect := range effects {
		if effect.Kind == EffectEmitUi {
			continue
		}
		if response, ok := m.responses[effect.CallbackTag]; ok {
			messages = append(messages, NewMessage(effect.CallbackTag, response))
			continue
		}
		var response bytecode.Value
		switch effect.Kind {
		case EffectSpawnActor:
			response = bytecode.ActorID(m.nextMockActorID)
			m.nextMockActorID++
		case EffectSendToActor:
			response = bytecode.Str("delivered")
		default:
			response = m.defaultResponse
		}
		messages = append(messages, NewMessage(effect.CallbackTag, response))
	}
	return messages, nil
}

// HostEffectExecutor dispatches effects through a real capability
// gateway, honoring policy and logging each call (spec §4.F: "Host
// (routes through the capability gateway, honoring policy and logging
// each call)").
type HostEffectExecutor struct {
	gateway  *capgw.Gateway
	eventLog *eventlog.EventLog
}

// NewHostEffectExecutor constructs an executor routing through gateway,
// logging to log.
func NewHostEffectExecutor(gateway *capgw.Gateway, log *eventlog.EventLog) *HostEffectExecutor {
	return &HostEffectExecutor{gateway: gateway, eventLog: log}
}

func effectArgs(e Effect) []bytecode.Value {
	switch e.Kind {
	case EffectTimer, EffectRandom:
		return nil
	default:
		return []bytecode.Value{e.Payload}
	}
}

// Execute implements EffectExecutor, routing every effect through the
// gateway (EmitUi produces no callback message) and converting a
// handler/policy failure into an Err-carrying callback message rather
// than propagating it — keeping with
// spec §7's "bad IO returns data" discipline at the framework boundary
// too.
func (h *HostEffectExecutor) Execute(effects []Effect) ([]Message, error) {
	messages := make([]Message, 0, len(effects))
	for _, effect := range effects {
		cap, ok := effect.Kind.Capability()
		if effect.Kind == EffectEmitUi {
			_, _ = h.gateway.Call(cap, []bytecode.Value{effect.Payload})
			continue
		}
		if !ok {
			messages = append(messages, NewMessage(effect.CallbackTag, bytecode.Str("unsupported effect: "+string(effect.Kind))))
			continue
		}
		result, err := h.gateway.Call(cap, effectArgs(effect))
		if err != nil {
			messages = append(messages, NewMessage(effect.CallbackTag, bytecode.Err(bytecode.Str("effect error: "+err.Error()))))
			continue
		}
		messages = append(messages, NewMessage(effect.CallbackTag, result))
	}
	return messages, nil
}

// sortedResponseTags exposes MockEffectExecutor's response keys in
// deterministic order, for diagnostics/tests that want to enumerate what
// has been stubbed.
func (m *MockEffectExecutor) sortedResponseTags() []string {
	tags := make([]string, 0, len(m.responses))
	for k := range m.responses {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	return tags
}
