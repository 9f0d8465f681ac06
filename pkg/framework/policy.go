package framework

import (
	"encoding/json"

	"github.com/chazu/boruna/pkg/bytecode"
)

// PolicySet declares the capabilities and per-cycle resource limits an
// application is permitted to use. It is evaluated against the effects
// update() returns, independently of the VM-level capgw.Policy gating
// update()/view() themselves (which is always deny-all).
type PolicySet struct {
	Capabilities       []string
	MaxEffectsPerCycle uint64
	MaxSteps           uint64
	LLM                LlmPolicy
}

// AllowAllPolicy permits every built-in capability with no per-cycle
// effect limit — the default when a module declares no `policies()`.
func AllowAllPolicy() PolicySet {
	names := make([]string, 0, len(bytecode.AllCapabilities()))
	for _, c := range bytecode.AllCapabilities() {
		names = append(names, c.Name())
	}
	return PolicySet{Capabilities: names, MaxSteps: 10_000_000, LLM: DefaultLlmPolicy()}
}

func extractStringList(v bytecode.Value) []string {
	items, ok := v.AsList()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind() == bytecode.KindString {
			out = append(out, item.StringValue())
		}
	}
	return out
}

// PolicySetFromValue parses a PolicySet out of the value policies()
// returned: Record{capabilities: List<String>, max_effects: Int,
// max_steps: Int, llm: Record (optional)}.
func PolicySetFromValue(value bytecode.Value) PolicySet {
	if value.Kind() != bytecode.KindRecord {
		return PolicySet{MaxSteps: 10_000_000, LLM: DefaultLlmPolicy()}
	}
	fields := value.RecordFields()
	ps := PolicySet{MaxSteps: 10_000_000, LLM: DefaultLlmPolicy()}
	if len(fields) > 0 {
		ps.Capabilities = extractStringList(fields[0])
	}
	if len(fields) > 1 && fields[1].Kind() == bytecode.KindInt {
		ps.MaxEffectsPerCycle = uint64(fields[1].IntValue())
	}
	if len(fields) > 2 && fields[2].Kind() == bytecode.KindInt {
		ps.MaxSteps = uint64(fields[2].IntValue())
	}
	if len(fields) > 3 && fields[3].Kind() == bytecode.KindRecord {
		ps.LLM = llmPolicyFromValue(fields[3])
	}
	return ps
}

// CheckEffect rejects effect if its capability is outside the declared
// allowlist (an empty allowlist means "every capability is allowed", to
// match original_source's `self.capabilities.is_empty()` escape hatch).
// Pointer receiver: an llm_call effect routes through p.LLM.CheckCall,
// which mutates LlmPolicy's cumulative call/token counters, and those
// counters must persist on the PolicySet the AppRuntime actually holds
// rather than on a throwaway copy.
func (p *PolicySet) CheckEffect(e Effect) error {
	cap, ok := e.Kind.Capability()
	if ok && len(p.Capabilities) > 0 {
		allowed := false
		for _, c := range p.Capabilities {
			if c == cap.Name() {
				allowed = true
				break
			}
		}
		if !allowed {
			return newError(KindPolicyViolation, "effect %s requires capability %q which is not in the policy", e.Kind, cap.Name())
		}
	}
	if e.Kind == EffectLlmCall {
		return p.LLM.CheckCall(e.Payload)
	}
	return nil
}

// CheckBatch enforces the per-cycle effect-count ceiling, then checks
// every effect individually. Pointer receiver for the same reason as
// CheckEffect: LLM budget accounting must survive across calls.
func (p *PolicySet) CheckBatch(effects []Effect) error {
	if p.MaxEffectsPerCycle > 0 && uint64(len(effects)) > p.MaxEffectsPerCycle {
		return newError(KindPolicyViolation, "too many effects: %d exceeds limit of %d", len(effects), p.MaxEffectsPerCycle)
	}
	for _, e := range effects {
		if err := p.CheckEffect(e); err != nil {
			return err
		}
	}
	return nil
}

// ToJSON renders a structured diagnostic of the policy.
func (p PolicySet) ToJSON() string {
	data, _ := json.MarshalIndent(struct {
		Capabilities       []string `json:"capabilities"`
		MaxEffectsPerCycle uint64   `json:"max_effects_per_cycle"`
		MaxSteps           uint64   `json:"max_steps"`
	}{p.Capabilities, p.MaxEffectsPerCycle, p.MaxSteps}, "", "  ")
	return string(data)
}

// ErrorToJSON renders a structured {error, detail} diagnostic from a
// framework Error.
func ErrorToJSON(err *Error) string {
	data, _ := json.MarshalIndent(struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}{snakeCase(err.kind), err.message}, "", "  ")
	return string(data)
}

func snakeCase(kind string) string {
	out := make([]byte, 0, len(kind)+4)
	for i := 0; i < len(kind); i++ {
		c := kind[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			out = append(out, c-'A'+'a')
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}
