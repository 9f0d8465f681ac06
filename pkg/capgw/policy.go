// Package capgw is the capability gateway: the sole conduit through which
// bytecode reaches the outside world (spec §4.B). Every side effect is
// policy-checked and logged here before a handler ever runs.
package capgw

import (
	"fmt"

	"github.com/chazu/boruna/pkg/bytecode"
)

// PolicyRule is the allow/deny decision plus an optional invocation
// budget for one capability. Ported from original_source's
// llmvm::capability_gateway::PolicyRule.
type PolicyRule struct {
	Allow bool `json:"allow"`
	// Budget is the maximum number of invocations allowed; 0 means
	// unlimited, matching original_source's llmvm::capability_gateway
	// (capability_gateway.rs:190). This means an explicit budget of
	// zero calls (as opposed to an absent budget) cannot be expressed
	// with this field — a caller wanting a capability allowed but never
	// actually invocable should set Allow: false instead.
	Budget uint64 `json:"budget,omitempty"`
}

// Policy is an ordered mapping from dotted capability name to rule, plus
// a default for capabilities with no explicit rule. Rules is keyed by
// name rather than by bytecode.Capability because a policy is authored
// and serialized (TOML/JSON) before any module is loaded; the gateway
// resolves the name against bytecode.CapabilityFromName at call time.
type Policy struct {
	Rules        map[string]PolicyRule `json:"rules"`
	DefaultAllow bool                  `json:"default_allow"`
	// SchemaVersion lets a future revision of the rule shape evolve
	// without breaking old policy files; validated by manifest's CUE
	// schema at load time.
	SchemaVersion uint32 `json:"schema_version,omitempty"`
}

// AllowAll returns a policy permitting every capability with no budget.
func AllowAll() Policy {
	return Policy{Rules: map[string]PolicyRule{}, DefaultAllow: true, SchemaVersion: 1}
}

// DenyAll returns a policy denying every capability. The framework runtime
// gates `update`/`view` frames with this (spec §4.F purity enforcement).
func DenyAll() Policy {
	return Policy{Rules: map[string]PolicyRule{}, DefaultAllow: false, SchemaVersion: 1}
}

// Allow adds (or replaces) a rule permitting cap, optionally with a
// budget (0 = unlimited). Returns p for chaining, mirroring the Rust
// builder-style `&mut Self` API.
func (p *Policy) Allow(cap bytecode.Capability, budget uint64) *Policy {
	if p.Rules == nil {
		p.Rules = map[string]PolicyRule{}
	}
	p.Rules[cap.Name()] = PolicyRule{Allow: true, Budget: budget}
	return p
}

// Deny adds (or replaces) a rule denying cap outright.
func (p *Policy) Deny(cap bytecode.Capability) *Policy {
	if p.Rules == nil {
		p.Rules = map[string]PolicyRule{}
	}
	p.Rules[cap.Name()] = PolicyRule{Allow: false}
	return p
}

// RuleFor resolves the effective rule for cap: an explicit entry if
// present, otherwise DefaultAllow with an unlimited budget.
func (p Policy) RuleFor(cap bytecode.Capability) PolicyRule {
	if r, ok := p.Rules[cap.Name()]; ok {
		return r
	}
	return PolicyRule{Allow: p.DefaultAllow}
}

// Validate rejects a policy naming a capability the build doesn't
// recognize — catches typos in hand-authored TOML/JSON before first call
// rather than silently defaulting them away.
func (p Policy) Validate() error {
	for name := range p.Rules {
		if _, ok := bytecode.CapabilityFromName(name); !ok {
			return fmt.Errorf("capgw: policy names unknown capability %q", name)
		}
	}
	return nil
}
