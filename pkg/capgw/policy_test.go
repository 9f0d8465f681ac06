package capgw

import (
	"testing"

	"github.com/chazu/boruna/pkg/bytecode"
)

func TestRuleForExplicitOverridesDefault(t *testing.T) {
	p := DenyAll()
	p.Allow(bytecode.CapNetFetch, 3)

	rule := p.RuleFor(bytecode.CapNetFetch)
	if !rule.Allow || rule.Budget != 3 {
		t.Errorf("RuleFor(net.fetch) = %+v, want allow=true budget=3", rule)
	}

	other := p.RuleFor(bytecode.CapFsRead)
	if other.Allow {
		t.Errorf("RuleFor(fs.read) = %+v, want deny (DefaultAllow=false)", other)
	}
}

func TestAllowAllPermitsEverythingUnbudgeted(t *testing.T) {
	p := AllowAll()
	for _, c := range bytecode.AllCapabilities() {
		rule := p.RuleFor(c)
		if !rule.Allow || rule.Budget != 0 {
			t.Errorf("RuleFor(%s) = %+v, want allow=true budget=0", c.Name(), rule)
		}
	}
}

func TestDenyOverridesAllowAll(t *testing.T) {
	p := AllowAll()
	p.Deny(bytecode.CapFsWrite)
	if p.RuleFor(bytecode.CapFsWrite).Allow {
		t.Error("RuleFor(fs.write) allow = true after explicit Deny")
	}
	if !p.RuleFor(bytecode.CapFsRead).Allow {
		t.Error("RuleFor(fs.read) allow = false, unaffected rule should remain allowed")
	}
}

func TestValidateRejectsUnknownCapabilityName(t *testing.T) {
	p := Policy{Rules: map[string]PolicyRule{"not.a.real.cap": {Allow: true}}}
	if err := p.Validate(); err == nil {
		t.Error("Validate() error = nil, want an error for an unknown capability name")
	}
}

func TestValidateAcceptsKnownNames(t *testing.T) {
	p := AllowAll()
	p.Allow(bytecode.CapLlmCall, 10)
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}
