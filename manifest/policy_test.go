package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCapabilityPolicyFromManifest(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "workflow"

[policy]
default_allow = false

[policy.rules."net.fetch"]
allow = true
budget = 10
`
	if err := os.WriteFile(filepath.Join(dir, "boruna.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	policy, err := m.CapabilityPolicy()
	if err != nil {
		t.Fatalf("CapabilityPolicy() error = %v", err)
	}
	if policy.DefaultAllow {
		t.Error("DefaultAllow = true, want false")
	}
	rule := policy.Rules["net.fetch"]
	if !rule.Allow || rule.Budget != 10 {
		t.Errorf("Rules[net.fetch] = %+v, want allow=true budget=10", rule)
	}
}

func TestCapabilityPolicyRejectsUnknownCapability(t *testing.T) {
	m := &Manifest{
		Policy: PolicyConfig{
			Rules: map[string]RuleConfig{"not.a.real.cap": {Allow: true}},
		},
	}
	if _, err := m.CapabilityPolicy(); err == nil {
		t.Error("CapabilityPolicy() error = nil, want an error for an unknown capability name")
	}
}
