package capgw

import "testing"

func TestValidateSchemaAcceptsWellFormedPolicy(t *testing.T) {
	p := AllowAll()
	p.Allow(0, 5)
	if err := ValidateSchema(p); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}

func TestValidateSchemaAcceptsEmptyRulesPolicy(t *testing.T) {
	// PolicyRule.Budget is a uint64 so the Go type system already rules
	// out negative values; this checks that a policy with no rules at
	// all (the minimal well-formed document) still unifies cleanly.
	p := Policy{Rules: map[string]PolicyRule{}, DefaultAllow: true, SchemaVersion: 1}
	if err := ValidateSchema(p); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}
