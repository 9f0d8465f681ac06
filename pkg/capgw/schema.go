package capgw

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/chazu/boruna/schema"
)

// ValidateSchema unifies p against the #Policy CUE schema, catching
// malformed budgets or policy documents missing required fields before
// Validate's capability-name check even runs. Intended for policy
// documents loaded from boruna.toml or a standalone policy.json, not
// for policies built programmatically with AllowAll/DenyAll (those are
// already well-formed by construction).
func ValidateSchema(p Policy) error {
	ctx := cuecontext.New()

	doc := ctx.CompileString(schema.Policy)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("capgw: compiling policy schema: %w", err)
	}
	def := doc.LookupPath(cue.ParsePath("#Policy"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("capgw: resolving #Policy schema definition: %w", err)
	}

	dataVal := ctx.Encode(p)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("capgw: encoding policy for schema validation: %w", err)
	}

	unified := def.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("capgw: policy failed schema validation: %w", err)
	}
	return nil
}
