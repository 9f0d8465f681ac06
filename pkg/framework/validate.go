package framework

import (
	"strconv"
	"strings"

	"github.com/chazu/boruna/pkg/bytecode"
)

// AppValidator checks that a compiled module conforms to the App
// protocol: required init/update/view functions with the right arity and
// purity, plus an optional policies() function. Unlike original_source's
// llmfw::validate, which inspects the parser's AST Program before
// compilation, this validates the compiled bytecode.Module directly —
// the only input spec §1 grants the framework layer ("a compiled module
// value").
type AppValidator struct{}

// ValidationResult records what AppValidator found.
type ValidationResult struct {
	HasInit     bool
	HasUpdate   bool
	HasView     bool
	HasPolicies bool
	Errors      []string
}

// Validate checks module against the App protocol, returning a
// KindValidation Error if any check fails.
func (AppValidator) Validate(module *bytecode.Module) (*ValidationResult, error) {
	result := &ValidationResult{}

	for _, f := range module.Functions {
		switch f.Name {
		case "init":
			result.HasInit = true
			if f.Arity != 0 {
				result.Errors = append(result.Errors, "init() must take 0 parameters")
			}
		case "update":
			result.HasUpdate = true
			if f.Arity != 2 {
				result.Errors = append(result.Errors, "update() must take 2 parameters (state, msg), got "+strconv.Itoa(int(f.Arity)))
			}
			if len(f.Capabilities) != 0 {
				result.Errors = append(result.Errors, "update() must be pure — no capability annotations allowed")
			}
		case "view":
			result.HasView = true
			if f.Arity != 1 {
				result.Errors = append(result.Errors, "view() must take 1 parameter (state), got "+strconv.Itoa(int(f.Arity)))
			}
			if len(f.Capabilities) != 0 {
				result.Errors = append(result.Errors, "view() must be pure — no capability annotations allowed")
			}
		case "policies":
			result.HasPolicies = true
			if f.Arity != 0 {
				result.Errors = append(result.Errors, "policies() must take 0 parameters")
			}
			if len(f.Capabilities) != 0 {
				result.Errors = append(result.Errors, "policies() must be pure — no capability annotations allowed")
			}
		}
	}

	if !result.HasInit {
		result.Errors = append(result.Errors, "missing required function: init()")
	}
	if !result.HasUpdate {
		result.Errors = append(result.Errors, "missing required function: update()")
	}
	if !result.HasView {
		result.Errors = append(result.Errors, "missing required function: view()")
	}

	if len(result.Errors) > 0 {
		return result, newError(KindValidation, "%s", strings.Join(result.Errors, "; "))
	}
	return result, nil
}

// IsValidApp is a quick boolean check wrapping Validate.
func (v AppValidator) IsValidApp(module *bytecode.Module) bool {
	_, err := v.Validate(module)
	return err == nil
}
