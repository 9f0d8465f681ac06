// Package framework implements the Elm-architecture app runtime (spec
// §4.F): init/update/view cycling over a compiled module, purity
// enforcement on update/view via a deny-all capability policy, declarative
// effects, and time-travel state inspection.
package framework

import "fmt"

// Error is a framework-level fault, distinct from a bare vm.Error: it
// names which protocol guarantee the module or a runtime call violated.
type Error struct {
	kind    string
	message string
}

func (e *Error) Error() string { return e.message }
func (e *Error) Kind() string  { return e.kind }

const (
	KindValidation        = "Validation"
	KindMissingFunction   = "MissingFunction"
	KindPurityViolation   = "PurityViolation"
	KindWrongArity        = "WrongArity"
	KindMissingType       = "MissingType"
	KindEffect            = "Effect"
	KindPolicyViolation   = "PolicyViolation"
	KindState             = "State"
	KindRuntime           = "Runtime"
	KindMaxCyclesExceeded = "MaxCyclesExceeded"
)

func newError(kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func errMissingFunction(name string) *Error {
	return newError(KindMissingFunction, "missing required function: %s", name)
}

func errPurityViolation(name string) *Error {
	return newError(KindPurityViolation, "function `%s` must not have capability annotations", name)
}

func errMaxCyclesExceeded(max uint64) *Error {
	return newError(KindMaxCyclesExceeded, "max cycles exceeded: %d", max)
}

// wrapRuntimeError converts a vm fault raised while executing a pure
// frame (update/view/policies) into a PurityViolation when the VM's own
// fault was itself a capability denial, mirroring original_source's
// `wrap_purity_error`; any other VM fault surfaces as KindRuntime.
func wrapRuntimeError(name string, pure bool, err error) *Error {
	if kinder, ok := err.(interface{ Kind() string }); ok && pure {
		switch kinder.Kind() {
		case "CapabilityDenied", "PurityViolation", "BudgetExhausted":
			return errPurityViolation(name)
		}
	}
	return newError(KindRuntime, "runtime error: %v", err)
}
