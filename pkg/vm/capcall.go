package vm

import (
	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
)

// opCapCall implements the CapCall opcode (spec §4.B/§4.C): the calling
// function's declared capability set gates the call before the gateway's
// own policy does, so a module that never declared `net.fetch` can't
// invoke it regardless of how permissive the active policy is.
func (v *Vm) opCapCall(funcIdx uint32, inst bytecode.Instruction) error {
	cap, ok := bytecode.CapabilityFromID(inst.A)
	if !ok {
		return newError(KindUnknownCapability, "unknown capability id: %d", inst.A)
	}

	fn := &v.module.Functions[funcIdx]

	argCount := int(inst.B)
	args := make([]bytecode.Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		val, err := v.pop()
		if err != nil {
			return err
		}
		args[i] = val
	}

	if !fn.DeclaresCapability(cap) {
		// The function's own declared capability set gates the call
		// before the gateway's policy does (spec §4.C). Logged here
		// directly since the gateway is never reached on this path, but
		// every denial — purity or ordinary policy — must still appear
		// in the event log (spec §8 purity enforcement property).
		v.eventLog.LogCapCall(cap, args, eventlog.DecisionDeny)
		return &capabilityDeniedVmError{cap: cap, purity: len(fn.Capabilities) == 0}
	}

	result, err := v.gateway.Call(cap, args)
	if err != nil {
		if denied, ok := err.(*capgw.DeniedError); ok {
			return &capabilityDeniedVmError{cap: denied.Capability, purity: denied.Purity || len(fn.Capabilities) == 0}
		}
		if _, ok := err.(*capgw.BudgetExhaustedError); ok {
			return newError(KindBudgetExhausted, "%s", err.Error())
		}
		return err
	}
	return v.push(result)
}

// capabilityDeniedVmError wraps a gateway denial as a VM-level fault.
// purity distinguishes a function that never declared any capability
// attempting one (spec §4.C "PurityViolation ... a distinct error
// subkind of CapabilityDenied") from an ordinary policy denial.
type capabilityDeniedVmError struct {
	cap    bytecode.Capability
	purity bool
}

func (e *capabilityDeniedVmError) Error() string {
	if e.purity {
		return "purity violation: capability " + e.cap.Name() + " invoked from a pure frame"
	}
	return "capability denied: " + e.cap.Name()
}

func (e *capabilityDeniedVmError) Kind() string {
	if e.purity {
		return KindPurityViolation
	}
	return KindCapabilityDenied
}

// Capability exposes the denied capability for callers that want to
// report which one triggered the fault (e.g. scenario 2's
// PurityViolation{cap:"net.fetch"}).
func (e *capabilityDeniedVmError) Capability() bytecode.Capability { return e.cap }
