package vm

import (
	"testing"

	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
)

func newTestVm(t *testing.T, module *bytecode.Module) *Vm {
	t.Helper()
	log := eventlog.New()
	gateway := capgw.New(capgw.AllowAll(), log)
	machine := New(module, gateway, log)
	if err := machine.SetEntryFunction(module.Entry); err != nil {
		t.Fatalf("SetEntryFunction() error = %v", err)
	}
	return machine
}

// addModule builds `1 + 2` as the entry function.
func addModule() *bytecode.Module {
	m := bytecode.NewModule("add")
	one := m.AddConst(bytecode.Int(1))
	two := m.AddConst(bytecode.Int(2))
	m.AddFunction(bytecode.Function{
		Name: "main",
		Code: []bytecode.Instruction{
			{Op: bytecode.OpPushConst, A: one},
			{Op: bytecode.OpPushConst, A: two},
			{Op: bytecode.OpAdd},
			{Op: bytecode.OpRet},
		},
	})
	m.Entry = 0
	return m
}

func TestExecuteBoundedCompletesWithinBudget(t *testing.T) {
	machine := newTestVm(t, addModule())
	result := machine.ExecuteBounded(100)
	if result.Kind != StepCompleted {
		t.Fatalf("ExecuteBounded() kind = %v, want StepCompleted", result.Kind)
	}
	if !bytecode.Equal(result.Value, bytecode.Int(3)) {
		t.Errorf("ExecuteBounded() value = %v, want Int(3)", result.Value)
	}
}

func TestExecuteBoundedYieldsWhenBudgetExhausted(t *testing.T) {
	machine := newTestVm(t, addModule())
	result := machine.ExecuteBounded(1)
	if result.Kind != StepYielded {
		t.Fatalf("ExecuteBounded(1) kind = %v, want StepYielded", result.Kind)
	}
	if result.StepsUsed != 1 {
		t.Errorf("ExecuteBounded(1) StepsUsed = %d, want 1", result.StepsUsed)
	}

	final := machine.ExecuteBounded(100)
	if final.Kind != StepCompleted {
		t.Fatalf("resumed ExecuteBounded() kind = %v, want StepCompleted", final.Kind)
	}
	if !bytecode.Equal(final.Value, bytecode.Int(3)) {
		t.Errorf("resumed ExecuteBounded() value = %v, want Int(3)", final.Value)
	}
}

func receiveModule() *bytecode.Module {
	m := bytecode.NewModule("recv")
	m.AddFunction(bytecode.Function{
		Name: "main",
		Code: []bytecode.Instruction{
			{Op: bytecode.OpReceiveMsg},
			{Op: bytecode.OpRet},
		},
	})
	m.Entry = 0
	return m
}

func TestExecuteBoundedBlocksOnEmptyMailbox(t *testing.T) {
	machine := newTestVm(t, receiveModule())
	result := machine.ExecuteBounded(10)
	if result.Kind != StepBlocked {
		t.Fatalf("ExecuteBounded() kind = %v, want StepBlocked", result.Kind)
	}
}

func TestExecuteBoundedResumesAfterMessageDelivered(t *testing.T) {
	machine := newTestVm(t, receiveModule())
	if result := machine.ExecuteBounded(10); result.Kind != StepBlocked {
		t.Fatalf("first ExecuteBounded() kind = %v, want StepBlocked", result.Kind)
	}

	machine.DeliverMessage(Message{From: 0, Payload: bytecode.Str("hi")})
	result := machine.ExecuteBounded(10)
	if result.Kind != StepCompleted {
		t.Fatalf("second ExecuteBounded() kind = %v, want StepCompleted", result.Kind)
	}
	if !bytecode.Equal(result.Value, bytecode.Str("hi")) {
		t.Errorf("second ExecuteBounded() value = %v, want Str(hi)", result.Value)
	}
}

func divZeroModule() *bytecode.Module {
	m := bytecode.NewModule("divzero")
	one := m.AddConst(bytecode.Int(1))
	zero := m.AddConst(bytecode.Int(0))
	m.AddFunction(bytecode.Function{
		Name: "main",
		Code: []bytecode.Instruction{
			{Op: bytecode.OpPushConst, A: one},
			{Op: bytecode.OpPushConst, A: zero},
			{Op: bytecode.OpDiv},
			{Op: bytecode.OpRet},
		},
	})
	m.Entry = 0
	return m
}

func TestExecuteBoundedReturnsErrorOnFault(t *testing.T) {
	machine := newTestVm(t, divZeroModule())
	result := machine.ExecuteBounded(100)
	if result.Kind != StepError {
		t.Fatalf("ExecuteBounded() kind = %v, want StepError", result.Kind)
	}
	kindErr, ok := result.Err.(*Error)
	if !ok {
		t.Fatalf("ExecuteBounded() err = %v (%T), want *Error", result.Err, result.Err)
	}
	if kindErr.Kind() != KindDivisionByZero {
		t.Errorf("Err.Kind() = %s, want %s", kindErr.Kind(), KindDivisionByZero)
	}
}

// capCallModule builds a function declaring capabilities that attempts a
// CapCall — with none declared, the purity-violation path.
func capCallModule(capabilities []bytecode.Capability) *bytecode.Module {
	m := bytecode.NewModule("capcall")
	m.AddFunction(bytecode.Function{
		Name:         "main",
		Capabilities: capabilities,
		Code: []bytecode.Instruction{
			{Op: bytecode.OpCapCall, A: uint32(bytecode.CapNetFetch), B: 0},
			{Op: bytecode.OpRet},
		},
	})
	m.Entry = 0
	return m
}

func TestCapCallFromPureFunctionIsPurityViolation(t *testing.T) {
	log := eventlog.New()
	gateway := capgw.New(capgw.AllowAll(), log)
	machine := New(capCallModule(nil), gateway, log)
	if err := machine.SetEntryFunction(0); err != nil {
		t.Fatalf("SetEntryFunction() error = %v", err)
	}

	result := machine.ExecuteBounded(100)
	if result.Kind != StepError {
		t.Fatalf("ExecuteBounded() kind = %v, want StepError", result.Kind)
	}
	capErr, ok := result.Err.(*capabilityDeniedVmError)
	if !ok {
		t.Fatalf("ExecuteBounded() err = %v (%T), want *capabilityDeniedVmError", result.Err, result.Err)
	}
	if capErr.Kind() != KindPurityViolation {
		t.Errorf("Kind() = %s, want %s", capErr.Kind(), KindPurityViolation)
	}

	calls := log.CapCalls()
	if len(calls) != 1 || calls[0].Decision != eventlog.DecisionDeny {
		t.Fatalf("CapCalls() = %+v, want one logged Deny decision", calls)
	}
}

func TestCapCallDeclaredButPolicyDeniedIsOrdinaryDenial(t *testing.T) {
	log := eventlog.New()
	gateway := capgw.New(capgw.DenyAll(), log)
	machine := New(capCallModule([]bytecode.Capability{bytecode.CapNetFetch}), gateway, log)
	if err := machine.SetEntryFunction(0); err != nil {
		t.Fatalf("SetEntryFunction() error = %v", err)
	}

	result := machine.ExecuteBounded(100)
	capErr, ok := result.Err.(*capabilityDeniedVmError)
	if !ok {
		t.Fatalf("ExecuteBounded() err = %v (%T), want *capabilityDeniedVmError", result.Err, result.Err)
	}
	if capErr.Kind() != KindCapabilityDenied {
		t.Errorf("Kind() = %s, want %s (declared-but-policy-denied is not a purity violation)", capErr.Kind(), KindCapabilityDenied)
	}
}

func TestCapCallDeclaredAndAllowedSucceeds(t *testing.T) {
	log := eventlog.New()
	gateway := capgw.New(capgw.AllowAll(), log)
	machine := New(capCallModule([]bytecode.Capability{bytecode.CapNetFetch}), gateway, log)
	if err := machine.SetEntryFunction(0); err != nil {
		t.Fatalf("SetEntryFunction() error = %v", err)
	}

	result := machine.ExecuteBounded(100)
	if result.Kind != StepCompleted {
		t.Fatalf("ExecuteBounded() kind = %v, err = %v, want StepCompleted", result.Kind, result.Err)
	}
}

func TestArithmeticOpsOnInts(t *testing.T) {
	cases := []struct {
		name string
		op   bytecode.OpCode
		a, b int64
		want int64
	}{
		{"add", bytecode.OpAdd, 3, 4, 7},
		{"sub", bytecode.OpSub, 10, 4, 6},
		{"mul", bytecode.OpMul, 3, 4, 12},
		{"div", bytecode.OpDiv, 12, 4, 3},
		{"mod", bytecode.OpMod, 10, 3, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := bytecode.NewModule("arith")
			ia := m.AddConst(bytecode.Int(c.a))
			ib := m.AddConst(bytecode.Int(c.b))
			m.AddFunction(bytecode.Function{
				Name: "main",
				Code: []bytecode.Instruction{
					{Op: bytecode.OpPushConst, A: ia},
					{Op: bytecode.OpPushConst, A: ib},
					{Op: c.op},
					{Op: bytecode.OpRet},
				},
			})
			m.Entry = 0
			machine := newTestVm(t, m)
			result := machine.ExecuteBounded(100)
			if result.Kind != StepCompleted {
				t.Fatalf("ExecuteBounded() kind = %v, err = %v", result.Kind, result.Err)
			}
			if !bytecode.Equal(result.Value, bytecode.Int(c.want)) {
				t.Errorf("result = %v, want Int(%d)", result.Value, c.want)
			}
		})
	}
}

func TestListBuiltinsLenGetPush(t *testing.T) {
	m := bytecode.NewModule("list")
	a := m.AddConst(bytecode.Int(10))
	b := m.AddConst(bytecode.Int(20))
	idx0 := m.AddConst(bytecode.Int(0))
	extra := m.AddConst(bytecode.Int(30))
	m.AddFunction(bytecode.Function{
		Name: "main",
		Code: []bytecode.Instruction{
			{Op: bytecode.OpPushConst, A: a},
			{Op: bytecode.OpPushConst, A: b},
			{Op: bytecode.OpMakeList, A: 2},
			{Op: bytecode.OpPushConst, A: extra},
			{Op: bytecode.OpListPush},
			{Op: bytecode.OpDup},
			{Op: bytecode.OpListLen},
			{Op: bytecode.OpPop},
			{Op: bytecode.OpPushConst, A: idx0},
			{Op: bytecode.OpListGet},
			{Op: bytecode.OpRet},
		},
	})
	m.Entry = 0
	machine := newTestVm(t, m)
	result := machine.ExecuteBounded(100)
	if result.Kind != StepCompleted {
		t.Fatalf("ExecuteBounded() kind = %v, err = %v", result.Kind, result.Err)
	}
	if !bytecode.Equal(result.Value, bytecode.Int(10)) {
		t.Errorf("result = %v, want Int(10) (first element after push)", result.Value)
	}
}

func TestUnknownOpcodeFaultsWithStepError(t *testing.T) {
	m := bytecode.NewModule("bad")
	m.AddFunction(bytecode.Function{
		Name: "main",
		Code: []bytecode.Instruction{{Op: bytecode.OpCode(0x99)}},
	})
	m.Entry = 0
	machine := newTestVm(t, m)
	result := machine.ExecuteBounded(100)
	if result.Kind != StepError {
		t.Fatalf("ExecuteBounded() kind = %v, want StepError", result.Kind)
	}
	if err, ok := result.Err.(*Error); !ok || err.Kind() != KindUnknownOpcode {
		t.Errorf("Err = %v, want *Error with Kind %s", result.Err, KindUnknownOpcode)
	}
}
