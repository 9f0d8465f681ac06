package framework

import (
	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
	"github.com/chazu/boruna/pkg/vm"
)

const defaultMaxCycles = 100_000

// AppRuntime drives the init → update → effects → view cycle over a
// compiled module (spec §4.F). update and view always execute under a
// deny-all capability policy; init and policies use the gateway passed to
// New when there is one (see callFunction).
type AppRuntime struct {
	module       *bytecode.Module
	stateMachine *StateMachine
	policy       *PolicySet
	fnMap        map[string]uint32
	cycleLog     []CycleRecord
	maxCycles    uint64
	eventLog     *eventlog.EventLog
}

// New builds an AppRuntime over module: runs init() (which may use
// capabilities through gateway), then policies() if present. log accumulates
// every CapCall/PurityViolation/UiEmit attempt made by init, policies,
// update, and view across the runtime's lifetime (spec §4.D: the event log
// is append-only and owned for the run's duration, not per-call) — a nil
// log is replaced with a fresh one so callers that don't care about replay
// or evidence bundling can still construct a runtime.
func New(module *bytecode.Module, gateway *capgw.Gateway, log *eventlog.EventLog) (*AppRuntime, error) {
	fnMap := make(map[string]uint32, len(module.Functions))
	for i, f := range module.Functions {
		fnMap[f.Name] = uint32(i)
	}

	if _, ok := fnMap["init"]; !ok {
		return nil, errMissingFunction("init")
	}
	if _, ok := fnMap["update"]; !ok {
		return nil, errMissingFunction("update")
	}
	if _, ok := fnMap["view"]; !ok {
		return nil, errMissingFunction("view")
	}

	if log == nil {
		log = eventlog.New()
	}

	initState, err := callFunction(module, fnMap, "init", nil, false, gateway, log)
	if err != nil {
		return nil, err
	}

	policy := AllowAllPolicy()
	if _, ok := fnMap["policies"]; ok {
		policyVal, err := callFunction(module, fnMap, "policies", nil, true, gateway, log)
		if err != nil {
			return nil, err
		}
		policy = PolicySetFromValue(policyVal)
	}
	policyPtr := &policy

	return &AppRuntime{
		module:       module,
		stateMachine: NewStateMachine(initState),
		policy:       policyPtr,
		fnMap:        fnMap,
		maxCycles:    defaultMaxCycles,
		eventLog:     log,
	}, nil
}

// EventLog returns the runtime's accumulated event log, the substrate for
// trace_hash, replay verification, and evidence-bundle audit chaining.
func (r *AppRuntime) EventLog() *eventlog.EventLog { return r.eventLog }

// State returns the current application state.
func (r *AppRuntime) State() bytecode.Value { return r.stateMachine.Current() }

// Cycle returns the current cycle number.
func (r *AppRuntime) Cycle() uint64 { return r.stateMachine.Cycle() }

// CycleLog returns every recorded cycle, in order.
func (r *AppRuntime) CycleLog() []CycleRecord { return r.cycleLog }

// Policy returns the active policy set.
func (r *AppRuntime) Policy() *PolicySet { return r.policy }

// StateMachine exposes the underlying state machine for inspection/testing.
func (r *AppRuntime) StateMachine() *StateMachine { return r.stateMachine }

// SetMaxCycles overrides the per-runtime cycle ceiling (default 100,000).
func (r *AppRuntime) SetMaxCycles(n uint64) { r.maxCycles = n }

// Send drives one cycle: update(state, msg) -> validate effects against
// policy -> transition state -> view(new_state). update and view always
// run under deny-all (spec §4.F purity enforcement).
func (r *AppRuntime) Send(msg Message) (bytecode.Value, []Effect, bytecode.Value, error) {
	if r.stateMachine.Cycle() >= r.maxCycles {
		return bytecode.Value{}, nil, bytecode.Value{}, errMaxCyclesExceeded(r.maxCycles)
	}

	stateBefore := r.stateMachine.Current()

	updateResult, err := callFunction(r.module, r.fnMap, "update", []bytecode.Value{stateBefore, msg.ToValue()}, true, nil, r.eventLog)
	if err != nil {
		return bytecode.Value{}, nil, bytecode.Value{}, err
	}

	newState, effects, ok := ParseUpdateResult(updateResult)
	if !ok {
		return bytecode.Value{}, nil, bytecode.Value{}, newError(KindEffect, "update() must return a Record with [state, effects] fields")
	}

	if err := r.policy.CheckBatch(effects); err != nil {
		return bytecode.Value{}, nil, bytecode.Value{}, err
	}

	r.stateMachine.Transition(newState)

	uiTree, err := callFunction(r.module, r.fnMap, "view", []bytecode.Value{newState}, true, nil, r.eventLog)
	if err != nil {
		return bytecode.Value{}, nil, bytecode.Value{}, err
	}

	r.cycleLog = append(r.cycleLog, CycleRecord{
		Cycle: r.stateMachine.Cycle(), Message: msg, StateBefore: stateBefore,
		StateAfter: newState, Effects: effects, UITree: uiTree, HasUITree: true,
	})

	return newState, effects, uiTree, nil
}

// SendWithExecutor extends Send by routing the returned effects through
// executor, producing the callback messages for the next cycle.
func (r *AppRuntime) SendWithExecutor(msg Message, executor EffectExecutor) (bytecode.Value, []Message, bytecode.Value, error) {
	state, effects, ui, err := r.Send(msg)
	if err != nil {
		return bytecode.Value{}, nil, bytecode.Value{}, err
	}
	callbacks, err := executor.Execute(effects)
	if err != nil {
		return bytecode.Value{}, nil, bytecode.Value{}, err
	}
	return state, callbacks, ui, nil
}

// View calls view() on the current state without transitioning (pure).
func (r *AppRuntime) View() (bytecode.Value, error) {
	return callFunction(r.module, r.fnMap, "view", []bytecode.Value{r.stateMachine.Current()}, true, nil, r.eventLog)
}

// Snapshot returns the current state as canonical JSON.
func (r *AppRuntime) Snapshot() string { return r.stateMachine.Snapshot() }

// Rewind time-travels to a previous cycle.
func (r *AppRuntime) Rewind(cycle uint64) error { return r.stateMachine.Rewind(cycle) }

// DiffFrom returns the field diffs between cycle and the current state.
func (r *AppRuntime) DiffFrom(cycle uint64) []StateDiff { return r.stateMachine.DiffFromCycle(cycle) }

// callFunction invokes the named module function with args. A
// caller-supplied gateway is used as given; when gateway is nil a fresh
// one is built on log, allow-all for an impure call (init) or deny-all
// for a pure one (update/view/policies), and a nil log is replaced with a
// fresh one — update/view never need a caller-supplied
// gateway since nothing they're permitted to call would ever reach one.
//
// Zero-arg calls run the function directly as the module's entry point;
// calls with arguments synthesize a throwaway wrapper function that
// pushes each argument as a constant, calls the target, and returns —
// there is no dedicated "call with arguments" VM entry point (spec §4.C),
// so this is how a host invokes an argumented function at all.
func callFunction(module *bytecode.Module, fnMap map[string]uint32, name string, args []bytecode.Value, pure bool, gateway *capgw.Gateway, log *eventlog.EventLog) (bytecode.Value, error) {
	funcIdx, ok := fnMap[name]
	if !ok {
		return bytecode.Value{}, errMissingFunction(name)
	}

	if log == nil {
		log = eventlog.New()
	}
	if gateway == nil {
		policy := capgw.AllowAll()
		if pure {
			policy = capgw.DenyAll()
		}
		gateway = capgw.New(policy, log)
	}

	runModule := module
	if len(args) > 0 {
		wrapper := *module
		wrapper.Functions = append([]bytecode.Function(nil), module.Functions...)
		wrapper.Constants = append([]bytecode.Value(nil), module.Constants...)

		code := make([]bytecode.Instruction, 0, len(args)+2)
		for _, arg := range args {
			idx := uint32(len(wrapper.Constants))
			wrapper.Constants = append(wrapper.Constants, arg)
			code = append(code, bytecode.Instruction{Op: bytecode.OpPushConst, A: idx})
		}
		code = append(code, bytecode.Instruction{Op: bytecode.OpCall, A: funcIdx, B: uint8(len(args))})
		code = append(code, bytecode.Instruction{Op: bytecode.OpRet})

		wrapperIdx := uint32(len(wrapper.Functions))
		wrapper.Functions = append(wrapper.Functions, bytecode.Function{Name: "__fw_wrapper__", Code: code})
		wrapper.Entry = wrapperIdx
		runModule = &wrapper
	} else {
		clone := *module
		clone.Entry = funcIdx
		runModule = &clone
	}

	machine := vm.New(runModule, gateway, log)
	result, err := machine.Run()
	if err != nil {
		return bytecode.Value{}, wrapRuntimeError(name, pure, err)
	}
	return result, nil
}
