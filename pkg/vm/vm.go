// Package vm implements the stack-based bytecode VM (spec §4.C): bounded
// execution, actor-aware opcodes, and purity-enforcing capability calls
// routed through pkg/capgw.
package vm

import (
	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
)

const (
	maxStack     = 4096
	maxCallDepth = 256
)

// Message is one entry in an actor's mailbox: the sender and the
// delivered payload.
type Message struct {
	From    uint64
	Payload bytecode.Value
}

// SpawnRequest is a pending spawn-actor request queued by the
// SpawnActor opcode, drained by the scheduler after a VM's slice.
type SpawnRequest struct {
	FuncIdx uint32
}

// StepResultKind discriminates a StepResult.
type StepResultKind uint8

const (
	StepCompleted StepResultKind = iota
	StepYielded
	StepBlocked
	StepError
)

// StepResult is the outcome of ExecuteBounded (spec §4.C).
type StepResult struct {
	Kind      StepResultKind
	Value     bytecode.Value
	StepsUsed uint64
	Err       error
}

type callFrame struct {
	funcIdx   uint32
	ip        int
	stackBase int
	locals    []bytecode.Value
}

// Vm is one bytecode virtual machine instance (spec §4.C "State per VM
// instance"). A Vm belongs to exactly one actor (actor id 0 for the
// root) and is moved between the owning actor and the scheduler only at
// slice boundaries, never shared concurrently (spec §5).
type Vm struct {
	module    *bytecode.Module
	stack     []bytecode.Value
	callStack []callFrame
	globals   []bytecode.Value
	gateway   *capgw.Gateway
	eventLog  *eventlog.EventLog

	stepCount uint64
	maxSteps  uint64

	UIOutput []bytecode.Value

	actorID uint64
	// Mailbox is the incoming message queue, populated by the owning
	// actor's scheduler between slices.
	Mailbox []Message
	// outgoing is drained by the scheduler after each slice.
	outgoing []OutgoingMessage
	// spawnRequests is drained by the scheduler after each slice.
	spawnRequests []SpawnRequest
	// NextSpawnID is published by the scheduler immediately before each
	// slice so SpawnActor opcodes issued during it see the correct
	// reservation (spec §4.E step 3).
	NextSpawnID uint64

	budget      uint64
	budgeted    bool
	budgetStart uint64
}

// OutgoingMessage is one SendMsg-queued message, drained by the
// scheduler after a VM's slice.
type OutgoingMessage struct {
	To      uint64
	Payload bytecode.Value
}

// New constructs a Vm over module, dispatching capability calls through
// gateway and appending to log.
func New(module *bytecode.Module, gateway *capgw.Gateway, log *eventlog.EventLog) *Vm {
	return &Vm{
		module:   module,
		stack:    make([]bytecode.Value, 0, 256),
		globals:  make([]bytecode.Value, len(module.Globals)),
		gateway:  gateway,
		eventLog: log,
		maxSteps: 10_000_000,
	}
}

// SetMaxSteps overrides the unbounded-run step ceiling (default 10M).
func (v *Vm) SetMaxSteps(n uint64) { v.maxSteps = n }

// Module returns the module this Vm executes, for cloning into a
// spawned child actor.
func (v *Vm) Module() *bytecode.Module { return v.module }

// ActorID returns this Vm's owning actor id.
func (v *Vm) ActorID() uint64 { return v.actorID }

// SetActorID sets this Vm's owning actor id (0 = root).
func (v *Vm) SetActorID(id uint64) { v.actorID = id }

// StepCount returns the number of opcodes executed so far.
func (v *Vm) StepCount() uint64 { return v.stepCount }

// HasMessages reports whether the mailbox is non-empty.
func (v *Vm) HasMessages() bool { return len(v.Mailbox) > 0 }

// DeliverMessage appends msg to this Vm's mailbox.
func (v *Vm) DeliverMessage(msg Message) { v.Mailbox = append(v.Mailbox, msg) }

// DrainOutgoing returns and clears queued SendMsg targets.
func (v *Vm) DrainOutgoing() []OutgoingMessage {
	out := v.outgoing
	v.outgoing = nil
	return out
}

// DrainSpawnRequests returns and clears queued SpawnActor requests.
func (v *Vm) DrainSpawnRequests() []SpawnRequest {
	out := v.spawnRequests
	v.spawnRequests = nil
	return out
}

// SetEntryFunction pushes the call frame for funcIdx if the call stack
// is currently empty — the one-time setup step before repeated
// ExecuteBounded calls (spec §4.C).
func (v *Vm) SetEntryFunction(funcIdx uint32) error {
	if len(v.callStack) == 0 {
		return v.callFunction(funcIdx, nil)
	}
	return nil
}

// Run executes from the module's entry point to completion, unbounded
// except for the maxSteps ceiling. This is the legacy convenience
// wrapper spec §4.C describes as `execute_bounded(max_steps)`,
// converting a Yielded outcome into StepLimit.
func (v *Vm) Run() (bytecode.Value, error) {
	if err := v.callFunction(v.module.Entry, nil); err != nil {
		return bytecode.Value{}, err
	}
	val, err := v.execute()
	if err == errBudgetExhausted {
		return bytecode.Value{}, newError(KindStepLimit, "max execution steps exceeded (%d)", v.maxSteps)
	}
	return val, err
}

// ExecuteBounded advances at most budget opcodes and returns one of
// Completed/Yielded/Blocked/Error (spec §4.C). Call SetEntryFunction
// once before the first invocation.
func (v *Vm) ExecuteBounded(budget uint64) StepResult {
	v.budgeted = true
	v.budget = budget
	v.budgetStart = v.stepCount
	val, err := v.execute()
	v.budgeted = false

	switch {
	case err == nil:
		return StepResult{Kind: StepCompleted, Value: val}
	case err == errBudgetExhausted:
		return StepResult{Kind: StepYielded, StepsUsed: v.stepCount - v.budgetStart}
	case err == errMailboxEmpty:
		return StepResult{Kind: StepBlocked}
	default:
		return StepResult{Kind: StepError, Err: err}
	}
}

func (v *Vm) callFunction(funcIdx uint32, args []bytecode.Value) error {
	if int(funcIdx) >= len(v.module.Functions) {
		return newError(KindInvalidFunction, "invalid function index: %d", funcIdx)
	}
	if len(v.callStack) >= maxCallDepth {
		return newError(KindStackOverflow, "stack overflow (max %d)", maxCallDepth)
	}
	fn := &v.module.Functions[funcIdx]
	locals := make([]bytecode.Value, fn.Locals)
	for i, arg := range args {
		if i < len(locals) {
			locals[i] = arg
		}
	}
	v.callStack = append(v.callStack, callFrame{
		funcIdx:   funcIdx,
		stackBase: len(v.stack),
		locals:    locals,
	})
	return nil
}

func (v *Vm) push(val bytecode.Value) error {
	if len(v.stack) >= maxStack {
		return newError(KindStackOverflow, "stack overflow (max %d)", maxStack)
	}
	v.stack = append(v.stack, val)
	return nil
}

func (v *Vm) pop() (bytecode.Value, error) {
	n := len(v.stack)
	if n == 0 {
		return bytecode.Value{}, newError(KindStackUnderflow, "stack underflow")
	}
	val := v.stack[n-1]
	v.stack = v.stack[:n-1]
	return val, nil
}

func (v *Vm) top() *callFrame {
	return &v.callStack[len(v.callStack)-1]
}
