package capgw

import (
	"fmt"
	"log/slog"

	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/eventlog"
)

// Handler is a host-provided implementation of capability side effects.
// Exactly one kind is active per gateway (Mock, Replay, or Host), per
// spec §4.B.
type Handler interface {
	Handle(cap bytecode.Capability, args []bytecode.Value) (bytecode.Value, error)
}

// Gateway is the sole conduit for side effects: policy check, budget
// decrement, logging, handler dispatch, result logging, in that order
// (spec §4.B contract).
type Gateway struct {
	policy  Policy
	usage   map[string]uint64
	handler Handler
	log     *eventlog.EventLog
	logger  *slog.Logger
}

// New constructs a gateway with the given policy, a MockHandler, and
// slog.Default() as its logger. Use WithHandler/WithLogger to customize
// either.
func New(policy Policy, log *eventlog.EventLog) *Gateway {
	return &Gateway{
		policy:  policy,
		usage:   map[string]uint64{},
		handler: MockHandler{},
		log:     log,
		logger:  slog.Default(),
	}
}

// WithHandler returns a shallow copy of g using handler instead of its
// current one.
func (g *Gateway) WithHandler(h Handler) *Gateway {
	clone := *g
	clone.handler = h
	return &clone
}

// WithLogger attaches a structured logger for Debug/Warn-level
// capability-denial and dispatch tracing.
func (g *Gateway) WithLogger(l *slog.Logger) *Gateway {
	clone := *g
	clone.logger = l
	return &clone
}

// Policy returns the gateway's active policy by value (the Rules map is
// shared, not copied), for handing to a spawned child actor's own
// gateway (spec §4.E: each actor VM gets its own CapabilityGateway
// sharing the scheduler's policy).
func (g *Gateway) Policy() Policy { return g.policy }

// Usage returns the per-capability invocation counts observed so far.
func (g *Gateway) Usage() map[string]uint64 {
	out := make(map[string]uint64, len(g.usage))
	for k, v := range g.usage {
		out[k] = v
	}
	return out
}

// Call enforces policy, logs, and dispatches one capability invocation.
// Ordering (spec §4.B): (1) resolve rule, (2) deny -> log+fail, (3)
// budget check -> fail without invoking handler, (4) log CapCall, (5)
// invoke handler, (6) log CapResult (or the Err a handler failure
// becomes), (7) return.
func (g *Gateway) Call(cap bytecode.Capability, args []bytecode.Value) (bytecode.Value, error) {
	name := cap.Name()
	rule := g.policy.RuleFor(cap)

	if !rule.Allow {
		g.log.LogCapCall(cap, args, eventlog.DecisionDeny)
		g.logger.Debug("capability denied", "capability", name)
		return bytecode.Value{}, &DeniedError{Capability: cap}
	}

	// rule.Budget == 0 means unlimited (see PolicyRule.Budget), so a
	// budget-exhaustion check can never fire on the very first call of a
	// rule authored with no budget field. A policy wanting a hard
	// zero-calls ceiling should set Allow: false on that rule instead.
	count := g.usage[name] + 1
	if rule.Budget > 0 && count > rule.Budget {
		g.logger.Warn("capability budget exhausted", "capability", name, "budget", rule.Budget)
		return bytecode.Value{}, &BudgetExhaustedError{Capability: cap}
	}
	g.usage[name] = count

	g.log.LogCapCall(cap, args, eventlog.DecisionAllow)

	result, err := g.handler.Handle(cap, args)
	if err != nil {
		// Handler failures are not VM errors: they become Err(reason)
		// values flowing back through normal control flow (spec §7's
		// central discipline: "bad IO returns data; bad code returns
		// errors").
		result = bytecode.Err(bytecode.Str(err.Error()))
	}
	g.log.LogCapResult(cap, result)
	return result, nil
}

// DeniedError is returned when policy denies a capability outright.
type DeniedError struct {
	Capability bytecode.Capability
	// Purity marks this denial as arising from a deny-all purity gate
	// (spec §4.C) rather than an ordinary policy rule, so callers can
	// distinguish PurityViolation from CapabilityDenied per spec §7.
	Purity bool
}

func (e *DeniedError) Error() string {
	if e.Purity {
		return fmt.Sprintf("capgw: purity violation: capability %q invoked from a pure frame", e.Capability.Name())
	}
	return fmt.Sprintf("capgw: capability denied: %s", e.Capability.Name())
}

// BudgetExhaustedError is returned when a capability's invocation budget
// is exhausted. The handler is never invoked.
type BudgetExhaustedError struct {
	Capability bytecode.Capability
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("capgw: budget exhausted: %s", e.Capability.Name())
}
