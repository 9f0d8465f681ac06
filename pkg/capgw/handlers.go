package capgw

import (
	"fmt"

	"github.com/chazu/boruna/pkg/bytecode"
)

// MockHandler returns deterministic canned responses keyed by
// capability, for sandboxed/testing execution. Ported from
// original_source's llmvm::capability_gateway::MockHandler.
type MockHandler struct{}

func (MockHandler) Handle(cap bytecode.Capability, args []bytecode.Value) (bytecode.Value, error) {
	switch cap {
	case bytecode.CapTimeNow:
		return bytecode.Int(1700000000), nil
	case bytecode.CapRandom:
		return bytecode.Float(0.42), nil
	case bytecode.CapNetFetch:
		url := firstArgString(args)
		return bytecode.Str(fmt.Sprintf(`{"mock": true, "url": %q}`, url)), nil
	case bytecode.CapFsRead:
		path := firstArgString(args)
		return bytecode.Str(fmt.Sprintf("mock file content for %s", path)), nil
	case bytecode.CapFsWrite:
		return bytecode.Bool(true), nil
	case bytecode.CapDbQuery:
		return bytecode.List(nil), nil
	case bytecode.CapUiRender:
		return bytecode.Unit(), nil
	case bytecode.CapLlmCall:
		return bytecode.Map(map[string]bytecode.Value{
			"status": bytecode.Str("ok"),
			"mock":   bytecode.Bool(true),
		}), nil
	case bytecode.CapActorSpawn, bytecode.CapActorSend:
		// Actor ops are handled at the opcode/scheduler level, not
		// through the gateway; a direct cap-call to either is a no-op.
		return bytecode.Unit(), nil
	default:
		return bytecode.Unit(), nil
	}
}

func firstArgString(args []bytecode.Value) string {
	if len(args) == 0 {
		return ""
	}
	if args[0].Kind() == bytecode.KindString {
		return args[0].StringValue()
	}
	return args[0].String()
}

// ReplayHandler serves recorded CapResult values from a prior run, in
// the order they were originally produced. Exhausting the recording is a
// hard error — a replay that calls more capabilities than were recorded
// has diverged.
type ReplayHandler struct {
	results []bytecode.Value
	cursor  int
}

// NewReplayHandler builds a handler that replays results in order.
func NewReplayHandler(results []bytecode.Value) *ReplayHandler {
	return &ReplayHandler{results: results}
}

func (r *ReplayHandler) Handle(cap bytecode.Capability, args []bytecode.Value) (bytecode.Value, error) {
	if r.cursor >= len(r.results) {
		return bytecode.Value{}, fmt.Errorf("capgw: replay log exhausted at capability %q", cap.Name())
	}
	v := r.results[r.cursor]
	r.cursor++
	return v, nil
}

// HostFunc is the signature a real IO implementation registers for one
// capability.
type HostFunc func(args []bytecode.Value) (bytecode.Value, error)

// HostHandler dispatches to real IO, one HostFunc per capability.
// Capabilities with no registered func fail closed rather than silently
// no-op, since a Host handler stands in for genuine external effects.
type HostHandler struct {
	funcs map[bytecode.Capability]HostFunc
}

// NewHostHandler builds an empty host handler; register funcs with
// Register before use.
func NewHostHandler() *HostHandler {
	return &HostHandler{funcs: map[bytecode.Capability]HostFunc{}}
}

// Register binds fn as the implementation of cap.
func (h *HostHandler) Register(cap bytecode.Capability, fn HostFunc) *HostHandler {
	h.funcs[cap] = fn
	return h
}

func (h *HostHandler) Handle(cap bytecode.Capability, args []bytecode.Value) (bytecode.Value, error) {
	fn, ok := h.funcs[cap]
	if !ok {
		return bytecode.Value{}, fmt.Errorf("capgw: no host implementation registered for %q", cap.Name())
	}
	return fn(args)
}
