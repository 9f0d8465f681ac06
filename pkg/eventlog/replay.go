package eventlog

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/boruna/pkg/bytecode"
)

// DivergenceKind classifies how a replay differed from the recorded run
// (spec §4.D, §7).
type DivergenceKind string

const (
	DivergenceCapMismatch       DivergenceKind = "CapMismatch"
	DivergenceSchedulerDiverged DivergenceKind = "SchedulerDiverged"
	DivergenceMessageDiverged   DivergenceKind = "MessageDiverged"
	DivergenceUnexpectedEnd     DivergenceKind = "UnexpectedEnd"
	DivergenceMissingExpected   DivergenceKind = "MissingExpected"
)

// ReplayResult is the outcome of a verification pass.
type ReplayResult struct {
	Identical bool
	Kind      DivergenceKind
	Position  int
	Reason    string
}

func diverge(kind DivergenceKind, pos int, format string, args ...any) ReplayResult {
	return ReplayResult{Identical: false, Kind: kind, Position: pos, Reason: fmt.Sprintf(format, args...)}
}

// ReplayEngine compares a recorded log against the log of a replayed run
// and reports whether the two show identical observable behavior.
type ReplayEngine struct{}

// Verify compares only the CapCall sequence of original against replay:
// same count, same (capability, args) pairs at every position, in order.
// Cheap; the common case for a Replay-handler-driven re-run.
func (ReplayEngine) Verify(original, replay *EventLog) ReplayResult {
	origCalls := original.CapCalls()
	replCalls := replay.CapCalls()

	for i := 0; i < len(origCalls) || i < len(replCalls); i++ {
		if i >= len(replCalls) {
			return diverge(DivergenceUnexpectedEnd, i, "replay ended after %d capability calls, expected %d", len(replCalls), len(origCalls))
		}
		if i >= len(origCalls) {
			return diverge(DivergenceMissingExpected, i, "replay produced an extra capability call: %s", replCalls[i].Capability)
		}
		o, r := origCalls[i], replCalls[i]
		if o.Capability != r.Capability || !argsEqual(o.Args, r.Args) {
			return diverge(DivergenceCapMismatch, i, "capability call #%d differs: %s(%v) vs %s(%v)", i, o.Capability, o.Args, r.Capability, r.Args)
		}
	}
	return ReplayResult{Identical: true}
}

// VerifyFull compares every event in the log, not just CapCall, and
// classifies the first divergence by the kind of event it occurred on
// (spec §4.D's ReplayEngine lists SchedulerDiverged/MessageDiverged as
// distinct kinds; original_source's verify_full only returns a generic
// Diverged{reason} — this recovers the finer classification spec.md
// names, per SPEC_FULL.md §3).
func (e ReplayEngine) VerifyFull(original, replay *EventLog) ReplayResult {
	orig, repl := original.Events, replay.Events
	for i := 0; i < len(orig) || i < len(repl); i++ {
		if i >= len(repl) {
			return diverge(DivergenceUnexpectedEnd, i, "replay ended after %d events, expected %d", len(repl), len(orig))
		}
		if i >= len(orig) {
			return diverge(DivergenceMissingExpected, i, "replay produced an extra event at position %d", i)
		}
		o, r := orig[i], repl[i]
		if o.Kind != r.Kind {
			return diverge(classify(o.Kind, r.Kind), i, "event #%d kind differs: %s vs %s", i, o.Kind, r.Kind)
		}
		oj, _ := json.Marshal(o)
		rj, _ := json.Marshal(r)
		if string(oj) != string(rj) {
			return diverge(classify(o.Kind, r.Kind), i, "event #%d differs: %s vs %s", i, oj, rj)
		}
	}
	return ReplayResult{Identical: true}
}

func classify(a, b Kind) DivergenceKind {
	for _, k := range []Kind{a, b} {
		switch k {
		case KindSchedulerTick:
			return DivergenceSchedulerDiverged
		case KindMessageSend, KindMessageReceive:
			return DivergenceMessageDiverged
		case KindCapCall, KindCapResult:
			return DivergenceCapMismatch
		}
	}
	return DivergenceCapMismatch
}

func argsEqual(a, b []bytecode.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytecode.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
