package eventlog

import (
	"testing"

	"github.com/chazu/boruna/pkg/bytecode"
)

func TestVerifyIdenticalCapCallSequences(t *testing.T) {
	orig := New()
	orig.LogCapCall(bytecode.CapNetFetch, []bytecode.Value{bytecode.Str("a")}, DecisionAllow)
	orig.LogCapResult(bytecode.CapNetFetch, bytecode.Int(1))

	replay := New()
	replay.LogCapCall(bytecode.CapNetFetch, []bytecode.Value{bytecode.Str("a")}, DecisionAllow)
	replay.LogCapResult(bytecode.CapNetFetch, bytecode.Int(1))

	result := ReplayEngine{}.Verify(orig, replay)
	if !result.Identical {
		t.Errorf("Verify() = %+v, want Identical", result)
	}
}

func TestVerifyDetectsCapMismatch(t *testing.T) {
	orig := New()
	orig.LogCapCall(bytecode.CapNetFetch, []bytecode.Value{bytecode.Str("a")}, DecisionAllow)

	replay := New()
	replay.LogCapCall(bytecode.CapFsRead, []bytecode.Value{bytecode.Str("a")}, DecisionAllow)

	result := ReplayEngine{}.Verify(orig, replay)
	if result.Identical || result.Kind != DivergenceCapMismatch {
		t.Errorf("Verify() = %+v, want CapMismatch divergence", result)
	}
}

func TestVerifyDetectsUnexpectedEnd(t *testing.T) {
	orig := New()
	orig.LogCapCall(bytecode.CapNetFetch, nil, DecisionAllow)
	orig.LogCapCall(bytecode.CapFsRead, nil, DecisionAllow)

	replay := New()
	replay.LogCapCall(bytecode.CapNetFetch, nil, DecisionAllow)

	result := ReplayEngine{}.Verify(orig, replay)
	if result.Identical || result.Kind != DivergenceUnexpectedEnd {
		t.Errorf("Verify() = %+v, want UnexpectedEnd divergence", result)
	}
}

func TestVerifyDetectsMissingExpected(t *testing.T) {
	orig := New()
	orig.LogCapCall(bytecode.CapNetFetch, nil, DecisionAllow)

	replay := New()
	replay.LogCapCall(bytecode.CapNetFetch, nil, DecisionAllow)
	replay.LogCapCall(bytecode.CapFsRead, nil, DecisionAllow)

	result := ReplayEngine{}.Verify(orig, replay)
	if result.Identical || result.Kind != DivergenceMissingExpected {
		t.Errorf("Verify() = %+v, want MissingExpected divergence", result)
	}
}

func TestVerifyFullIdenticalLogs(t *testing.T) {
	orig := sampleLog()
	replay := sampleLog()
	result := ReplayEngine{}.VerifyFull(orig, replay)
	if !result.Identical {
		t.Errorf("VerifyFull() = %+v, want Identical", result)
	}
}

func TestVerifyFullClassifiesSchedulerDivergence(t *testing.T) {
	orig := New()
	orig.LogSchedulerTick(0, 1)

	replay := New()
	replay.LogSchedulerTick(0, 2)

	result := ReplayEngine{}.VerifyFull(orig, replay)
	if result.Identical || result.Kind != DivergenceSchedulerDiverged {
		t.Errorf("VerifyFull() = %+v, want SchedulerDiverged divergence", result)
	}
}

func TestVerifyFullClassifiesMessageDivergence(t *testing.T) {
	orig := New()
	orig.LogMessageSend(0, 1, bytecode.Int(1))

	replay := New()
	replay.LogMessageSend(0, 2, bytecode.Int(1))

	result := ReplayEngine{}.VerifyFull(orig, replay)
	if result.Identical || result.Kind != DivergenceMessageDiverged {
		t.Errorf("VerifyFull() = %+v, want MessageDiverged divergence", result)
	}
}
