package eventlog

import (
	"testing"

	"github.com/chazu/boruna/pkg/bytecode"
)

func sampleLog() *EventLog {
	l := New()
	l.LogCapCall(bytecode.CapNetFetch, []bytecode.Value{bytecode.Str("x")}, DecisionAllow)
	l.LogCapResult(bytecode.CapNetFetch, bytecode.Int(1))
	l.LogActorSpawn(0, 1, "worker")
	l.LogMessageSend(0, 1, bytecode.Str("ping"))
	l.LogMessageReceive(1, bytecode.Str("ping"))
	l.LogUiEmit(bytecode.Str("<ui/>"))
	l.LogSchedulerTick(0, 1)
	return l
}

func TestCapCallsFiltersToCapCallKindOnly(t *testing.T) {
	l := sampleLog()
	calls := l.CapCalls()
	if len(calls) != 1 {
		t.Fatalf("CapCalls() returned %d events, want 1", len(calls))
	}
	if calls[0].Kind != KindCapCall || calls[0].Capability != bytecode.CapNetFetch.Name() {
		t.Errorf("CapCalls()[0] = %+v, want a net.fetch CapCall", calls[0])
	}
}

func TestToJSONFromJSONRoundTrip(t *testing.T) {
	l := sampleLog()
	data, err := l.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.Version != l.Version || len(got.Events) != len(l.Events) {
		t.Fatalf("FromJSON() = %+v, want version/event-count to match original", got)
	}
}

func TestFromJSONDefaultsMissingVersionToOne(t *testing.T) {
	got, err := FromJSON([]byte(`{"events": []}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1 for a log with no version field", got.Version)
	}
}

func TestFromJSONRejectsFutureVersion(t *testing.T) {
	_, err := FromJSON([]byte(`{"version": 999, "events": []}`))
	if err == nil {
		t.Fatal("FromJSON() error = nil, want a version-rejection error")
	}
}

func TestAppendPreservesOwnVersion(t *testing.T) {
	l := New()
	other := New()
	other.LogSchedulerTick(1, 2)
	l.Append(other.Events...)
	if l.Version != Version {
		t.Errorf("Version = %d, want %d after Append", l.Version, Version)
	}
	if len(l.Events) != 1 {
		t.Errorf("len(Events) = %d, want 1", len(l.Events))
	}
}
