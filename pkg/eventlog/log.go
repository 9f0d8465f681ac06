package eventlog

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/boruna/pkg/bytecode"
)

// Version is the current EventLog wire format version (spec §6). A
// missing version field on decode defaults to 1 for backward
// compatibility with unversioned logs written before this field existed.
const Version uint32 = 1

// MaxSupportedVersion is the ceiling a decoder accepts; anything above it
// is rejected outright rather than guessed at. Distinct from Version so
// a future format revision can bump Version while this decoder still
// reads logs written at the old one.
const MaxSupportedVersion uint32 = 1

// EventLog is the ordered, append-only record produced by the VM,
// gateway, and actor scheduler.
type EventLog struct {
	Version uint32  `json:"version"`
	Events  []Event `json:"events"`
}

// New returns an empty log at the current format version.
func New() *EventLog {
	return &EventLog{Version: Version}
}

func (l *EventLog) append(e Event) {
	l.Events = append(l.Events, e)
}

// LogCapCall appends a CapCall event. decision records whether policy
// allowed or denied the call; Result is filled in separately by
// LogCapResult once the handler has run (spec §4.B step ordering: the
// call is logged before the handler is invoked, the result after).
func (l *EventLog) LogCapCall(cap bytecode.Capability, args []bytecode.Value, decision Decision) {
	l.append(Event{Kind: KindCapCall, Capability: cap.Name(), Args: append([]bytecode.Value(nil), args...), Decision: decision})
}

// LogCapResult appends a CapResult event carrying the concrete value a
// handler produced (or the Err wrapping a handler failure).
func (l *EventLog) LogCapResult(cap bytecode.Capability, result bytecode.Value) {
	l.append(Event{Kind: KindCapResult, Capability: cap.Name(), Result: &result})
}

// LogActorSpawn appends an ActorSpawn event.
func (l *EventLog) LogActorSpawn(parent, child uint64, function string) {
	l.append(Event{Kind: KindActorSpawn, ActorID: child, ParentID: parent, Function: function})
}

// LogMessageSend appends a MessageSend event.
func (l *EventLog) LogMessageSend(from, to uint64, payload bytecode.Value) {
	l.append(Event{Kind: KindMessageSend, From: from, To: to, Payload: &payload})
}

// LogMessageReceive appends a MessageReceive event.
func (l *EventLog) LogMessageReceive(actorID uint64, payload bytecode.Value) {
	l.append(Event{Kind: KindMessageReceive, ActorID: actorID, Payload: &payload})
}

// LogUiEmit appends a UiEmit event.
func (l *EventLog) LogUiEmit(tree bytecode.Value) {
	l.append(Event{Kind: KindUiEmit, Tree: &tree})
}

// LogSchedulerTick appends a SchedulerTick event.
func (l *EventLog) LogSchedulerTick(round, actorID uint64) {
	l.append(Event{Kind: KindSchedulerTick, Round: round, ActorID: actorID})
}

// CapCalls returns every CapCall event, in order.
func (l *EventLog) CapCalls() []Event {
	out := make([]Event, 0, len(l.Events))
	for _, e := range l.Events {
		if e.Kind == KindCapCall {
			out = append(out, e)
		}
	}
	return out
}

// Append appends events to l in order, preserving l's own version. The
// actor scheduler does not use it: every actor's VM and gateway append
// directly to the one EventLog the scheduler shares among them.
func (l *EventLog) Append(events ...Event) {
	l.Events = append(l.Events, events...)
}

// ToJSON renders the canonical `{version, events}` wire form (spec §6).
func (l *EventLog) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// FromJSON parses a log, defaulting a missing version to 1 and rejecting
// anything newer than MaxSupportedVersion.
func FromJSON(data []byte) (*EventLog, error) {
	var raw struct {
		Version *uint32 `json:"version"`
		Events  []Event `json:"events"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("eventlog: decoding: %w", err)
	}
	version := Version
	if raw.Version != nil {
		version = *raw.Version
	}
	if version > MaxSupportedVersion {
		return nil, fmt.Errorf("%w: version %d, max supported %d", ErrUnknownVersion, version, MaxSupportedVersion)
	}
	return &EventLog{Version: version, Events: raw.Events}, nil
}
