// Package eventlog implements the append-only execution log (spec §4.D):
// canonical hashing, version-gated (de)serialization, and the replay
// engine that verifies a re-execution against a recorded run.
package eventlog

import "github.com/chazu/boruna/pkg/bytecode"

// Kind discriminates an Event's variant. Go has no tagged-union enum, so
// Event carries a Kind tag plus whichever fields that kind populates,
// mirroring pkg/bytecode.Value's own Kind-plus-fields shape.
type Kind string

const (
	KindCapCall         Kind = "CapCall"
	KindCapResult       Kind = "CapResult"
	KindActorSpawn      Kind = "ActorSpawn"
	KindMessageSend     Kind = "MessageSend"
	KindMessageReceive  Kind = "MessageReceive"
	KindUiEmit          Kind = "UiEmit"
	KindSchedulerTick   Kind = "SchedulerTick"
)

// Decision records whether a CapCall was allowed or denied by policy.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Event is one entry in an EventLog. Field population depends on Kind:
//
//	CapCall:        Capability, Args, Decision
//	CapResult:      Capability, Result
//	ActorSpawn:     ActorID (child), ParentID, Function
//	MessageSend:    From, To, Payload
//	MessageReceive: ActorID, Payload
//	UiEmit:         Tree
//	SchedulerTick:  Round, ActorID
type Event struct {
	Kind Kind `json:"kind"`

	Capability string            `json:"capability,omitempty"`
	Args       []bytecode.Value  `json:"args,omitempty"`
	Result     *bytecode.Value   `json:"result,omitempty"`
	Decision   Decision          `json:"decision,omitempty"`

	ActorID  uint64 `json:"actor_id,omitempty"`
	ParentID uint64 `json:"parent_id,omitempty"`
	Function string `json:"function,omitempty"`

	From    uint64          `json:"from,omitempty"`
	To      uint64          `json:"to,omitempty"`
	Payload *bytecode.Value `json:"payload,omitempty"`

	Tree *bytecode.Value `json:"tree,omitempty"`

	Round uint64 `json:"round,omitempty"`
}
