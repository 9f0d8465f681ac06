// Package actor implements the deterministic round-robin actor
// scheduler (spec §4.E): mailboxes, spawn/send/receive, supervision, and
// the delivery-order guarantees that make single-process multi-actor
// runs reproducible.
package actor

import (
	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/vm"
)

// Status is an actor's lifecycle state.
type Status uint8

const (
	StatusRunnable Status = iota
	StatusBlocked
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunnable:
		return "Runnable"
	case StatusBlocked:
		return "Blocked"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// actorRef is one scheduled actor: its VM, lifecycle status, and the
// parent/children links needed for cascade-failure and notification.
// Parent/child links are ActorId indices into the scheduler's own
// arena, never direct pointers (spec §9 design note on cyclic
// references).
type actorRef struct {
	id       uint64
	vm       *vm.Vm
	status   Status
	parent   *uint64
	children []uint64
	result   bytecode.Value
	err      error
}
