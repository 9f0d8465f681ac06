package actor

import (
	"fmt"
	"sort"

	"github.com/sasha-s/go-deadlock"

	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
	"github.com/chazu/boruna/pkg/vm"
)

const (
	defaultMaxRounds      = 10_000
	defaultBudgetPerRound = 1000
)

type pendingMessage struct {
	from, to uint64
	seq      uint64
	payload  bytecode.Value
}

// System is the deterministic round-robin scheduler owning one VM per
// actor. mu (a go-deadlock mutex in place of sync.Mutex) is taken only by
// SpawnRoot and Send; Run, RootVM and ActorCount do not take it, so the
// scheduler loop is not guarded against concurrent callers; it runs on
// the caller's goroutine only (spec §5).
type System struct {
	mu deadlock.Mutex

	actors  []*actorRef
	byID    map[uint64]*actorRef
	nextID  uint64
	pending []pendingMessage
	sendSeq uint64

	maxRounds      uint64
	budgetPerRound uint64
	round          uint64

	policy   capgw.Policy
	eventLog *eventlog.EventLog
}

// New constructs an empty actor system logging to log.
func New(log *eventlog.EventLog) *System {
	return &System{
		byID:           map[uint64]*actorRef{},
		maxRounds:      defaultMaxRounds,
		budgetPerRound: defaultBudgetPerRound,
		eventLog:       log,
	}
}

// SetMaxRounds overrides the scheduler round ceiling.
func (s *System) SetMaxRounds(n uint64) { s.maxRounds = n }

// SetBudgetPerRound overrides the per-actor per-round reduction budget.
func (s *System) SetBudgetPerRound(n uint64) { s.budgetPerRound = n }

// EventLog returns the scheduler's shared event log.
func (s *System) EventLog() *eventlog.EventLog { return s.eventLog }

// ActorCount returns the number of actors ever spawned (including
// completed/failed ones).
func (s *System) ActorCount() int { return len(s.actors) }

// SpawnRoot creates actor 0 — the only actor permitted to run the
// Elm-architecture update/view cycle — over module, gated by gateway.
func (s *System) SpawnRoot(module *bytecode.Module, gateway *capgw.Gateway) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.policy = gateway.Policy()

	machine := vm.New(module, gateway, s.eventLog)
	machine.SetActorID(id)
	machine.NextSpawnID = s.nextID

	ref := &actorRef{id: id, vm: machine, status: StatusRunnable}
	s.actors = append(s.actors, ref)
	s.byID[id] = ref
	return id
}

// Send enqueues an external message to actor `to`, delivered at the next
// round boundary.
func (s *System) Send(to uint64, payload bytecode.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingMessage{from: to, to: to, seq: s.sendSeq, payload: payload})
	s.sendSeq++
}

// RootVM returns actor 0's VM, for inspection (UI output, step count).
func (s *System) RootVM() *vm.Vm {
	if len(s.actors) == 0 {
		return nil
	}
	return s.actors[0].vm
}

// Run drives every actor to completion via deterministic round-robin
// scheduling (spec §4.E algorithm). Returns root's completion value, or
// a scheduler-level error (Deadlock, MaxRoundsExceeded, or a propagated
// root failure).
func (s *System) Run() (bytecode.Value, error) {
	if len(s.actors) == 0 {
		return bytecode.Unit(), nil
	}
	if err := s.actors[0].vm.SetEntryFunction(s.actors[0].vm.Module().Entry); err != nil {
		return bytecode.Value{}, err
	}

	for {
		s.round++
		if s.round > s.maxRounds {
			return bytecode.Value{}, &SchedulerError{Kind: KindMaxRoundsExceeded, Rounds: s.maxRounds}
		}

		runQueue := s.runnableQueue()

		if len(runQueue) == 0 && len(s.pending) == 0 {
			if s.anyBlocked() {
				return bytecode.Value{}, &SchedulerError{Kind: KindDeadlock}
			}
			return s.rootResult()
		}

		if len(runQueue) == 0 && len(s.pending) > 0 {
			s.deliverMessages()
			s.wakeBlocked()
			continue
		}

		for _, a := range runQueue {
			s.stepActor(a)
		}

		s.deliverMessages()
		s.wakeBlocked()

		if s.actors[0].status == StatusFailed {
			return bytecode.Value{}, s.actors[0].err
		}
	}
}

func (s *System) runnableQueue() []*actorRef {
	queue := make([]*actorRef, 0, len(s.actors))
	for _, a := range s.actors {
		if a.status == StatusRunnable {
			queue = append(queue, a)
		}
	}
	// actors is already id-ascending by construction (append-only,
	// monotonic ids), satisfying spec §4.E step 3's "ascending id order".
	return queue
}

func (s *System) anyBlocked() bool {
	for _, a := range s.actors {
		if a.status == StatusBlocked {
			return true
		}
	}
	return false
}

func (s *System) stepActor(a *actorRef) {
	s.eventLog.LogSchedulerTick(s.round, a.id)

	// Publish the live spawn-id reservation before this actor's slice
	// (spec §4.E step 3), so any SpawnActor opcode issued during it sees
	// the correct next id.
	a.vm.NextSpawnID = s.nextID

	result := a.vm.ExecuteBounded(s.budgetPerRound)

	switch result.Kind {
	case vm.StepCompleted:
		a.status = StatusCompleted
		a.result = result.Value
	case vm.StepYielded:
		// stays Runnable, re-enqueued next round by construction
	case vm.StepBlocked:
		a.status = StatusBlocked
	case vm.StepError:
		a.status = StatusFailed
		a.err = result.Err
		s.cascadeFailure(a.children)
		if a.parent != nil {
			s.pending = append(s.pending, pendingMessage{
				from: a.id, to: *a.parent, seq: s.sendSeq,
				payload: bytecode.Err(bytecode.Str(fmt.Sprintf("actor %d failed: %v", a.id, a.err))),
			})
			s.sendSeq++
		}
	}

	spawnRequests := a.vm.DrainSpawnRequests()
	outgoing := a.vm.DrainOutgoing()

	if a.status == StatusFailed {
		// Failed actors spawn no children and discard their outgoing
		// messages (spec §4.E: "cascade-fail all descendants").
		return
	}

	for _, req := range spawnRequests {
		s.spawnChild(a, req.FuncIdx)
	}
	for _, msg := range outgoing {
		s.pending = append(s.pending, pendingMessage{from: a.id, to: msg.To, seq: s.sendSeq, payload: msg.Payload})
		s.sendSeq++
	}
}

func (s *System) spawnChild(parent *actorRef, funcIdx uint32) {
	childID := s.nextID
	s.nextID++

	funcName := "unknown"
	module := parent.vm.Module()
	if int(funcIdx) < len(module.Functions) {
		funcName = module.Functions[funcIdx].Name
	}
	s.eventLog.LogActorSpawn(parent.id, childID, funcName)

	gateway := capgw.New(s.policy, s.eventLog)
	childVM := vm.New(module, gateway, s.eventLog)
	childVM.SetActorID(childID)
	_ = childVM.SetEntryFunction(funcIdx)

	parentID := parent.id
	ref := &actorRef{id: childID, vm: childVM, status: StatusRunnable, parent: &parentID}
	s.actors = append(s.actors, ref)
	s.byID[childID] = ref
	parent.children = append(parent.children, childID)
}

// deliverMessages sorts pending sends by (target, sender, send-sequence)
// and appends each to the target's mailbox, logging MessageSend then
// MessageReceive per delivery (spec §4.E step 4; the send_sequence
// tiebreaker resolves the Open Question noted in spec §9).
func (s *System) deliverMessages() {
	msgs := s.pending
	s.pending = nil
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].to != msgs[j].to {
			return msgs[i].to < msgs[j].to
		}
		if msgs[i].from != msgs[j].from {
			return msgs[i].from < msgs[j].from
		}
		return msgs[i].seq < msgs[j].seq
	})
	for _, m := range msgs {
		target, ok := s.byID[m.to]
		if !ok || target.status == StatusFailed {
			// Silently dropped: no target, or target already failed.
			continue
		}
		s.eventLog.LogMessageSend(m.from, m.to, m.payload)
		s.eventLog.LogMessageReceive(m.to, m.payload)
		target.vm.DeliverMessage(vm.Message{From: m.from, Payload: m.payload})
	}
}

func (s *System) cascadeFailure(childIDs []uint64) {
	for _, id := range childIDs {
		child, ok := s.byID[id]
		if !ok {
			continue
		}
		child.status = StatusFailed
		if len(child.children) > 0 {
			s.cascadeFailure(child.children)
		}
	}
}

func (s *System) wakeBlocked() {
	for _, a := range s.actors {
		if a.status == StatusBlocked && a.vm.HasMessages() {
			a.status = StatusRunnable
		}
	}
}

func (s *System) rootResult() (bytecode.Value, error) {
	root := s.actors[0]
	if root.status == StatusFailed {
		return bytecode.Value{}, root.err
	}
	return root.result, nil
}
