package framework

import (
	"encoding/json"

	"github.com/chazu/boruna/pkg/bytecode"
)

const defaultMaxHistory = 1000

// StateSnapshot is one recorded state at a given cycle, kept for
// time-travel (rewind/diff).
type StateSnapshot struct {
	Cycle uint64
	State bytecode.Value
	JSON  string
}

// StateDiff is one changed field between two states.
type StateDiff struct {
	FieldIndex int
	FieldName  string
	OldValue   bytecode.Value
	NewValue   bytecode.Value
}

// StateMachine owns the application's state lifecycle: the current
// value, its cycle number, and a capped history for rewind/diff (spec
// §4.F state machine contracts).
type StateMachine struct {
	current    bytecode.Value
	history    []StateSnapshot
	cycle      uint64
	maxHistory int
}

// NewStateMachine seeds a state machine at cycle 0 with initial.
func NewStateMachine(initial bytecode.Value) *StateMachine {
	return &StateMachine{
		current:    initial,
		history:    []StateSnapshot{{Cycle: 0, State: initial, JSON: snapshotJSON(initial)}},
		maxHistory: defaultMaxHistory,
	}
}

func snapshotJSON(v bytecode.Value) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Current returns the live state value.
func (s *StateMachine) Current() bytecode.Value { return s.current }

// Cycle returns the current cycle number.
func (s *StateMachine) Cycle() uint64 { return s.cycle }

// History returns every retained snapshot, oldest first.
func (s *StateMachine) History() []StateSnapshot { return s.history }

// Transition appends a new snapshot at cycle+1, dropping the oldest
// snapshot once history exceeds maxHistory; snapshot cycle numbers stay
// truthful even after drops (spec §4.F: "oldest snapshots dropped past
// the cap; snapshot cycle numbers remain truthful").
func (s *StateMachine) Transition(newState bytecode.Value) {
	s.cycle++
	s.history = append(s.history, StateSnapshot{Cycle: s.cycle, State: newState, JSON: snapshotJSON(newState)})
	if len(s.history) > s.maxHistory {
		s.history = s.history[1:]
	}
	s.current = newState
}

// Snapshot renders the current state as canonical JSON.
func (s *StateMachine) Snapshot() string { return snapshotJSON(s.current) }

// Restore replaces the current state from JSON without advancing cycle —
// not wired into AppRuntime's public API (no SPEC_FULL.md operation
// calls it directly), kept for parity with the original's state.rs,
// which original_source's test suite exercises standalone.
func (s *StateMachine) Restore(data []byte) error {
	var v bytecode.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return newError(KindState, "invalid state JSON: %v", err)
	}
	s.current = v
	return nil
}

// DiffFromCycle compares the current state against the snapshot recorded
// at cycle, field by field; returns nil if cycle has been dropped from
// history.
func (s *StateMachine) DiffFromCycle(cycle uint64) []StateDiff {
	for _, snap := range s.history {
		if snap.Cycle == cycle {
			return diffValues(snap.State, s.current)
		}
	}
	return nil
}

func diffValues(old, updated bytecode.Value) []StateDiff {
	if old.Kind() == bytecode.KindRecord && updated.Kind() == bytecode.KindRecord {
		oldFields := old.RecordFields()
		newFields := updated.RecordFields()
		max := len(oldFields)
		if len(newFields) > max {
			max = len(newFields)
		}
		var diffs []StateDiff
		for i := 0; i < max; i++ {
			ov := fieldOrUnit(oldFields, i)
			nv := fieldOrUnit(newFields, i)
			if !bytecode.Equal(ov, nv) {
				diffs = append(diffs, StateDiff{FieldIndex: i, FieldName: fieldName(i), OldValue: ov, NewValue: nv})
			}
		}
		return diffs
	}
	if !bytecode.Equal(old, updated) {
		return []StateDiff{{FieldIndex: 0, FieldName: "root", OldValue: old, NewValue: updated}}
	}
	return nil
}

func fieldOrUnit(fields []bytecode.Value, i int) bytecode.Value {
	if i < len(fields) {
		return fields[i]
	}
	return bytecode.Unit()
}

// Rewind truncates history down to target cycle and restores that state
// (spec §4.F: "truncates history down to target cycle and restores that
// state").
func (s *StateMachine) Rewind(target uint64) error {
	for i, snap := range s.history {
		if snap.Cycle == target {
			s.history = s.history[:i+1]
			s.current = snap.State
			s.cycle = snap.Cycle
			return nil
		}
	}
	return newError(KindState, "cycle %d not in history", target)
}
