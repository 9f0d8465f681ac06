package actor

import "fmt"

// Scheduler-level fault kinds (spec §4.E, §7): these terminate Run
// itself rather than a single actor's slice.
const (
	KindDeadlock          = "Deadlock"
	KindMaxRoundsExceeded = "MaxRoundsExceeded"
)

// SchedulerError is returned by Run when the scheduler itself cannot
// make further progress, as opposed to a single actor failing.
type SchedulerError struct {
	Kind   string
	Rounds uint64
}

func (e *SchedulerError) Error() string {
	switch e.Kind {
	case KindDeadlock:
		return "scheduler deadlock: every actor blocked with no pending messages"
	case KindMaxRoundsExceeded:
		return fmt.Sprintf("scheduler exceeded max rounds (%d)", e.Rounds)
	default:
		return "scheduler error: " + e.Kind
	}
}
