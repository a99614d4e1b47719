package scaffold

import "fmt"

// State is a step of a scaffold run.
type State int

const (
	// Idle is the state before confirmation.
	Idle State = iota
	// Confirmed means the destination may be written.
	Confirmed
	// Staged means the template is in its staging directory.
	Staged
	// Merged means the merge finished without a copy failure.
	Merged
	// Cleaned means the staging directory is gone.
	Cleaned
	// Done is the successful terminal state.
	Done
	// Aborted is the terminal state for declines and failures.
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirmed:
		return "confirmed"
	case Staged:
		return "staged"
	case Merged:
		return "merged"
	case Cleaned:
		return "cleaned"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Done || s == Aborted
}

// validTransitions lists every allowed edge of the run.
var validTransitions = map[State][]State{
	Idle:      {Confirmed, Aborted},
	Confirmed: {Staged, Aborted},
	Staged:    {Merged, Aborted},
	Merged:    {Cleaned, Aborted},
	Cleaned:   {Done},
}

// canTransition reports whether from -> to is an allowed edge.
func canTransition(from State, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
