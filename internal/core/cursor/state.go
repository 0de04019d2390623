package cursor

import (
	"errors"
	"slices"
	"time"

	"github.com/vietddude/ledger/internal/core/domain"
)

// State is the lifecycle phase of a checkpoint.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	StatePending: {StateRunning, StateDone},
	StateRunning: {StateRunning, StateDone, StatePending},
	StateDone:    {StatePending},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	return slices.Contains(ValidTransitions[from], to)
}

// StateOf derives the state of a stored checkpoint.
func StateOf(cp *domain.Checkpoint) State {
	switch {
	case cp == nil:
		return StatePending
	case cp.Done:
		return StateDone
	case cp.Pages == 0 && cp.Cursor == "":
		return StatePending
	default:
		return StateRunning
	}
}

// Transition represents a state change with metadata.
type Transition struct {
	From      State
	To        State
	Reason    string
	Timestamp time.Time
}

// NewTransition creates a new transition record.
func NewTransition(from, to State, reason string) Transition {
	return Transition{
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// StateDescription returns a human-readable description of a state.
func StateDescription(s State) string {
	switch s {
	case StatePending:
		return "Pending - no page consumed yet"
	case StateRunning:
		return "Running - resumes at the stored cursor"
	case StateDone:
		return "Done - the query has been read to the end"
	default:
		return "Unknown state"
	}
}
