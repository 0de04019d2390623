package paging

import (
	"errors"
	"slices"
)

// State is the position of an Iterator in its page protocol.
type State int

const (
	// StateNeedFetch: the buffer is consumed and more pages may exist.
	StateNeedFetch State = iota
	// StateBuffered: items of a fetched page remain to be served.
	StateBuffered
	// StateExhausted: the sequence ended naturally.
	StateExhausted
	// StateFailed: a fetch or checkpoint failed; Err reports why.
	StateFailed
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid iterator state transition")

// ValidTransitions defines allowed state transitions.
// Exhausted and Failed are terminal.
var ValidTransitions = map[State][]State{
	StateNeedFetch: {StateBuffered, StateExhausted, StateFailed},
	StateBuffered:  {StateNeedFetch, StateExhausted, StateFailed},
	StateExhausted: {},
	StateFailed:    {},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	return slices.Contains(ValidTransitions[from], to)
}

// Terminal reports whether no further items can be produced.
func (s State) Terminal() bool {
	return s == StateExhausted || s == StateFailed
}

func (s State) String() string {
	switch s {
	case StateNeedFetch:
		return "need_fetch"
	case StateBuffered:
		return "buffered"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
