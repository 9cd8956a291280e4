package fortress

import "fmt"

// State is the connection lifecycle state of a Client.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateBound
	StateActive
	StateTearingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateBound:
		return "Bound"
	case StateActive:
		return "Active"
	case StateTearingDown:
		return "TearingDown"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

var transitions = map[State][]State{
	StateDisconnected: {StateConnecting, StateTearingDown},
	StateConnecting:   {StateBound, StateTearingDown},
	StateBound:        {StateActive, StateTearingDown},
	StateActive:       {StateTearingDown},
	StateTearingDown:  {StateDisconnected, StateStopped},
	StateStopped:      {StateConnecting},
}

func (s State) canTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// connected reports whether commands may be sent in this state.
func (s State) connected() bool {
	return s == StateBound || s == StateActive
}

func checkTransition(from, to State) error {
	if !from.canTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
