package hub

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "invalid"
}

// canTransition lists the only legal moves. Closed is terminal.
func canTransition(from, to State) bool {
	switch from {
	case StateConnecting:
		return to == StateOpen || to == StateClosing
	case StateOpen:
		return to == StateClosing
	case StateClosing:
		return to == StateClosed
	}
	return false
}
