package session

import (
	"github.com/vlanwatch/vlanwatch/internal/aggregate"
)

// State is the lifecycle of one feed subscription.
//
//	Idle -> Connecting -> Open -> Closing -> Closed
//	Connecting|Open -> Error -> Connecting (reconnect) | Closed (gave up)
type State int

const (
	Idle State = iota
	Connecting
	Open
	Closing
	Closed
	Error
)

var stateNames = map[State]string{
	Idle:       "idle",
	Connecting: "connecting",
	Open:       "open",
	Closing:    "closing",
	Closed:     "closed",
	Error:      "error",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Live reports whether a session in this state holds, or is acquiring, a
// connection.
func (s State) Live() bool {
	return s == Connecting || s == Open
}

// Transition is published to subscribers whenever the current session
// changes state or the controller raises a notice.
type Transition struct {
	DeviceID   string
	Generation uint64
	From       State
	To         State
	Attempt    int // reconnect attempt, 0 outside a retry
	Err        error
	Notice     string
}

// Status is a read-only view of the controller for rendering.
type Status struct {
	DeviceID    string
	Generation  uint64
	State       State
	Attempt     int
	Unreachable bool
	Notice      string
	Malformed   uint64
	Snapshot    []aggregate.Entry
	Totals      aggregate.Totals
	Logged      int
	Evicted     uint64
}
