// ABOUTME: Lifecycle states of the gateway worker.
// ABOUTME: States only move forward; Stopped and Crashed are terminal.

package synlib

// State is the lifecycle state of a Server.
type State int32

const (
	// StateStarting is set at construction, before the worker runs.
	StateStarting State = iota
	// StateRunning is set when the worker's run loop begins.
	StateRunning
	// StateShuttingDown is set the moment shutdown is requested.
	StateShuttingDown
	// StateStopped is reached when the run loop exits after a shutdown request.
	StateStopped
	// StateCrashed is reached when the run loop exits without a shutdown request.
	StateCrashed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateCrashed
}

// shutdown reports whether a shutdown has been requested or the worker is gone.
func (s State) shutdown() bool {
	return s >= StateShuttingDown
}

// canAdvance reports whether moving from s to next goes forward.
func (s State) canAdvance(next State) bool {
	return !s.Terminal() && next > s
}
