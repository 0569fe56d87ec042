package types

import "fmt"

// RunState represents the lifecycle state of a simulation run
type RunState string

const (
	RunConfigured  RunState = "CONFIGURED"
	RunSampling    RunState = "SAMPLING"
	RunAggregating RunState = "AGGREGATING"
	RunCompleted   RunState = "COMPLETED"
	RunFailed      RunState = "FAILED"
	RunCancelled   RunState = "CANCELLED"
)

// AllRunStates returns all valid run states
func AllRunStates() []RunState {
	return []RunState{
		RunConfigured,
		RunSampling,
		RunAggregating,
		RunCompleted,
		RunFailed,
		RunCancelled,
	}
}

// IsValid checks if the run state is valid
func (s RunState) IsValid() bool {
	switch s {
	case RunConfigured,
		RunSampling,
		RunAggregating,
		RunCompleted,
		RunFailed,
		RunCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from this state
func (s RunState) IsTerminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a transition from s to next is legal.
// Failed and Cancelled are reachable from any non-terminal state; the
// happy path is Configured → Sampling → Aggregating → Completed.
func (s RunState) CanTransitionTo(next RunState) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case RunFailed, RunCancelled:
		return true
	case RunSampling:
		return s == RunConfigured
	case RunAggregating:
		return s == RunSampling
	case RunCompleted:
		return s == RunAggregating
	default:
		return false
	}
}

// String returns the string representation of the run state
func (s RunState) String() string {
	return string(s)
}

// ParseRunState parses a string into a RunState
func ParseRunState(s string) (RunState, error) {
	state := RunState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid run state: %s", s)
	}
	return state, nil
}
