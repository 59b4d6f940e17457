package engine

import "time"

// TargetState enumerates the lifecycle states of a planned target within a run.
type TargetState string

// Target lifecycle states.
const (
	TargetStatePending   TargetState = "Pending"
	TargetStateRunning   TargetState = "Running"
	TargetStateSucceeded TargetState = "Succeeded"
	TargetStateFailed    TargetState = "Failed"
	TargetStateSkipped   TargetState = "Skipped"
)

// PlanEntry pairs a target with its fully resolved command line.
type PlanEntry struct {
	TargetName       string
	ResolvedCommand  string
	WorkingDirectory string
}

// TargetOutcome records the final state of a single planned target.
type TargetOutcome struct {
	TargetName string
	State      TargetState
	ExitCode   int
	Duration   time.Duration
	Err        error
}

// RunOutcome aggregates the per-target outcomes of one run in plan order.
type RunOutcome struct {
	Outcomes  []TargetOutcome
	StartTime time.Time
	EndTime   time.Time
}

// Failed reports whether any target in the run reached TargetStateFailed.
func (outcome RunOutcome) Failed() bool {
	for outcomeIndex := range outcome.Outcomes {
		if outcome.Outcomes[outcomeIndex].State == TargetStateFailed {
			return true
		}
	}
	return false
}
