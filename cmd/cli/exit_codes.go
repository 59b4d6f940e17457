package cli

import (
	"errors"
	"fmt"
)

const (
	// ExitCodeSuccess reports a run in which every planned target succeeded.
	ExitCodeSuccess = 0
	// ExitCodeRunFailure reports a run in which a launched target failed.
	ExitCodeRunFailure = 1
	// ExitCodeConfigurationError reports a structural problem detected before any launch.
	ExitCodeConfigurationError = 2
)

const runFailedErrorTemplateConstant = "run failed: target %q did not succeed"

// RunFailedError indicates one of the launched targets reached the failed state.
type RunFailedError struct {
	FailedTargetName string
}

// Error implements the error interface.
func (errorDetails RunFailedError) Error() string {
	return fmt.Sprintf(runFailedErrorTemplateConstant, errorDetails.FailedTargetName)
}

// ExitCodeFor classifies an execution error into the process exit code.
// Run failures map to 1; every structural or configuration error maps to 2.
func ExitCodeFor(executionError error) int {
	if executionError == nil {
		return ExitCodeSuccess
	}
	var runFailed RunFailedError
	if errors.As(executionError, &runFailed) {
		return ExitCodeRunFailure
	}
	return ExitCodeConfigurationError
}
