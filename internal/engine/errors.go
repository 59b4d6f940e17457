package engine

import "fmt"

const (
	launchErrorTemplateConstant       = "target %q could not be launched: %v"
	targetFailedErrorTemplateConstant = "target %q exited with code %d"
)

// LaunchError indicates a target's command could not be started at all, for
// example because the shell executable is missing.
type LaunchError struct {
	TargetName  string
	CommandLine string
	Cause       error
}

// Error implements the error interface.
func (errorDetails LaunchError) Error() string {
	return fmt.Sprintf(launchErrorTemplateConstant, errorDetails.TargetName, errorDetails.Cause)
}

// Unwrap exposes the underlying launch failure.
func (errorDetails LaunchError) Unwrap() error {
	return errorDetails.Cause
}

// TargetFailedError indicates a launched command exited with a non-zero status.
type TargetFailedError struct {
	TargetName string
	ExitCode   int
}

// Error implements the error interface.
func (errorDetails TargetFailedError) Error() string {
	return fmt.Sprintf(targetFailedErrorTemplateConstant, errorDetails.TargetName, errorDetails.ExitCode)
}
