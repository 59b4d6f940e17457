package registry

import "fmt"

const (
	duplicateTargetErrorTemplateConstant = "target %q is already registered"
	unknownTargetErrorTemplateConstant   = "target %q is not registered"
)

// DuplicateTargetError indicates that a target name was registered more than once.
type DuplicateTargetError struct {
	TargetName string
}

// Error implements the error interface.
func (errorDetails DuplicateTargetError) Error() string {
	return fmt.Sprintf(duplicateTargetErrorTemplateConstant, errorDetails.TargetName)
}

// UnknownTargetError indicates that a requested target name is absent from the registry.
type UnknownTargetError struct {
	TargetName string
}

// Error implements the error interface.
func (errorDetails UnknownTargetError) Error() string {
	return fmt.Sprintf(unknownTargetErrorTemplateConstant, errorDetails.TargetName)
}
