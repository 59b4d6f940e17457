// Package registry holds the immutable set of named targets a run may execute.
package registry

import (
	"errors"
	"strings"
)

const (
	emptyTargetNameMessageConstant = "target name must not be empty"
	registrySealedMessageConstant  = "registry builder already produced a registry"
)

var (
	// ErrEmptyTargetName indicates a target was registered without a name.
	ErrEmptyTargetName = errors.New(emptyTargetNameMessageConstant)
	// ErrBuilderSealed indicates Register was called after Build.
	ErrBuilderSealed = errors.New(registrySealedMessageConstant)
)

// Parameter describes a named substitution slot declared on a target.
type Parameter struct {
	Name         string
	DefaultValue string
	HasDefault   bool
}

// Target describes a named unit of work with dependencies and a command template.
type Target struct {
	Name             string
	Description      string
	Dependencies     []string
	Parameters       []Parameter
	CommandTemplate  string
	WorkingDirectory string
}

// Builder accumulates target definitions during the construction phase.
// Construction ends when Build returns; the resulting Registry never changes.
type Builder struct {
	targets           []Target
	nameIndexes       map[string]int
	defaultTargetName string
	sealed            bool
}

// NewBuilder constructs an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{nameIndexes: map[string]int{}}
}

// Register adds a target definition, rejecting duplicate names.
func (builder *Builder) Register(target Target) error {
	if builder.sealed {
		return ErrBuilderSealed
	}
	trimmedName := strings.TrimSpace(target.Name)
	if len(trimmedName) == 0 {
		return ErrEmptyTargetName
	}
	if _, exists := builder.nameIndexes[trimmedName]; exists {
		return DuplicateTargetError{TargetName: trimmedName}
	}
	target.Name = trimmedName
	builder.nameIndexes[trimmedName] = len(builder.targets)
	builder.targets = append(builder.targets, target)
	return nil
}

// SetDefaultTarget designates the target used when a run names none.
func (builder *Builder) SetDefaultTarget(targetName string) {
	builder.defaultTargetName = strings.TrimSpace(targetName)
}

// Build seals the builder and returns the immutable registry.
// When no default target was designated the first registered target is used.
func (builder *Builder) Build() (*Registry, error) {
	if builder.sealed {
		return nil, ErrBuilderSealed
	}
	builder.sealed = true

	defaultTargetName := builder.defaultTargetName
	if len(defaultTargetName) == 0 && len(builder.targets) > 0 {
		defaultTargetName = builder.targets[0].Name
	}
	if len(defaultTargetName) > 0 {
		if _, exists := builder.nameIndexes[defaultTargetName]; !exists {
			return nil, UnknownTargetError{TargetName: defaultTargetName}
		}
	}

	targets := make([]Target, len(builder.targets))
	for targetIndex := range builder.targets {
		targets[targetIndex] = cloneTarget(builder.targets[targetIndex])
	}
	nameIndexes := make(map[string]int, len(builder.nameIndexes))
	for name, index := range builder.nameIndexes {
		nameIndexes[name] = index
	}

	return &Registry{
		targets:           targets,
		nameIndexes:       nameIndexes,
		defaultTargetName: defaultTargetName,
	}, nil
}

// Registry is the immutable collection of registered targets.
type Registry struct {
	targets           []Target
	nameIndexes       map[string]int
	defaultTargetName string
}

// Lookup returns a copy of the target registered under the provided name.
// Mutating the returned value never reaches the registry.
func (instance *Registry) Lookup(targetName string) (Target, error) {
	index, exists := instance.nameIndexes[strings.TrimSpace(targetName)]
	if !exists {
		return Target{}, UnknownTargetError{TargetName: strings.TrimSpace(targetName)}
	}
	return cloneTarget(instance.targets[index]), nil
}

// DefaultTargetName reports the target used when a run names none.
func (instance *Registry) DefaultTargetName() string {
	return instance.defaultTargetName
}

// TargetNames lists registered target names in registration order.
func (instance *Registry) TargetNames() []string {
	names := make([]string, 0, len(instance.targets))
	for targetIndex := range instance.targets {
		names = append(names, instance.targets[targetIndex].Name)
	}
	return names
}

// Targets lists copies of the registered target definitions in registration order.
func (instance *Registry) Targets() []Target {
	targets := make([]Target, len(instance.targets))
	for targetIndex := range instance.targets {
		targets[targetIndex] = cloneTarget(instance.targets[targetIndex])
	}
	return targets
}

func cloneTarget(target Target) Target {
	clonedTarget := target
	if len(target.Dependencies) > 0 {
		clonedTarget.Dependencies = make([]string, len(target.Dependencies))
		copy(clonedTarget.Dependencies, target.Dependencies)
	}
	if len(target.Parameters) > 0 {
		clonedTarget.Parameters = make([]Parameter, len(target.Parameters))
		copy(clonedTarget.Parameters, target.Parameters)
	}
	return clonedTarget
}
