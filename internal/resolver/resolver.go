// Package resolver computes dependency-respecting execution orders over a target registry.
package resolver

import (
	"fmt"
	"strings"

	"github.com/tyemirov/taskmill/internal/registry"
)

const (
	cyclicDependencyErrorTemplateConstant = "cyclic dependency: %s"
	cyclePathSeparatorConstant            = " -> "
)

// CyclicDependencyError indicates the dependency graph reachable from the
// requested root contains a cycle. Cycle lists the offending path with the
// repeated target in both the first and last position.
type CyclicDependencyError struct {
	Cycle []string
}

// Error implements the error interface.
func (errorDetails CyclicDependencyError) Error() string {
	return fmt.Sprintf(cyclicDependencyErrorTemplateConstant, strings.Join(errorDetails.Cycle, cyclePathSeparatorConstant))
}

type visitState int

const (
	visitStateUnvisited visitState = iota
	visitStateOnStack
	visitStateFinished
)

// Resolve returns the deduplicated, dependency-respecting execution order for
// the requested root target. Dependencies are visited in declaration order and
// every target is recorded the first time it finishes, so a target shared by
// several branches occupies the position given by the first branch to finish it.
func Resolve(targetRegistry *registry.Registry, rootName string) ([]string, error) {
	traversal := &registryTraversal{
		targetRegistry: targetRegistry,
		states:         map[string]visitState{},
	}
	if visitError := traversal.visit(rootName); visitError != nil {
		return nil, visitError
	}
	return traversal.order, nil
}

type registryTraversal struct {
	targetRegistry *registry.Registry
	states         map[string]visitState
	stack          []string
	order          []string
}

func (traversal *registryTraversal) visit(targetName string) error {
	target, lookupError := traversal.targetRegistry.Lookup(targetName)
	if lookupError != nil {
		return lookupError
	}

	switch traversal.states[target.Name] {
	case visitStateFinished:
		return nil
	case visitStateOnStack:
		return CyclicDependencyError{Cycle: traversal.cycleStartingAt(target.Name)}
	}

	traversal.states[target.Name] = visitStateOnStack
	traversal.stack = append(traversal.stack, target.Name)

	for _, dependencyName := range target.Dependencies {
		if visitError := traversal.visit(dependencyName); visitError != nil {
			return visitError
		}
	}

	traversal.stack = traversal.stack[:len(traversal.stack)-1]
	traversal.states[target.Name] = visitStateFinished
	traversal.order = append(traversal.order, target.Name)
	return nil
}

func (traversal *registryTraversal) cycleStartingAt(targetName string) []string {
	cycle := []string{}
	for stackIndex, stackedName := range traversal.stack {
		if stackedName == targetName {
			cycle = append(cycle, traversal.stack[stackIndex:]...)
			break
		}
	}
	return append(cycle, targetName)
}
