package taskrunner

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/taskmill/internal/binder"
	"github.com/tyemirov/taskmill/internal/engine"
	"github.com/tyemirov/taskmill/internal/registry"
	"github.com/tyemirov/taskmill/internal/resolver"
)

const (
	registryNotConfiguredMessageConstant = "task runner registry not configured"
	noDefaultTargetMessageConstant       = "no target requested and no default target registered"
)

var (
	// ErrRegistryNotConfigured indicates the registry dependency was missing.
	ErrRegistryNotConfigured = errors.New(registryNotConfiguredMessageConstant)
	// ErrNoDefaultTarget indicates a run named no target and the registry designates none.
	ErrNoDefaultTarget = errors.New(noDefaultTargetMessageConstant)
)

// Dependencies describes the collaborators a Runner requires. Absent fields
// fall back to a no-op logger, the shell process runner, and the standard streams.
type Dependencies struct {
	Logger        *zap.Logger
	ProcessRunner engine.ProcessRunner
	Output        io.Writer
	Errors        io.Writer
}

// Request describes one run invocation.
type Request struct {
	TargetName           string
	Overrides            map[string]string
	Timeout              time.Duration
	Parallel             bool
	WorkerCount          int
	EnvironmentVariables map[string]string
}

// Runner resolves, binds, and executes targets from an immutable registry.
type Runner struct {
	targetRegistry *registry.Registry
	dependencies   Dependencies
}

// NewRunner constructs a Runner over the provided registry.
func NewRunner(targetRegistry *registry.Registry, dependencies Dependencies) (*Runner, error) {
	if targetRegistry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.ProcessRunner == nil {
		dependencies.ProcessRunner = engine.NewShellProcessRunner("")
	}
	if dependencies.Output == nil {
		dependencies.Output = os.Stdout
	}
	if dependencies.Errors == nil {
		dependencies.Errors = os.Stderr
	}
	return &Runner{targetRegistry: targetRegistry, dependencies: dependencies}, nil
}

// Plan computes the execution plan for the requested target without launching
// anything: the dependency-respecting order with every command fully bound.
func (runner *Runner) Plan(targetName string, overrides map[string]string) ([]engine.PlanEntry, error) {
	resolvedRootName, rootError := runner.resolveRootName(targetName)
	if rootError != nil {
		return nil, rootError
	}

	order, resolveError := resolver.Resolve(runner.targetRegistry, resolvedRootName)
	if resolveError != nil {
		return nil, resolveError
	}
	return runner.bindOrder(order, overrides)
}

// PlanStages computes the execution plan grouped into dependency stages for
// parallel execution.
func (runner *Runner) PlanStages(targetName string, overrides map[string]string) ([][]engine.PlanEntry, error) {
	resolvedRootName, rootError := runner.resolveRootName(targetName)
	if rootError != nil {
		return nil, rootError
	}

	stages, planError := resolver.PlanStages(runner.targetRegistry, resolvedRootName)
	if planError != nil {
		return nil, planError
	}

	plannedStages := make([][]engine.PlanEntry, 0, len(stages))
	for stageIndex := range stages {
		stageEntries, bindError := runner.bindOrder(stages[stageIndex].TargetNames, overrides)
		if bindError != nil {
			return nil, bindError
		}
		plannedStages = append(plannedStages, stageEntries)
	}
	return plannedStages, nil
}

// Run plans and executes the requested target. A returned error reports a
// structural problem detected before any launch; execution failures are
// reported through the outcome instead.
func (runner *Runner) Run(executionContext context.Context, request Request) (engine.RunOutcome, error) {
	executor, executorError := engine.NewExecutor(engine.Dependencies{
		Logger:        runner.dependencies.Logger,
		ProcessRunner: runner.dependencies.ProcessRunner,
		Output:        runner.dependencies.Output,
		Errors:        runner.dependencies.Errors,
	})
	if executorError != nil {
		return engine.RunOutcome{}, executorError
	}

	options := engine.Options{
		Timeout:              request.Timeout,
		WorkerCount:          request.WorkerCount,
		EnvironmentVariables: request.EnvironmentVariables,
	}

	if request.Parallel {
		stages, planError := runner.PlanStages(request.TargetName, request.Overrides)
		if planError != nil {
			return engine.RunOutcome{}, planError
		}
		return executor.ExecuteStages(executionContext, stages, options), nil
	}

	plan, planError := runner.Plan(request.TargetName, request.Overrides)
	if planError != nil {
		return engine.RunOutcome{}, planError
	}
	return executor.Execute(executionContext, plan, options), nil
}

func (runner *Runner) resolveRootName(targetName string) (string, error) {
	trimmedName := strings.TrimSpace(targetName)
	if len(trimmedName) > 0 {
		return trimmedName, nil
	}
	defaultTargetName := runner.targetRegistry.DefaultTargetName()
	if len(defaultTargetName) == 0 {
		return "", ErrNoDefaultTarget
	}
	return defaultTargetName, nil
}

func (runner *Runner) bindOrder(order []string, overrides map[string]string) ([]engine.PlanEntry, error) {
	entries := make([]engine.PlanEntry, 0, len(order))
	for _, orderedTargetName := range order {
		target, lookupError := runner.targetRegistry.Lookup(orderedTargetName)
		if lookupError != nil {
			return nil, lookupError
		}
		resolvedCommand, bindError := binder.Bind(target, overrides)
		if bindError != nil {
			return nil, bindError
		}
		entries = append(entries, engine.PlanEntry{
			TargetName:       target.Name,
			ResolvedCommand:  resolvedCommand,
			WorkingDirectory: target.WorkingDirectory,
		})
	}
	return entries, nil
}
