// Package engine executes resolved plans as external processes with fail-fast semantics.
package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "executor logger not configured"
	processRunnerNotConfiguredMessageConstant = "executor process runner not configured"
	outputNotConfiguredMessageConstant        = "executor output writer not configured"
	targetStartMessageConstant                = "target execution starting"
	targetSuccessMessageConstant              = "target execution completed"
	targetFailureMessageConstant              = "target command returned non-zero status"
	targetLaunchFailureMessageConstant        = "target command could not be launched"
	targetSkippedMessageConstant              = "target skipped after earlier failure"
	targetFieldNameConstant                   = "target"
	commandFieldNameConstant                  = "command"
	workingDirectoryFieldNameConstant         = "working_directory"
	exitCodeFieldNameConstant                 = "exit_code"
)

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrProcessRunnerNotConfigured indicates the process runner dependency was missing.
	ErrProcessRunnerNotConfigured = errors.New(processRunnerNotConfiguredMessageConstant)
	// ErrOutputNotConfigured indicates the output writer dependency was missing.
	ErrOutputNotConfigured = errors.New(outputNotConfiguredMessageConstant)
)

// Dependencies describes the collaborators an Executor requires.
type Dependencies struct {
	Logger        *zap.Logger
	ProcessRunner ProcessRunner
	Output        io.Writer
	Errors        io.Writer
}

// Options carries per-run execution modifiers.
type Options struct {
	Timeout              time.Duration
	WorkerCount          int
	EnvironmentVariables map[string]string
}

// Executor drives planned targets through the
// Pending -> Running -> Succeeded | Failed | Skipped lifecycle.
type Executor struct {
	logger        *zap.Logger
	processRunner ProcessRunner
	output        io.Writer
	errorOutput   io.Writer
	outputMutex   sync.Mutex
}

// NewExecutor builds an executor for the provided dependencies. The error
// stream falls back to the output stream when not supplied.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.ProcessRunner == nil {
		return nil, ErrProcessRunnerNotConfigured
	}
	if dependencies.Output == nil {
		return nil, ErrOutputNotConfigured
	}
	errorOutput := dependencies.Errors
	if errorOutput == nil {
		errorOutput = dependencies.Output
	}
	return &Executor{
		logger:        dependencies.Logger,
		processRunner: dependencies.ProcessRunner,
		output:        dependencies.Output,
		errorOutput:   errorOutput,
	}, nil
}

// Execute runs the plan sequentially: each target is launched and awaited
// before the next begins, and the first failure skips every remaining entry.
func (executor *Executor) Execute(executionContext context.Context, plan []PlanEntry, options Options) RunOutcome {
	runContext, cancelRun := executor.runContext(executionContext, options)
	defer cancelRun()

	outcome := RunOutcome{StartTime: time.Now(), Outcomes: make([]TargetOutcome, 0, len(plan))}
	failureObserved := false
	for entryIndex := range plan {
		entry := plan[entryIndex]
		if failureObserved {
			outcome.Outcomes = append(outcome.Outcomes, executor.skippedOutcome(entry))
			continue
		}
		targetOutcome := executor.launch(runContext, entry, options)
		if targetOutcome.State == TargetStateFailed {
			failureObserved = true
		}
		outcome.Outcomes = append(outcome.Outcomes, targetOutcome)
	}
	outcome.EndTime = time.Now()
	return outcome
}

// ExecuteStages runs the plan stage by stage. Members of one stage may run
// concurrently, bounded by Options.WorkerCount; a stage never starts before the
// previous stage has fully completed, so a target never starts before its
// dependencies succeeded. After the first failure no further target is
// launched, though stage members already running complete normally.
func (executor *Executor) ExecuteStages(executionContext context.Context, stages [][]PlanEntry, options Options) RunOutcome {
	runContext, cancelRun := executor.runContext(executionContext, options)
	defer cancelRun()

	outcome := RunOutcome{StartTime: time.Now()}
	var failureState failureTracker

	for stageIndex := range stages {
		stage := stages[stageIndex]
		if len(stage) == 0 {
			continue
		}

		stageOutcomes := make([]TargetOutcome, len(stage))
		workerCount := options.WorkerCount
		if workerCount <= 0 || workerCount > len(stage) {
			workerCount = len(stage)
		}
		workerSlots := make(chan struct{}, workerCount)
		var waitGroup sync.WaitGroup

		for entryIndex := range stage {
			waitGroup.Add(1)
			go func(entryPosition int, entry PlanEntry) {
				defer waitGroup.Done()
				workerSlots <- struct{}{}
				defer func() { <-workerSlots }()

				if failureState.observed() {
					stageOutcomes[entryPosition] = executor.skippedOutcome(entry)
					return
				}
				targetOutcome := executor.launch(runContext, entry, options)
				if targetOutcome.State == TargetStateFailed {
					failureState.record()
				}
				stageOutcomes[entryPosition] = targetOutcome
			}(entryIndex, stage[entryIndex])
		}

		waitGroup.Wait()
		outcome.Outcomes = append(outcome.Outcomes, stageOutcomes...)
	}

	outcome.EndTime = time.Now()
	return outcome
}

func (executor *Executor) runContext(executionContext context.Context, options Options) (context.Context, context.CancelFunc) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if options.Timeout > 0 {
		return context.WithTimeout(executionContext, options.Timeout)
	}
	return context.WithCancel(executionContext)
}

func (executor *Executor) launch(runContext context.Context, entry PlanEntry, options Options) TargetOutcome {
	executor.logger.Info(targetStartMessageConstant,
		zap.String(targetFieldNameConstant, entry.TargetName),
		zap.String(commandFieldNameConstant, entry.ResolvedCommand),
		zap.String(workingDirectoryFieldNameConstant, entry.WorkingDirectory),
	)

	standardOutput := newLabelWriter(lockedWriter{mutex: &executor.outputMutex, destination: executor.output}, entry.TargetName)
	standardError := newLabelWriter(lockedWriter{mutex: &executor.outputMutex, destination: executor.errorOutput}, entry.TargetName)

	startTime := time.Now()
	exitCode, runnerError := executor.processRunner.Run(runContext, ProcessRequest{
		CommandLine:          entry.ResolvedCommand,
		WorkingDirectory:     entry.WorkingDirectory,
		EnvironmentVariables: options.EnvironmentVariables,
		StandardOutput:       standardOutput,
		StandardError:        standardError,
	})
	executionDuration := time.Since(startTime)
	_ = standardOutput.Flush()
	_ = standardError.Flush()

	if runnerError != nil {
		launchCause := runnerError
		if contextError := runContext.Err(); contextError != nil {
			launchCause = contextError
		}
		executor.logger.Error(targetLaunchFailureMessageConstant,
			zap.String(targetFieldNameConstant, entry.TargetName),
			zap.Error(launchCause),
		)
		return TargetOutcome{
			TargetName: entry.TargetName,
			State:      TargetStateFailed,
			Duration:   executionDuration,
			Err:        LaunchError{TargetName: entry.TargetName, CommandLine: entry.ResolvedCommand, Cause: launchCause},
		}
	}

	if exitCode != 0 {
		var failureCause error = TargetFailedError{TargetName: entry.TargetName, ExitCode: exitCode}
		if contextError := runContext.Err(); contextError != nil {
			failureCause = contextError
		}
		executor.logger.Warn(targetFailureMessageConstant,
			zap.String(targetFieldNameConstant, entry.TargetName),
			zap.Int(exitCodeFieldNameConstant, exitCode),
		)
		return TargetOutcome{
			TargetName: entry.TargetName,
			State:      TargetStateFailed,
			ExitCode:   exitCode,
			Duration:   executionDuration,
			Err:        failureCause,
		}
	}

	executor.logger.Info(targetSuccessMessageConstant,
		zap.String(targetFieldNameConstant, entry.TargetName),
		zap.Int(exitCodeFieldNameConstant, exitCode),
	)
	return TargetOutcome{
		TargetName: entry.TargetName,
		State:      TargetStateSucceeded,
		Duration:   executionDuration,
	}
}

func (executor *Executor) skippedOutcome(entry PlanEntry) TargetOutcome {
	executor.logger.Info(targetSkippedMessageConstant,
		zap.String(targetFieldNameConstant, entry.TargetName),
	)
	return TargetOutcome{TargetName: entry.TargetName, State: TargetStateSkipped}
}

type failureTracker struct {
	mutex  sync.Mutex
	failed bool
}

func (tracker *failureTracker) record() {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	tracker.failed = true
}

func (tracker *failureTracker) observed() bool {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	return tracker.failed
}
