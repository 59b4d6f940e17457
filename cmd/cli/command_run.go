package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/taskmill/internal/engine"
	"github.com/tyemirov/taskmill/internal/manifest"
	"github.com/tyemirov/taskmill/internal/utils"
	"github.com/tyemirov/taskmill/pkg/taskrunner"
)

const (
	runCommandUseNameConstant          = "run"
	runCommandUsageTemplateConstant    = runCommandUseNameConstant + " [target] [name=value ...]"
	runCommandShortDescriptionConstant = "Resolve and execute a target with its dependencies"
	runCommandExampleConstant          = applicationNameConstant + " run test profile=release"

	invalidRunArgumentTemplateConstant = "argument %q is neither a target name nor a name=value override"

	runFailureConsoleMessageConstant = "run failed"
	consoleTargetFieldNameConstant   = "target"
)

// InvalidRunArgumentError indicates a positional argument that is neither the
// leading target name nor a name=value parameter override.
type InvalidRunArgumentError struct {
	Argument string
}

// Error implements the error interface.
func (errorDetails InvalidRunArgumentError) Error() string {
	return fmt.Sprintf(invalidRunArgumentTemplateConstant, errorDetails.Argument)
}

func (application *Application) buildRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:           runCommandUsageTemplateConstant,
		Short:         runCommandShortDescriptionConstant,
		Example:       runCommandExampleConstant,
		Args:          cobra.ArbitraryArgs,
		RunE:          application.runTargets,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func (application *Application) runTargets(command *cobra.Command, arguments []string) error {
	targetName, overrides, argumentError := parseRunArguments(arguments)
	if argumentError != nil {
		return argumentError
	}

	targetRegistry, manifestError := manifest.Load(application.configuration.Common.Manifest)
	if manifestError != nil {
		return manifestError
	}

	runner, runnerError := taskrunner.NewRunner(targetRegistry, taskrunner.Dependencies{
		Logger:        application.logger,
		ProcessRunner: application.resolveProcessRunner(),
		Output:        utils.NewFlushingWriter(command.OutOrStdout()),
		Errors:        utils.NewFlushingWriter(command.ErrOrStderr()),
	})
	if runnerError != nil {
		return runnerError
	}

	outcome, runError := runner.Run(command.Context(), taskrunner.Request{
		TargetName:  targetName,
		Overrides:   overrides,
		Timeout:     application.runTimeout(),
		Parallel:    application.configuration.Common.Parallel,
		WorkerCount: application.configuration.Common.Jobs,
	})
	if runError != nil {
		return runError
	}

	summaryWriter := command.OutOrStdout()
	for _, summaryLine := range taskrunner.RenderSummaryLines(outcome) {
		fmt.Fprintln(summaryWriter, summaryLine)
	}

	if outcome.Failed() {
		failedTargetName := firstFailedTargetName(outcome)
		application.consoleLogger.Warn(runFailureConsoleMessageConstant, zap.String(consoleTargetFieldNameConstant, failedTargetName))
		return RunFailedError{FailedTargetName: failedTargetName}
	}
	return nil
}

func parseRunArguments(arguments []string) (string, map[string]string, error) {
	targetName := ""
	overrides := map[string]string{}
	for argumentIndex, argument := range arguments {
		separatorIndex := strings.Index(argument, "=")
		if separatorIndex <= 0 {
			if argumentIndex == 0 && separatorIndex < 0 {
				targetName = argument
				continue
			}
			return "", nil, InvalidRunArgumentError{Argument: argument}
		}
		overrides[argument[:separatorIndex]] = argument[separatorIndex+1:]
	}
	return targetName, overrides, nil
}

func firstFailedTargetName(outcome engine.RunOutcome) string {
	for outcomeIndex := range outcome.Outcomes {
		if outcome.Outcomes[outcomeIndex].State == engine.TargetStateFailed {
			return outcome.Outcomes[outcomeIndex].TargetName
		}
	}
	return ""
}
