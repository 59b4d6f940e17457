package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tyemirov/taskmill/internal/manifest"
	"github.com/tyemirov/taskmill/pkg/taskrunner"
)

const (
	planCommandUseNameConstant          = "plan"
	planCommandUsageTemplateConstant    = planCommandUseNameConstant + " [target] [name=value ...]"
	planCommandShortDescriptionConstant = "Print the resolved execution plan without launching anything"
	planEntryTemplateConstant           = "%d. %s: %s"
)

func (application *Application) buildPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:           planCommandUsageTemplateConstant,
		Short:         planCommandShortDescriptionConstant,
		Args:          cobra.ArbitraryArgs,
		RunE:          application.planTargets,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func (application *Application) planTargets(command *cobra.Command, arguments []string) error {
	targetName, overrides, argumentError := parseRunArguments(arguments)
	if argumentError != nil {
		return argumentError
	}

	targetRegistry, manifestError := manifest.Load(application.configuration.Common.Manifest)
	if manifestError != nil {
		return manifestError
	}

	runner, runnerError := taskrunner.NewRunner(targetRegistry, taskrunner.Dependencies{
		Logger: application.logger,
	})
	if runnerError != nil {
		return runnerError
	}

	plan, planError := runner.Plan(targetName, overrides)
	if planError != nil {
		return planError
	}

	planWriter := command.OutOrStdout()
	for entryIndex := range plan {
		fmt.Fprintln(planWriter, fmt.Sprintf(planEntryTemplateConstant, entryIndex+1, plan[entryIndex].TargetName, plan[entryIndex].ResolvedCommand))
	}
	return nil
}
