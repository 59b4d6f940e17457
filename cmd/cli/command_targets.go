package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/taskmill/internal/manifest"
)

const (
	targetsCommandUseNameConstant          = "targets"
	targetsCommandShortDescriptionConstant = "List registered targets"
	targetsEntryTemplateConstant           = "%s%s"
	targetsDescriptionTemplateConstant     = "%s%s  %s"
	defaultTargetMarkerConstant            = " (default)"
)

func (application *Application) buildTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:           targetsCommandUseNameConstant,
		Short:         targetsCommandShortDescriptionConstant,
		Args:          cobra.NoArgs,
		RunE:          application.listTargets,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func (application *Application) listTargets(command *cobra.Command, arguments []string) error {
	targetRegistry, manifestError := manifest.Load(application.configuration.Common.Manifest)
	if manifestError != nil {
		return manifestError
	}

	listWriter := command.OutOrStdout()
	for _, target := range targetRegistry.Targets() {
		defaultMarker := ""
		if target.Name == targetRegistry.DefaultTargetName() {
			defaultMarker = defaultTargetMarkerConstant
		}
		if len(strings.TrimSpace(target.Description)) > 0 {
			fmt.Fprintln(listWriter, fmt.Sprintf(targetsDescriptionTemplateConstant, target.Name, defaultMarker, target.Description))
			continue
		}
		fmt.Fprintln(listWriter, fmt.Sprintf(targetsEntryTemplateConstant, target.Name, defaultMarker))
	}
	return nil
}
