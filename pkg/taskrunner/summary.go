package taskrunner

import (
	"fmt"

	"github.com/tyemirov/taskmill/internal/engine"
)

const summaryLineTemplateConstant = "%s: %s"

// RenderSummaryLines formats one summary line per planned target: the target
// name and its final state, in plan order.
func RenderSummaryLines(outcome engine.RunOutcome) []string {
	lines := make([]string, 0, len(outcome.Outcomes))
	for outcomeIndex := range outcome.Outcomes {
		targetOutcome := outcome.Outcomes[outcomeIndex]
		lines = append(lines, fmt.Sprintf(summaryLineTemplateConstant, targetOutcome.TargetName, string(targetOutcome.State)))
	}
	return lines
}
