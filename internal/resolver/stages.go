package resolver

import "github.com/tyemirov/taskmill/internal/registry"

// Stage groups targets whose dependencies are all satisfied by earlier stages,
// so the members of one stage may execute concurrently.
type Stage struct {
	TargetNames []string
}

// PlanStages resolves the root target and regroups the resulting order into
// dependency levels. Stage membership follows resolved-order position, so a
// sequential walk of the flattened stages equals the Resolve order exactly.
func PlanStages(targetRegistry *registry.Registry, rootName string) ([]Stage, error) {
	order, resolveError := Resolve(targetRegistry, rootName)
	if resolveError != nil {
		return nil, resolveError
	}

	stageIndexes := make(map[string]int, len(order))
	stages := []Stage{}
	for _, targetName := range order {
		target, lookupError := targetRegistry.Lookup(targetName)
		if lookupError != nil {
			return nil, lookupError
		}

		stageIndex := 0
		for _, dependencyName := range target.Dependencies {
			if dependencyStage, placed := stageIndexes[dependencyName]; placed && dependencyStage+1 > stageIndex {
				stageIndex = dependencyStage + 1
			}
		}

		stageIndexes[targetName] = stageIndex
		for len(stages) <= stageIndex {
			stages = append(stages, Stage{})
		}
		stages[stageIndex].TargetNames = append(stages[stageIndex].TargetNames, targetName)
	}

	return stages, nil
}
