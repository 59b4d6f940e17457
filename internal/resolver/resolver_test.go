package resolver_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/taskmill/internal/registry"
	"github.com/tyemirov/taskmill/internal/resolver"
)

const (
	testSubtestNameTemplateConstant = "%d_%s"
	testPlaceholderCommandConstant  = "true"
)

type targetDeclaration struct {
	name         string
	dependencies []string
}

func buildTestRegistry(testInstance *testing.T, declarations []targetDeclaration) *registry.Registry {
	testInstance.Helper()
	builder := registry.NewBuilder()
	for declarationIndex := range declarations {
		declaration := declarations[declarationIndex]
		require.NoError(testInstance, builder.Register(registry.Target{
			Name:            declaration.name,
			Dependencies:    declaration.dependencies,
			CommandTemplate: testPlaceholderCommandConstant,
		}))
	}
	builtRegistry, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	return builtRegistry
}

func TestResolveOrders(testInstance *testing.T) {
	testCases := []struct {
		name          string
		declarations  []targetDeclaration
		rootName      string
		expectedOrder []string
	}{
		{
			name: "single_target",
			declarations: []targetDeclaration{
				{name: "check"},
			},
			rootName:      "check",
			expectedOrder: []string{"check"},
		},
		{
			name: "linear_chain",
			declarations: []targetDeclaration{
				{name: "check"},
				{name: "clippy", dependencies: []string{"check"}},
				{name: "doc", dependencies: []string{"clippy"}},
				{name: "test", dependencies: []string{"doc"}},
			},
			rootName:      "test",
			expectedOrder: []string{"check", "clippy", "doc", "test"},
		},
		{
			name: "diamond_dependency_runs_shared_target_once",
			declarations: []targetDeclaration{
				{name: "D"},
				{name: "B", dependencies: []string{"D"}},
				{name: "C", dependencies: []string{"D"}},
				{name: "A", dependencies: []string{"B", "C"}},
			},
			rootName:      "A",
			expectedOrder: []string{"D", "B", "C", "A"},
		},
		{
			name: "sibling_declaration_order_fixes_positions",
			declarations: []targetDeclaration{
				{name: "lint"},
				{name: "build"},
				{name: "all", dependencies: []string{"build", "lint"}},
			},
			rootName:      "all",
			expectedOrder: []string{"build", "lint", "all"},
		},
		{
			name: "unreachable_targets_stay_out_of_the_plan",
			declarations: []targetDeclaration{
				{name: "build"},
				{name: "bench"},
				{name: "test", dependencies: []string{"build"}},
			},
			rootName:      "test",
			expectedOrder: []string{"build", "test"},
		},
	}

	for testIndex := range testCases {
		testCase := testCases[testIndex]
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testIndex, testCase.name), func(testInstance *testing.T) {
			testRegistry := buildTestRegistry(testInstance, testCase.declarations)

			resolvedOrder, resolveError := resolver.Resolve(testRegistry, testCase.rootName)
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedOrder, resolvedOrder)

			requireTopologicalValidity(testInstance, testRegistry, resolvedOrder)
		})
	}
}

func requireTopologicalValidity(testInstance *testing.T, testRegistry *registry.Registry, resolvedOrder []string) {
	testInstance.Helper()
	positions := make(map[string]int, len(resolvedOrder))
	for orderIndex, targetName := range resolvedOrder {
		_, alreadySeen := positions[targetName]
		require.False(testInstance, alreadySeen)
		positions[targetName] = orderIndex
	}
	for _, targetName := range resolvedOrder {
		target, lookupError := testRegistry.Lookup(targetName)
		require.NoError(testInstance, lookupError)
		for _, dependencyName := range target.Dependencies {
			require.Less(testInstance, positions[dependencyName], positions[target.Name])
		}
	}
}

func TestResolveIsDeterministic(testInstance *testing.T) {
	testRegistry := buildTestRegistry(testInstance, []targetDeclaration{
		{name: "fmt"},
		{name: "vet", dependencies: []string{"fmt"}},
		{name: "lint", dependencies: []string{"fmt"}},
		{name: "all", dependencies: []string{"vet", "lint"}},
	})

	firstOrder, firstError := resolver.Resolve(testRegistry, "all")
	require.NoError(testInstance, firstError)
	secondOrder, secondError := resolver.Resolve(testRegistry, "all")
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, firstOrder, secondOrder)
}

func TestResolveDetectsCycles(testInstance *testing.T) {
	testCases := []struct {
		name          string
		declarations  []targetDeclaration
		rootName      string
		expectedCycle []string
	}{
		{
			name: "self_dependency",
			declarations: []targetDeclaration{
				{name: "loop", dependencies: []string{"loop"}},
			},
			rootName:      "loop",
			expectedCycle: []string{"loop", "loop"},
		},
		{
			name: "two_target_cycle",
			declarations: []targetDeclaration{
				{name: "a", dependencies: []string{"b"}},
				{name: "b", dependencies: []string{"a"}},
			},
			rootName:      "a",
			expectedCycle: []string{"a", "b", "a"},
		},
		{
			name: "cycle_behind_prefix",
			declarations: []targetDeclaration{
				{name: "entry", dependencies: []string{"x"}},
				{name: "x", dependencies: []string{"y"}},
				{name: "y", dependencies: []string{"x"}},
			},
			rootName:      "entry",
			expectedCycle: []string{"x", "y", "x"},
		},
	}

	for testIndex := range testCases {
		testCase := testCases[testIndex]
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testIndex, testCase.name), func(testInstance *testing.T) {
			testRegistry := buildTestRegistry(testInstance, testCase.declarations)

			resolvedOrder, resolveError := resolver.Resolve(testRegistry, testCase.rootName)
			require.Nil(testInstance, resolvedOrder)

			var cycleError resolver.CyclicDependencyError
			require.ErrorAs(testInstance, resolveError, &cycleError)
			require.Equal(testInstance, testCase.expectedCycle, cycleError.Cycle)
		})
	}
}

func TestResolvePropagatesUnknownTargets(testInstance *testing.T) {
	testRegistry := buildTestRegistry(testInstance, []targetDeclaration{
		{name: "build", dependencies: []string{"missing"}},
	})

	testCases := []struct {
		name            string
		rootName        string
		expectedUnknown string
	}{
		{name: "unknown_root", rootName: "nonexistent", expectedUnknown: "nonexistent"},
		{name: "unknown_dependency", rootName: "build", expectedUnknown: "missing"},
	}

	for testIndex := range testCases {
		testCase := testCases[testIndex]
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testIndex, testCase.name), func(testInstance *testing.T) {
			_, resolveError := resolver.Resolve(testRegistry, testCase.rootName)
			var unknownError registry.UnknownTargetError
			require.ErrorAs(testInstance, resolveError, &unknownError)
			require.Equal(testInstance, testCase.expectedUnknown, unknownError.TargetName)
		})
	}
}

func TestPlanStages(testInstance *testing.T) {
	testRegistry := buildTestRegistry(testInstance, []targetDeclaration{
		{name: "D"},
		{name: "B", dependencies: []string{"D"}},
		{name: "C", dependencies: []string{"D"}},
		{name: "A", dependencies: []string{"B", "C"}},
	})

	stages, planError := resolver.PlanStages(testRegistry, "A")
	require.NoError(testInstance, planError)
	require.Len(testInstance, stages, 3)
	require.Equal(testInstance, []string{"D"}, stages[0].TargetNames)
	require.Equal(testInstance, []string{"B", "C"}, stages[1].TargetNames)
	require.Equal(testInstance, []string{"A"}, stages[2].TargetNames)

	flattened := []string{}
	for stageIndex := range stages {
		flattened = append(flattened, stages[stageIndex].TargetNames...)
	}
	resolvedOrder, resolveError := resolver.Resolve(testRegistry, "A")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, resolvedOrder, flattened)
}
