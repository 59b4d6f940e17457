package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/taskmill/cmd/cli"
	"github.com/tyemirov/taskmill/internal/engine"
	"github.com/tyemirov/taskmill/internal/registry"
)

const testApplicationManifestConstant = `
default: all
targets:
  - name: check
    command: cargo check
  - name: build
    dependencies: [check]
    parameters:
      - name: profile
        default: debug
    command: cargo build --profile {{profile}}
  - name: all
    dependencies: [build]
    command: "true"
`

type scriptedProcessRunner struct {
	mutex            sync.Mutex
	launchedCommands []string
	exitCodes        map[string]int
}

func (runner *scriptedProcessRunner) Run(executionContext context.Context, request engine.ProcessRequest) (int, error) {
	runner.mutex.Lock()
	runner.launchedCommands = append(runner.launchedCommands, request.CommandLine)
	runner.mutex.Unlock()
	if exitCode, fails := runner.exitCodes[request.CommandLine]; fails {
		return exitCode, nil
	}
	return 0, nil
}

func writeTestManifest(testInstance *testing.T) string {
	testInstance.Helper()
	manifestPath := filepath.Join(testInstance.TempDir(), "taskmill.yaml")
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(testApplicationManifestConstant), 0o644))
	return manifestPath
}

func executeApplication(testInstance *testing.T, runner engine.ProcessRunner, arguments []string) (string, error) {
	testInstance.Helper()
	application := cli.NewApplication()
	application.SetProcessRunner(runner)

	output := &bytes.Buffer{}
	rootCommand := application.RootCommand()
	rootCommand.SetOut(output)
	rootCommand.SetErr(output)
	rootCommand.SetArgs(arguments)

	executionError := application.Execute()
	return output.String(), executionError
}

func TestRunCommandExecutesDependencyChain(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance)
	runner := &scriptedProcessRunner{}

	output, executionError := executeApplication(testInstance, runner, []string{"run", "build", "profile=release", "--manifest", manifestPath})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{"cargo check", "cargo build --profile release"}, runner.launchedCommands)
	require.Contains(testInstance, output, "check: Succeeded")
	require.Contains(testInstance, output, "build: Succeeded")
}

func TestRootInvocationUsesDefaultTarget(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance)
	runner := &scriptedProcessRunner{}

	output, executionError := executeApplication(testInstance, runner, []string{"--manifest", manifestPath})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{"cargo check", "cargo build --profile debug", "true"}, runner.launchedCommands)
	require.Contains(testInstance, output, "all: Succeeded")
}

func TestRunCommandFailsFast(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance)
	runner := &scriptedProcessRunner{exitCodes: map[string]int{"cargo check": 1}}

	output, executionError := executeApplication(testInstance, runner, []string{"run", "all", "--manifest", manifestPath})
	require.Error(testInstance, executionError)
	require.Equal(testInstance, cli.ExitCodeRunFailure, cli.ExitCodeFor(executionError))

	var runFailed cli.RunFailedError
	require.ErrorAs(testInstance, executionError, &runFailed)
	require.Equal(testInstance, "check", runFailed.FailedTargetName)

	require.Equal(testInstance, []string{"cargo check"}, runner.launchedCommands)
	require.Contains(testInstance, output, "check: Failed")
	require.Contains(testInstance, output, "build: Skipped")
	require.Contains(testInstance, output, "all: Skipped")
}

func TestRunCommandRejectsUnknownTargetWithoutLaunching(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance)
	runner := &scriptedProcessRunner{}

	_, executionError := executeApplication(testInstance, runner, []string{"run", "nonexistent", "--manifest", manifestPath})
	require.Error(testInstance, executionError)
	require.Equal(testInstance, cli.ExitCodeConfigurationError, cli.ExitCodeFor(executionError))

	var unknownTarget registry.UnknownTargetError
	require.ErrorAs(testInstance, executionError, &unknownTarget)
	require.Empty(testInstance, runner.launchedCommands)
}

func TestPlanCommandPrintsWithoutLaunching(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance)
	runner := &scriptedProcessRunner{}

	output, executionError := executeApplication(testInstance, runner, []string{"plan", "build", "--manifest", manifestPath})
	require.NoError(testInstance, executionError)
	require.Empty(testInstance, runner.launchedCommands)
	require.Contains(testInstance, output, "1. check: cargo check")
	require.Contains(testInstance, output, "2. build: cargo build --profile debug")
}

func TestTargetsCommandListsRegisteredTargets(testInstance *testing.T) {
	manifestPath := writeTestManifest(testInstance)

	output, executionError := executeApplication(testInstance, &scriptedProcessRunner{}, []string{"targets", "--manifest", manifestPath})
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "check")
	require.Contains(testInstance, output, "build")
	require.Contains(testInstance, output, "all (default)")
}

func TestMissingManifestIsAConfigurationError(testInstance *testing.T) {
	missingManifestPath := filepath.Join(testInstance.TempDir(), "absent.yaml")

	_, executionError := executeApplication(testInstance, &scriptedProcessRunner{}, []string{"run", "all", "--manifest", missingManifestPath})
	require.Error(testInstance, executionError)
	require.Equal(testInstance, cli.ExitCodeConfigurationError, cli.ExitCodeFor(executionError))
}
