package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

const (
	defaultShellPathConstant            = "/bin/sh"
	shellCommandFlagConstant            = "-c"
	environmentEntryTemplateConstant    = "%s=%s"
	emptyCommandLineMessageConstant     = "process request command line is empty"
	missingOutputWritersMessageConstant = "process request output writers not configured"
)

var (
	// ErrEmptyCommandLine indicates a process request carried no command line.
	ErrEmptyCommandLine = errors.New(emptyCommandLineMessageConstant)
	// ErrOutputWritersNotConfigured indicates a process request carried no stream writers.
	ErrOutputWritersNotConfigured = errors.New(missingOutputWritersMessageConstant)
)

// ProcessRequest describes one external command invocation.
type ProcessRequest struct {
	CommandLine          string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardOutput       io.Writer
	StandardError        io.Writer
}

// ProcessRunner launches external commands. The returned integer is the
// process exit status; a non-nil error means the process never started.
type ProcessRunner interface {
	Run(executionContext context.Context, request ProcessRequest) (int, error)
}

// ShellProcessRunner launches command lines through a POSIX shell.
type ShellProcessRunner struct {
	shellPath string
}

// NewShellProcessRunner constructs a runner for the provided shell path,
// falling back to /bin/sh when the path is empty.
func NewShellProcessRunner(shellPath string) ShellProcessRunner {
	if len(shellPath) == 0 {
		shellPath = defaultShellPathConstant
	}
	return ShellProcessRunner{shellPath: shellPath}
}

// Run executes the request's command line and streams its output live.
func (runner ShellProcessRunner) Run(executionContext context.Context, request ProcessRequest) (int, error) {
	if len(request.CommandLine) == 0 {
		return 0, ErrEmptyCommandLine
	}
	if request.StandardOutput == nil || request.StandardError == nil {
		return 0, ErrOutputWritersNotConfigured
	}

	command := exec.CommandContext(executionContext, runner.shellPath, shellCommandFlagConstant, request.CommandLine)
	command.Dir = request.WorkingDirectory
	command.Env = mergedEnvironment(request.EnvironmentVariables)
	command.Stdout = request.StandardOutput
	command.Stderr = request.StandardError

	runError := command.Run()
	if runError == nil {
		return 0, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		return exitError.ExitCode(), nil
	}
	return 0, runError
}

func mergedEnvironment(extraVariables map[string]string) []string {
	environment := os.Environ()
	if len(extraVariables) == 0 {
		return environment
	}
	names := make([]string, 0, len(extraVariables))
	for name := range extraVariables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		environment = append(environment, fmt.Sprintf(environmentEntryTemplateConstant, name, extraVariables[name]))
	}
	return environment
}
