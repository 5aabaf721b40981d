package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
)

const (
	executableNotFoundMessageConstant       = "executable not found"
	environmentVariableSeparatorConstant    = "="
	standardStreamsInheritedWhenInteractive = true
)

// ErrExecutableNotFound indicates the requested executable is absent from PATH.
var ErrExecutableNotFound = errors.New(executableNotFoundMessageConstant)

// OSCommandRunner executes commands through os/exec.
type OSCommandRunner struct {
	interactive bool
}

// NewOSCommandRunner constructs a runner that captures standard streams.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// NewInteractiveOSCommandRunner constructs a runner that inherits the parent
// process standard streams so collaborators can stream output and prompt.
func NewInteractiveOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{interactive: standardStreamsInheritedWhenInteractive}
}

// Run executes the command, waits for completion, and reports exit status.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executableCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executableCommand.Dir = command.Details.WorkingDirectory
	executableCommand.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)

	if len(command.Details.StandardInput) > 0 {
		executableCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	if runner.interactive {
		executableCommand.Stdout = os.Stdout
		executableCommand.Stderr = os.Stderr
		if len(command.Details.StandardInput) == 0 {
			executableCommand.Stdin = os.Stdin
		}
	} else {
		executableCommand.Stdout = &standardOutputBuffer
		executableCommand.Stderr = &standardErrorBuffer
	}

	runError := executableCommand.Run()
	result := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError == nil {
		return result, nil
	}

	if errors.Is(runError, exec.ErrNotFound) {
		return ExecutionResult{}, errors.Join(ErrExecutableNotFound, runError)
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		if result.ExitCode < 0 {
			if waitStatus, statusAvailable := exitError.Sys().(syscall.WaitStatus); statusAvailable && waitStatus.Signaled() {
				result.ExitCode = 128 + int(waitStatus.Signal())
			}
		}
		return result, nil
	}

	return ExecutionResult{}, runError
}

func mergeEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return baseEnvironment
	}

	merged := make([]string, 0, len(baseEnvironment)+len(overrides))
	overriddenNames := make(map[string]struct{}, len(overrides))
	for overrideName := range overrides {
		overriddenNames[overrideName] = struct{}{}
	}

	for _, environmentEntry := range baseEnvironment {
		separatorIndex := strings.Index(environmentEntry, environmentVariableSeparatorConstant)
		if separatorIndex > 0 {
			if _, overridden := overriddenNames[environmentEntry[:separatorIndex]]; overridden {
				continue
			}
		}
		merged = append(merged, environmentEntry)
	}

	overrideNames := make([]string, 0, len(overrides))
	for overrideName := range overrides {
		overrideNames = append(overrideNames, overrideName)
	}
	sort.Strings(overrideNames)
	for _, overrideName := range overrideNames {
		merged = append(merged, overrideName+environmentVariableSeparatorConstant+overrides[overrideName])
	}

	return merged
}
