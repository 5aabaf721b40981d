package execshell_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskdo/taskdo/internal/execshell"
)

const (
	testEchoScriptConstant            = "echo runner-output"
	testEchoExpectedOutputConstant    = "runner-output"
	testFailingScriptConstant         = "exit 3"
	testMissingExecutableNameConstant = "taskdo-nonexistent-tool"
	testEnvironmentScriptConstant     = "printf '%s' \"$TASKDO_RUNNER_PROBE\""
	testEnvironmentProbeNameConstant  = "TASKDO_RUNNER_PROBE"
	testEnvironmentProbeValueConstant = "probe-value"
	testRunnerTimeoutConstant         = 5 * time.Second
)

func TestOSCommandRunnerCapturesOutput(testInstance *testing.T) {
	executionContext, cancelFunction := context.WithTimeout(context.Background(), testRunnerTimeoutConstant)
	defer cancelFunction()

	runner := execshell.NewOSCommandRunner()
	result, runError := runner.Run(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandShell,
		Details: execshell.CommandDetails{Arguments: []string{"-c", testEchoScriptConstant}},
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 0, result.ExitCode)
	require.Contains(testInstance, result.StandardOutput, testEchoExpectedOutputConstant)
}

func TestOSCommandRunnerReportsExitCode(testInstance *testing.T) {
	executionContext, cancelFunction := context.WithTimeout(context.Background(), testRunnerTimeoutConstant)
	defer cancelFunction()

	runner := execshell.NewOSCommandRunner()
	result, runError := runner.Run(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandShell,
		Details: execshell.CommandDetails{Arguments: []string{"-c", testFailingScriptConstant}},
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 3, result.ExitCode)
}

func TestOSCommandRunnerMapsMissingExecutable(testInstance *testing.T) {
	executionContext, cancelFunction := context.WithTimeout(context.Background(), testRunnerTimeoutConstant)
	defer cancelFunction()

	runner := execshell.NewOSCommandRunner()
	_, runError := runner.Run(executionContext, execshell.ShellCommand{
		Name: execshell.CommandName(testMissingExecutableNameConstant),
	})
	require.Error(testInstance, runError)
	require.ErrorIs(testInstance, runError, execshell.ErrExecutableNotFound)
}

func TestOSCommandRunnerAppliesEnvironmentOverrides(testInstance *testing.T) {
	executionContext, cancelFunction := context.WithTimeout(context.Background(), testRunnerTimeoutConstant)
	defer cancelFunction()

	runner := execshell.NewOSCommandRunner()
	result, runError := runner.Run(executionContext, execshell.ShellCommand{
		Name: execshell.CommandShell,
		Details: execshell.CommandDetails{
			Arguments:            []string{"-c", testEnvironmentScriptConstant},
			EnvironmentVariables: map[string]string{testEnvironmentProbeNameConstant: testEnvironmentProbeValueConstant},
		},
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, testEnvironmentProbeValueConstant, result.StandardOutput)
}
