package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const taskfileProbeContentConstant = `tasks:
  - name: probe
    help: Exercise the runner end to end
    steps:
      - "true"
  - name: failing-probe
    steps:
      - exit 7
`

func newApplicationForTest(testInstance *testing.T, arguments ...string) (*Application, *bytes.Buffer, *bytes.Buffer) {
	testInstance.Helper()
	testInstance.Setenv(configurationSearchPathEnvironmentVariableConstant, testInstance.TempDir())

	application := NewApplication()
	standardOutput := &bytes.Buffer{}
	standardError := &bytes.Buffer{}
	application.rootCommand.SetOut(standardOutput)
	application.rootCommand.SetErr(standardError)
	application.rootCommand.SetArgs(arguments)
	return application, standardOutput, standardError
}

func writeProbeTaskfileForTest(testInstance *testing.T) string {
	testInstance.Helper()
	taskfilePath := filepath.Join(testInstance.TempDir(), "taskdo.yaml")
	require.NoError(testInstance, os.WriteFile(taskfilePath, []byte(taskfileProbeContentConstant), 0o600))
	return taskfilePath
}

func TestRootCommandListsTasksWithoutArguments(testInstance *testing.T) {
	application, standardOutput, _ := newApplicationForTest(testInstance)

	require.Equal(testInstance, 0, application.Execute())
	require.Contains(testInstance, standardOutput.String(), "Available tasks:")
	require.Contains(testInstance, standardOutput.String(), "install")
	require.Contains(testInstance, standardOutput.String(), "unit-test")
}

func TestListCommandRendersCatalog(testInstance *testing.T) {
	application, standardOutput, _ := newApplicationForTest(testInstance, "list")

	require.Equal(testInstance, 0, application.Execute())
	require.Contains(testInstance, standardOutput.String(), "Available tasks:")
	require.Contains(testInstance, standardOutput.String(), "checkin")
}

func TestHelpTaskRendersCatalog(testInstance *testing.T) {
	application, standardOutput, _ := newApplicationForTest(testInstance, "help")

	require.Equal(testInstance, 0, application.Execute())
	require.Contains(testInstance, standardOutput.String(), "Available tasks:")
}

func TestRootCommandRunsTaskfileTask(testInstance *testing.T) {
	taskfilePath := writeProbeTaskfileForTest(testInstance)
	application, _, standardError := newApplicationForTest(testInstance, "--taskfile", taskfilePath, "probe")

	require.Equal(testInstance, 0, application.Execute())
	require.Empty(testInstance, standardError.String())
}

func TestRootCommandPropagatesFailingStepExitCode(testInstance *testing.T) {
	taskfilePath := writeProbeTaskfileForTest(testInstance)
	application, _, standardError := newApplicationForTest(testInstance, "--taskfile", taskfilePath, "failing-probe")

	require.Equal(testInstance, 7, application.Execute())
	require.Contains(testInstance, standardError.String(), "failing-probe")
}

func TestRootCommandUnknownTaskExitsWithTwo(testInstance *testing.T) {
	application, _, standardError := newApplicationForTest(testInstance, "bogus-task")

	require.Equal(testInstance, 2, application.Execute())
	require.Contains(testInstance, standardError.String(), "bogus-task")
}

func TestRootCommandRejectsInvalidOverrideNames(testInstance *testing.T) {
	application, _, _ := newApplicationForTest(testInstance, "test", "9BAD=value")

	require.NotEqual(testInstance, 0, application.Execute())
}

func TestVersionCommandPrintsVersion(testInstance *testing.T) {
	application, standardOutput, _ := newApplicationForTest(testInstance, "version")

	require.Equal(testInstance, 0, application.Execute())
	require.Contains(testInstance, standardOutput.String(), "taskdo version:")
}

func TestConfigurationInitializationWritesLocalFile(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	testInstance.Chdir(workingDirectory)

	application, _, _ := newApplicationForTest(testInstance, "--init")
	require.Equal(testInstance, 0, application.Execute())

	writtenContent, readError := os.ReadFile(filepath.Join(workingDirectory, configurationFileNameConstant))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(writtenContent), "log_level")

	repeatedApplication, _, repeatedStandardError := newApplicationForTest(testInstance, "--init")
	require.NotEqual(testInstance, 0, repeatedApplication.Execute())
	require.Contains(testInstance, repeatedStandardError.String(), "already exists")

	forcedApplication, _, _ := newApplicationForTest(testInstance, "--init", "--force")
	require.Equal(testInstance, 0, forcedApplication.Execute())
}

func TestConfigurationInitializationRejectsUnknownScope(testInstance *testing.T) {
	application, _, standardError := newApplicationForTest(testInstance, "--init=galactic")

	require.NotEqual(testInstance, 0, application.Execute())
	require.Contains(testInstance, standardError.String(), "unsupported initialization scope")
}

func TestLogLevelFlagOverridesConfiguration(testInstance *testing.T) {
	application, _, _ := newApplicationForTest(testInstance, "--log-level", "debug", "list")

	require.Equal(testInstance, 0, application.Execute())
	require.Equal(testInstance, "debug", application.configuration.Common.LogLevel)
}

func TestConfigurationFileFromSearchPath(testInstance *testing.T) {
	searchDirectory := testInstance.TempDir()
	configurationContent := "common:\n  log_level: warn\n  log_format: console\nvariables:\n  SOURCE_DIR: service_cli\n"
	require.NoError(testInstance, os.WriteFile(filepath.Join(searchDirectory, configurationFileNameConstant), []byte(configurationContent), 0o600))
	testInstance.Setenv(configurationSearchPathEnvironmentVariableConstant, searchDirectory)

	application := NewApplication()
	standardOutput := &bytes.Buffer{}
	application.rootCommand.SetOut(standardOutput)
	application.rootCommand.SetErr(&bytes.Buffer{})
	application.rootCommand.SetArgs([]string{"list"})

	require.Equal(testInstance, 0, application.Execute())
	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "service_cli", application.configuration.Variables["SOURCE_DIR"])
	require.Contains(testInstance, application.ConfigFileUsed(), configurationFileNameConstant)
}
