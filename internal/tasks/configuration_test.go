package tasks_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskdo/taskdo/internal/tasks"
)

func TestTaskConfigurationConversion(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration tasks.TaskConfiguration
		expectedTask  tasks.Task
	}{
		{
			name: "plain_steps",
			configuration: tasks.TaskConfiguration{
				Name:  "docs",
				Help:  "Build the documentation",
				Steps: []string{"poetry run mkdocs build"},
			},
			expectedTask: tasks.Task{
				Name:  "docs",
				Help:  "Build the documentation",
				Steps: []tasks.Step{{ScriptLine: "poetry run mkdocs build"}},
			},
		},
		{
			name: "ignore_failure_prefix",
			configuration: tasks.TaskConfiguration{
				Name:  "clean",
				Steps: []string{"- rm -rf htmlcov", "rm -rf .pytest_cache"},
			},
			expectedTask: tasks.Task{
				Name: "clean",
				Steps: []tasks.Step{
					{ScriptLine: "rm -rf htmlcov", IgnoreFailure: true},
					{ScriptLine: "rm -rf .pytest_cache"},
				},
			},
		},
		{
			name: "blank_lines_and_whitespace_dropped",
			configuration: tasks.TaskConfiguration{
				Name:  "  padded  ",
				Needs: " install ",
				Steps: []string{"   ", "", "  echo ready  "},
			},
			expectedTask: tasks.Task{
				Name:      "padded",
				DependsOn: "install",
				Steps:     []tasks.Step{{ScriptLine: "echo ready"}},
			},
		},
		{
			name: "action_with_variables",
			configuration: tasks.TaskConfiguration{
				Name:      "ship",
				Action:    "checkin",
				Variables: map[string]string{"MARK": "-m unit"},
			},
			expectedTask: tasks.Task{
				Name:      "ship",
				Action:    "checkin",
				Variables: map[string]string{"MARK": "-m unit"},
				Steps:     []tasks.Step{},
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			convertedTask := testCase.configuration.Task()
			require.Equal(testInstance, testCase.expectedTask.Name, convertedTask.Name)
			require.Equal(testInstance, testCase.expectedTask.Help, convertedTask.Help)
			require.Equal(testInstance, testCase.expectedTask.DependsOn, convertedTask.DependsOn)
			require.Equal(testInstance, testCase.expectedTask.Action, convertedTask.Action)
			require.Equal(testInstance, testCase.expectedTask.Variables, convertedTask.Variables)
			require.Equal(testInstance, testCase.expectedTask.Steps, convertedTask.Steps)
		})
	}
}

func TestConvertConfigurationsPreservesOrder(testInstance *testing.T) {
	converted := tasks.ConvertConfigurations([]tasks.TaskConfiguration{
		{Name: "first"},
		{Name: "second"},
	})
	require.Len(testInstance, converted, 2)
	require.Equal(testInstance, "first", converted[0].Name)
	require.Equal(testInstance, "second", converted[1].Name)
}
