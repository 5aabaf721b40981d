package checkin_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskdo/taskdo/internal/checkin"
	"github.com/taskdo/taskdo/internal/execshell"
)

const (
	testRepositoryPathConstant = "/tmp/project"
	testCommitMessageConstant  = "fix: align retry budget with gateway timeout"
)

type recordingGitExecutor struct {
	invocations [][]string
	failOn      string
	failure     error
}

func (executor *recordingGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.invocations = append(executor.invocations, details.Arguments)
	if len(executor.failOn) > 0 && details.Arguments[0] == executor.failOn {
		return execshell.ExecutionResult{}, executor.failure
	}
	return execshell.ExecutionResult{}, nil
}

type recordingDrafter struct {
	message string
	err     error
	calls   int
}

func (drafter *recordingDrafter) DraftMessage(executionContext context.Context, repositoryPath string) (string, error) {
	drafter.calls++
	return drafter.message, drafter.err
}

func buildServiceForTest(testInstance *testing.T, executor checkin.GitExecutor, promptInput string, drafter checkin.MessageDrafter) (*checkin.Service, *strings.Builder) {
	testInstance.Helper()
	promptOutput := &strings.Builder{}
	service, serviceError := checkin.NewService(checkin.Dependencies{
		GitExecutor: executor,
		Prompter:    checkin.NewIOMessagePrompter(strings.NewReader(promptInput), promptOutput),
		Drafter:     drafter,
		Logger:      zap.NewNop(),
	})
	require.NoError(testInstance, serviceError)
	return service, promptOutput
}

func TestServiceRunStagesCommitsAndPushes(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	service, promptOutput := buildServiceForTest(testInstance, executor, testCommitMessageConstant+"\n", nil)

	runError := service.Run(context.Background(), checkin.Options{RepositoryPath: testRepositoryPathConstant})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, promptOutput.String(), "Commit message: ")

	expectedInvocations := [][]string{
		{"add", "-A"},
		{"commit", "-m", testCommitMessageConstant},
		{"push"},
	}
	require.Equal(testInstance, expectedInvocations, executor.invocations)
}

func TestServiceRunProvidedMessageSkipsPrompt(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	service, promptOutput := buildServiceForTest(testInstance, executor, "", nil)

	runError := service.Run(context.Background(), checkin.Options{
		RepositoryPath: testRepositoryPathConstant,
		Message:        testCommitMessageConstant,
	})
	require.NoError(testInstance, runError)
	require.Empty(testInstance, promptOutput.String())
	require.Equal(testInstance, []string{"commit", "-m", testCommitMessageConstant}, executor.invocations[1])
}

func TestServiceRunEmptyPromptResponseFailsBeforeGit(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	service, _ := buildServiceForTest(testInstance, executor, "\n", nil)

	runError := service.Run(context.Background(), checkin.Options{RepositoryPath: testRepositoryPathConstant})
	require.Error(testInstance, runError)
	require.Empty(testInstance, executor.invocations)
}

func TestServiceRunCommitFailureStopsBeforePush(testInstance *testing.T) {
	executor := &recordingGitExecutor{failOn: "commit", failure: errors.New("nothing to commit")}
	service, _ := buildServiceForTest(testInstance, executor, testCommitMessageConstant+"\n", nil)

	runError := service.Run(context.Background(), checkin.Options{RepositoryPath: testRepositoryPathConstant})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "unable to commit")
	require.Len(testInstance, executor.invocations, 2)
}

func TestServiceRunDraftedMessageAcceptedOnEmptyResponse(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	drafter := &recordingDrafter{message: testCommitMessageConstant}
	service, promptOutput := buildServiceForTest(testInstance, executor, "\n", drafter)

	runError := service.Run(context.Background(), checkin.Options{
		RepositoryPath: testRepositoryPathConstant,
		DraftMessage:   true,
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, drafter.calls)
	require.Contains(testInstance, promptOutput.String(), testCommitMessageConstant)
	require.Equal(testInstance, []string{"commit", "-m", testCommitMessageConstant}, executor.invocations[1])
}

func TestServiceRunDraftedMessageReplacedByResponse(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	drafter := &recordingDrafter{message: "chore: placeholder"}
	service, _ := buildServiceForTest(testInstance, executor, testCommitMessageConstant+"\n", drafter)

	runError := service.Run(context.Background(), checkin.Options{
		RepositoryPath: testRepositoryPathConstant,
		DraftMessage:   true,
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{"commit", "-m", testCommitMessageConstant}, executor.invocations[1])
}

func TestServiceRunDraftFailureFallsBackToPrompt(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	drafter := &recordingDrafter{err: errors.New("llm unavailable")}
	service, promptOutput := buildServiceForTest(testInstance, executor, testCommitMessageConstant+"\n", drafter)

	runError := service.Run(context.Background(), checkin.Options{
		RepositoryPath: testRepositoryPathConstant,
		DraftMessage:   true,
	})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, promptOutput.String(), "Commit message: ")
	require.Equal(testInstance, []string{"commit", "-m", testCommitMessageConstant}, executor.invocations[1])
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, missingExecutorError := checkin.NewService(checkin.Dependencies{
		Prompter: checkin.NewIOMessagePrompter(strings.NewReader(""), nil),
		Logger:   zap.NewNop(),
	})
	require.Error(testInstance, missingExecutorError)

	_, missingPrompterError := checkin.NewService(checkin.Dependencies{
		GitExecutor: &recordingGitExecutor{},
		Logger:      zap.NewNop(),
	})
	require.Error(testInstance, missingPrompterError)

	_, missingLoggerError := checkin.NewService(checkin.Dependencies{
		GitExecutor: &recordingGitExecutor{},
		Prompter:    checkin.NewIOMessagePrompter(strings.NewReader(""), nil),
	})
	require.Error(testInstance, missingLoggerError)
}
