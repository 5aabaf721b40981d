package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/taskdo/taskdo/internal/execshell"
)

const (
	commitMessagePromptConstant          = "Commit message: "
	serviceExecutorMissingConstant       = "checkin git executor not configured"
	serviceLoggerMissingConstant         = "checkin logger not configured"
	servicePrompterMissingConstant       = "checkin message prompter not configured"
	stagingFailedTemplateConstant        = "unable to stage changes: %w"
	commitFailedTemplateConstant         = "unable to commit staged changes: %w"
	pushFailedTemplateConstant           = "unable to push committed changes: %w"
	draftUnavailableMessageConstant      = "commit message drafting unavailable"
	checkinStartedMessageConstant        = "checkin starting"
	checkinCompletedMessageConstant      = "checkin completed"
	commitMessageFieldConstant           = "commit_message"
	repositoryPathFieldConstant          = "repository"
	gitAddAllArgumentConstant            = "add"
	gitAddAllFlagConstant                = "-A"
	gitCommitArgumentConstant            = "commit"
	gitCommitMessageFlagConstant         = "-m"
	gitPushArgumentConstant              = "push"
	draftAcceptancePromptTemplateConst = "Proposed commit message:\n\n  %s\n\nPress enter to accept or type a replacement: "
)

// GitExecutor runs git with the provided invocation details.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// MessageDrafter proposes a commit message from the pending changes.
type MessageDrafter interface {
	DraftMessage(executionContext context.Context, repositoryPath string) (string, error)
}

// Dependencies describes the collaborators required by the service.
type Dependencies struct {
	GitExecutor GitExecutor
	Prompter    MessagePrompter
	Drafter     MessageDrafter
	Logger      *zap.Logger
}

// Options configure a single checkin invocation.
type Options struct {
	RepositoryPath string
	Message        string
	DraftMessage   bool
}

// Service stages every pending change, commits with an operator-provided
// message, and pushes to the tracked remote.
type Service struct {
	dependencies Dependencies
}

// NewService validates dependencies and constructs a checkin service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, errors.New(serviceExecutorMissingConstant)
	}
	if dependencies.Prompter == nil {
		return nil, errors.New(servicePrompterMissingConstant)
	}
	if dependencies.Logger == nil {
		return nil, errors.New(serviceLoggerMissingConstant)
	}
	return &Service{dependencies: dependencies}, nil
}

// Run resolves the commit message and executes the stage, commit, and push
// sequence. A message supplied through options skips the prompt entirely.
func (service *Service) Run(executionContext context.Context, options Options) error {
	commitMessage, messageError := service.resolveCommitMessage(executionContext, options)
	if messageError != nil {
		return messageError
	}

	service.dependencies.Logger.Info(checkinStartedMessageConstant,
		zap.String(repositoryPathFieldConstant, options.RepositoryPath),
		zap.String(commitMessageFieldConstant, commitMessage),
	)

	if _, stageError := service.dependencies.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddAllArgumentConstant, gitAddAllFlagConstant},
		WorkingDirectory: options.RepositoryPath,
	}); stageError != nil {
		return fmt.Errorf(stagingFailedTemplateConstant, stageError)
	}

	if _, commitError := service.dependencies.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitArgumentConstant, gitCommitMessageFlagConstant, commitMessage},
		WorkingDirectory: options.RepositoryPath,
	}); commitError != nil {
		return fmt.Errorf(commitFailedTemplateConstant, commitError)
	}

	if _, pushError := service.dependencies.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPushArgumentConstant},
		WorkingDirectory: options.RepositoryPath,
	}); pushError != nil {
		return fmt.Errorf(pushFailedTemplateConstant, pushError)
	}

	service.dependencies.Logger.Info(checkinCompletedMessageConstant,
		zap.String(repositoryPathFieldConstant, options.RepositoryPath),
	)
	return nil
}

func (service *Service) resolveCommitMessage(executionContext context.Context, options Options) (string, error) {
	providedMessage := strings.TrimSpace(options.Message)
	if len(providedMessage) > 0 {
		return providedMessage, nil
	}

	if options.DraftMessage && service.dependencies.Drafter != nil {
		draftedMessage, draftError := service.dependencies.Drafter.DraftMessage(executionContext, options.RepositoryPath)
		if draftError != nil {
			service.dependencies.Logger.Warn(draftUnavailableMessageConstant, zap.Error(draftError))
			return service.dependencies.Prompter.PromptForMessage(commitMessagePromptConstant)
		}
		acceptancePrompt := fmt.Sprintf(draftAcceptancePromptTemplateConst, draftedMessage)
		replacementMessage, promptError := service.dependencies.Prompter.PromptForMessage(acceptancePrompt)
		if promptError == nil {
			return replacementMessage, nil
		}
		// An empty response accepts the draft.
		return draftedMessage, nil
	}

	return service.dependencies.Prompter.PromptForMessage(commitMessagePromptConstant)
}
