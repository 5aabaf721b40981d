package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tyemirov/utils/llm"

	"github.com/taskdo/taskdo/internal/checkin"
	"github.com/taskdo/taskdo/internal/commitmsg"
	"github.com/taskdo/taskdo/internal/coverage"
	"github.com/taskdo/taskdo/internal/doctor"
	"github.com/taskdo/taskdo/internal/execshell"
	"github.com/taskdo/taskdo/internal/tasks"
	"github.com/taskdo/taskdo/internal/version"
)

const (
	runCommandUseConstant               = "run <task> [NAME=value ...]"
	runCommandShortDescriptionConstant  = "Run a task and its dependencies"
	listCommandUseConstant              = "list"
	listCommandShortDescriptionConstant = "List available tasks"
	listCommandAliasConstant            = "ls"

	checkinCommandUseConstant              = "checkin"
	checkinCommandShortDescriptionConstant = "Stage, commit, and push pending changes"
	checkinMessageFlagNameConstant         = "message"
	checkinMessageFlagShorthandConstant    = "m"
	checkinMessageFlagUsageConstant        = "Commit message to use instead of prompting."
	checkinDraftFlagNameConstant           = "draft"
	checkinDraftFlagUsageConstant          = "Draft the commit message from staged changes with the configured language model."

	doctorCommandUseConstant              = "doctor"
	doctorCommandShortDescriptionConstant = "Check that the workflow's external tools are installed"
	doctorUnhealthyMessageConstant        = "one or more required tools are missing or outdated"

	coverageCommandUseConstant                = "coverage"
	coverageCommandShortDescriptionConstant   = "Work with the HTML coverage report"
	coverageServeUseConstant                  = "serve"
	coverageServeShortDescriptionConstant     = "Serve the HTML coverage report over HTTP"
	coverageSnapshotUseConstant               = "snapshot"
	coverageSnapshotShortDescriptionConstant  = "Capture a PNG snapshot of the HTML coverage report"
	coverageReportDirectoryFlagNameConstant   = "report-dir"
	coverageReportDirectoryFlagUsageConstant  = "Directory containing the generated HTML coverage report."
	coverageListenAddressFlagNameConstant     = "listen"
	coverageListenAddressFlagUsageConstant    = "Address the report server binds to."
	coverageSnapshotOutputFlagNameConstant    = "output"
	coverageSnapshotOutputFlagUsageConstant   = "Path the captured PNG snapshot is written to."
	coverageServingTemplateConstant           = "Serving coverage report at http://%s/ (press Ctrl-C to stop)\n"
	coverageSnapshotWrittenTemplateConstant   = "Coverage snapshot written to %s\n"
	coverageReportIndexPathTemplateConstant   = "http://%s/report/index.html"
	defaultCommitMessageDraftingAPIKeyEnvName = "TASKDO_LLM_API_KEY"

	versionCommandUseConstant              = "version"
	versionCommandShortDescriptionConstant = "Print the taskdo version"
)

// UnhealthyToolsError indicates the doctor report found missing or outdated tools.
type UnhealthyToolsError struct{}

// Error implements the error interface.
func (UnhealthyToolsError) Error() string {
	return doctorUnhealthyMessageConstant
}

func (application *Application) buildRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:           runCommandUseConstant,
		Short:         runCommandShortDescriptionConstant,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runTaskArguments(command, arguments)
		},
	}
}

func (application *Application) buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:           listCommandUseConstant,
		Short:         listCommandShortDescriptionConstant,
		Aliases:       []string{listCommandAliasConstant},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.renderTaskListing(command)
		},
	}
}

func (application *Application) buildCheckinCommand() *cobra.Command {
	var messageFlagValue string
	var draftFlagValue bool

	command := &cobra.Command{
		Use:           checkinCommandUseConstant,
		Short:         checkinCommandShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runCheckin(command, messageFlagValue, draftFlagValue)
		},
	}
	command.Flags().StringVarP(&messageFlagValue, checkinMessageFlagNameConstant, checkinMessageFlagShorthandConstant, "", checkinMessageFlagUsageConstant)
	command.Flags().BoolVar(&draftFlagValue, checkinDraftFlagNameConstant, false, checkinDraftFlagUsageConstant)
	return command
}

func (application *Application) buildDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:           doctorCommandUseConstant,
		Short:         doctorCommandShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			shellExecutor, executorError := application.buildCapturingShellExecutor()
			if executorError != nil {
				return executorError
			}

			doctorService, serviceError := doctor.NewService(shellExecutor, application.logger)
			if serviceError != nil {
				return serviceError
			}

			statuses := doctorService.CheckRequirements(command.Context(), doctor.DefaultRequirements())
			healthy, reportError := doctor.WriteReport(command.OutOrStdout(), statuses)
			if reportError != nil {
				return reportError
			}
			if !healthy {
				return UnhealthyToolsError{}
			}
			return nil
		},
	}
}

func (application *Application) buildCoverageCommand() *cobra.Command {
	coverageCommand := &cobra.Command{
		Use:           coverageCommandUseConstant,
		Short:         coverageCommandShortDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	var serveReportDirectory string
	var serveListenAddress string
	serveCommand := &cobra.Command{
		Use:           coverageServeUseConstant,
		Short:         coverageServeShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			reportServer, serverError := coverage.NewReportServer(
				application.resolveCoverageReportDirectory(serveReportDirectory),
				application.resolveCoverageListenAddress(serveListenAddress),
				application.logger,
			)
			if serverError != nil {
				return serverError
			}
			if startError := reportServer.Start(); startError != nil {
				return startError
			}
			fmt.Fprintf(command.OutOrStdout(), coverageServingTemplateConstant, reportServer.Address())

			signalContext, stopSignals := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stopSignals()
			return reportServer.Wait(signalContext)
		},
	}
	serveCommand.Flags().StringVar(&serveReportDirectory, coverageReportDirectoryFlagNameConstant, "", coverageReportDirectoryFlagUsageConstant)
	serveCommand.Flags().StringVar(&serveListenAddress, coverageListenAddressFlagNameConstant, "", coverageListenAddressFlagUsageConstant)

	var snapshotReportDirectory string
	var snapshotOutputPath string
	snapshotCommand := &cobra.Command{
		Use:           coverageSnapshotUseConstant,
		Short:         coverageSnapshotShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			reportServer, serverError := coverage.NewReportServer(
				application.resolveCoverageReportDirectory(snapshotReportDirectory),
				coverage.DefaultListenAddress,
				application.logger,
			)
			if serverError != nil {
				return serverError
			}
			if startError := reportServer.Start(); startError != nil {
				return startError
			}
			defer func() { _ = reportServer.Stop() }()

			outputPath := strings.TrimSpace(snapshotOutputPath)
			if len(outputPath) == 0 {
				outputPath = application.configuration.Coverage.SnapshotPath
			}
			captureError := coverage.CaptureSnapshot(command.Context(), coverage.SnapshotOptions{
				ReportURL:  fmt.Sprintf(coverageReportIndexPathTemplateConstant, reportServer.Address()),
				OutputPath: outputPath,
			}, application.logger)
			if captureError != nil {
				return captureError
			}
			if len(outputPath) == 0 {
				outputPath = coverage.DefaultSnapshotPath
			}
			fmt.Fprintf(command.OutOrStdout(), coverageSnapshotWrittenTemplateConstant, outputPath)
			return nil
		},
	}
	snapshotCommand.Flags().StringVar(&snapshotReportDirectory, coverageReportDirectoryFlagNameConstant, "", coverageReportDirectoryFlagUsageConstant)
	snapshotCommand.Flags().StringVar(&snapshotOutputPath, coverageSnapshotOutputFlagNameConstant, "", coverageSnapshotOutputFlagUsageConstant)

	coverageCommand.AddCommand(serveCommand, snapshotCommand)
	return coverageCommand
}

func (application *Application) buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           versionCommandUseConstant,
		Short:         versionCommandShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			application.printVersion(command)
			return nil
		},
	}
}

func (application *Application) printVersion(command *cobra.Command) {
	dependencies := version.Dependencies{}
	if gitExecutor, executorError := application.buildCapturingShellExecutor(); executorError == nil {
		dependencies.GitExecutor = gitExecutor
	}

	versionString := version.Detect(command.Context(), dependencies)
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, versionString)
}

func (application *Application) resolveCoverageReportDirectory(flagValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}
	return application.configuration.Coverage.ReportDirectory
}

func (application *Application) resolveCoverageListenAddress(flagValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}
	return application.configuration.Coverage.ListenAddress
}

func (application *Application) runTaskArguments(command *cobra.Command, arguments []string) error {
	overrides, taskNames, parseError := tasks.ParseOverrides(arguments)
	if parseError != nil {
		return parseError
	}

	if len(taskNames) == 0 {
		return application.renderTaskListing(command)
	}

	catalog, bindings, assembleError := application.assembleCatalogAndBindings()
	if assembleError != nil {
		return assembleError
	}

	runner, runnerError := application.buildTaskRunner(command, catalog)
	if runnerError != nil {
		return runnerError
	}

	for _, taskName := range taskNames {
		if taskName == tasks.TaskNameHelp {
			if listingError := tasks.RenderTaskListing(catalog, command.OutOrStdout()); listingError != nil {
				return listingError
			}
			continue
		}
		if _, runError := runner.Run(command.Context(), taskName, bindings, overrides); runError != nil {
			return runError
		}
	}
	return nil
}

func (application *Application) renderTaskListing(command *cobra.Command) error {
	catalog, _, assembleError := application.assembleCatalogAndBindings()
	if assembleError != nil {
		return assembleError
	}
	return tasks.RenderTaskListing(catalog, command.OutOrStdout())
}

func (application *Application) assembleCatalogAndBindings() (tasks.Catalog, tasks.Bindings, error) {
	catalog, catalogError := tasks.BuiltinCatalog()
	if catalogError != nil {
		return tasks.Catalog{}, tasks.Bindings{}, catalogError
	}

	variableLayers := []map[string]string{tasks.DefaultVariables(), application.configuration.Variables}

	if len(application.configuration.Tasks) > 0 {
		mergedCatalog, mergeError := catalog.Merge(tasks.ConvertConfigurations(application.configuration.Tasks))
		if mergeError != nil {
			return tasks.Catalog{}, tasks.Bindings{}, mergeError
		}
		catalog = mergedCatalog
	}

	taskfilePath := strings.TrimSpace(application.taskfilePathFlagValue)
	if len(taskfilePath) > 0 {
		taskfile, taskfileError := tasks.LoadTaskfile(taskfilePath)
		if taskfileError != nil {
			return tasks.Catalog{}, tasks.Bindings{}, taskfileError
		}
		variableLayers = append(variableLayers, taskfile.Variables)

		if len(taskfile.Tasks) > 0 {
			mergedCatalog, mergeError := catalog.Merge(tasks.ConvertConfigurations(taskfile.Tasks))
			if mergeError != nil {
				return tasks.Catalog{}, tasks.Bindings{}, mergeError
			}
			catalog = mergedCatalog
		}
	}

	return catalog, tasks.NewBindings(variableLayers...), nil
}

func (application *Application) buildTaskRunner(command *cobra.Command, catalog tasks.Catalog) (*tasks.Runner, error) {
	shellExecutor, executorError := execshell.NewShellExecutor(
		application.logger,
		execshell.NewInteractiveOSCommandRunner(),
		application.humanReadableLoggingEnabled(),
	)
	if executorError != nil {
		return nil, executorError
	}

	actions := map[string]tasks.Action{
		tasks.ActionCheckin: func(executionContext context.Context, invocation tasks.ActionInvocation) error {
			return application.runCheckin(command, "", false)
		},
	}

	return tasks.NewRunner(catalog, tasks.Dependencies{
		Executor: shellExecutor,
		Logger:   application.logger,
		Actions:  actions,
	})
}

func (application *Application) buildCapturingShellExecutor() (*execshell.ShellExecutor, error) {
	return execshell.NewShellExecutor(
		application.logger,
		execshell.NewOSCommandRunner(),
		application.humanReadableLoggingEnabled(),
	)
}

func (application *Application) runCheckin(command *cobra.Command, commitMessage string, draftRequested bool) error {
	gitExecutor, executorError := application.buildCapturingShellExecutor()
	if executorError != nil {
		return executorError
	}

	repositoryPath, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		repositoryPath = defaultConfigurationSearchPathConstant
	}

	checkinService, serviceError := checkin.NewService(checkin.Dependencies{
		GitExecutor: gitExecutor,
		Prompter:    checkin.NewIOMessagePrompter(command.InOrStdin(), command.OutOrStdout()),
		Drafter:     application.buildMessageDrafter(gitExecutor),
		Logger:      application.logger,
	})
	if serviceError != nil {
		return serviceError
	}

	return checkinService.Run(command.Context(), checkin.Options{
		RepositoryPath: repositoryPath,
		Message:        commitMessage,
		DraftMessage:   draftRequested,
	})
}

type generatedMessageDrafter struct {
	generator commitmsg.Generator
}

func (drafter generatedMessageDrafter) DraftMessage(executionContext context.Context, repositoryPath string) (string, error) {
	result, generateError := drafter.generator.Generate(executionContext, commitmsg.Options{
		RepositoryPath: repositoryPath,
		Source:         commitmsg.DiffSourceStaged,
	})
	if generateError != nil {
		return "", generateError
	}
	return result.Message, nil
}

func (application *Application) buildMessageDrafter(gitExecutor commitmsg.GitExecutor) checkin.MessageDrafter {
	llmConfiguration := application.configuration.Checkin.LLM
	if len(strings.TrimSpace(llmConfiguration.Model)) == 0 {
		return nil
	}

	apiKeyEnvironmentName := strings.TrimSpace(llmConfiguration.APIKeyEnv)
	if len(apiKeyEnvironmentName) == 0 {
		apiKeyEnvironmentName = defaultCommitMessageDraftingAPIKeyEnvName
	}

	chatClient, clientError := llm.NewFactory(llm.Config{
		BaseURL:             llmConfiguration.BaseURL,
		APIKey:              os.Getenv(apiKeyEnvironmentName),
		Model:               llmConfiguration.Model,
		MaxCompletionTokens: llmConfiguration.MaxTokens,
	})
	if clientError != nil {
		return nil
	}

	return generatedMessageDrafter{generator: commitmsg.Generator{
		GitExecutor: gitExecutor,
		Client:      chatClient,
		Logger:      application.logger,
	}}
}
