package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskdo/taskdo/internal/execshell"
)

const (
	recipeStepFailedTemplateConstant       = "task %q step %d failed with exit code %d"
	missingToolTemplateConstant            = "task %q step %d requires a tool that is not installed"
	unknownActionTemplateConstant          = "task %q references unregistered action %q"
	runnerExecutorMissingMessageConstant   = "task runner script executor not configured"
	runnerLoggerMissingMessageConstant     = "task runner logger not configured"
	taskStartMessageConstant               = "task execution starting"
	taskCompletedMessageConstant           = "task execution completed"
	taskStepSkippedFailureMessageConstant  = "step failure ignored"
	taskNameFieldConstant                  = "task"
	stepIndexFieldConstant                 = "step"
	stepCountFieldConstant                 = "step_count"
	exitCodeFieldConstant                  = "exit_code"
	missingToolExitCodeConstant            = 127
	genericFailureExitCodeConstant         = 1
	unknownTaskExitCodeConstant            = 2
	successExitCodeConstant                = 0
	dependencyResolutionMessageConstant    = "resolved dependency chain"
	dependencyChainFieldConstant           = "chain"
	ignoredFailureExitCodeLogFieldConstant = "ignored_exit_code"
)

// RecipeStepFailedError indicates an external collaborator returned a non-zero status.
type RecipeStepFailedError struct {
	TaskName  string
	StepIndex int
	ExitCode  int
	Cause     error
}

// Error implements the error interface.
func (stepError RecipeStepFailedError) Error() string {
	return fmt.Sprintf(recipeStepFailedTemplateConstant, stepError.TaskName, stepError.StepIndex, stepError.ExitCode)
}

// Unwrap exposes the underlying execution error.
func (stepError RecipeStepFailedError) Unwrap() error {
	return stepError.Cause
}

// MissingToolError indicates a required external tool is absent from PATH.
type MissingToolError struct {
	TaskName  string
	StepIndex int
	Cause     error
}

// Error implements the error interface.
func (toolError MissingToolError) Error() string {
	return fmt.Sprintf(missingToolTemplateConstant, toolError.TaskName, toolError.StepIndex)
}

// Unwrap exposes the underlying lookup error.
func (toolError MissingToolError) Unwrap() error {
	return toolError.Cause
}

// UnknownActionError indicates a task referenced an action missing from the registry.
type UnknownActionError struct {
	TaskName   string
	ActionName string
}

// Error implements the error interface.
func (actionError UnknownActionError) Error() string {
	return fmt.Sprintf(unknownActionTemplateConstant, actionError.TaskName, actionError.ActionName)
}

// ActionInvocation carries execution details into a built-in action.
type ActionInvocation struct {
	TaskName         string
	Bindings         Bindings
	WorkingDirectory string
}

// Action is a built-in behavior executed in place of shell steps.
type Action func(executionContext context.Context, invocation ActionInvocation) error

// ScriptExecutor runs recipe lines through the shell.
type ScriptExecutor interface {
	ExecuteShellScript(executionContext context.Context, scriptLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Dependencies describes the collaborators required by the runner.
type Dependencies struct {
	Executor         ScriptExecutor
	Logger           *zap.Logger
	WorkingDirectory string
	Actions          map[string]Action
}

// InvocationResult captures the outcome of one runner invocation.
type InvocationResult struct {
	TaskName      string
	ExecutedSteps int
	ExitCode      int
}

// Runner resolves tasks from a catalog and executes their recipes sequentially.
type Runner struct {
	catalog      Catalog
	dependencies Dependencies
}

// NewRunner validates dependencies and constructs a Runner over the provided catalog.
func NewRunner(catalog Catalog, dependencies Dependencies) (*Runner, error) {
	if dependencies.Executor == nil {
		return nil, errors.New(runnerExecutorMissingMessageConstant)
	}
	if dependencies.Logger == nil {
		return nil, errors.New(runnerLoggerMissingMessageConstant)
	}
	return &Runner{catalog: catalog, dependencies: dependencies}, nil
}

// Catalog exposes the runner's immutable task catalog.
func (runner *Runner) Catalog() Catalog {
	return runner.catalog
}

// Run resolves the named task, executes its dependency chain followed by its own
// recipe, and stops on the first failing step. Caller overrides win over task
// variable presets.
func (runner *Runner) Run(executionContext context.Context, taskName string, bindings Bindings, overrides map[string]string) (InvocationResult, error) {
	invokedTask, lookupError := runner.catalog.Lookup(taskName)
	if lookupError != nil {
		return InvocationResult{TaskName: taskName, ExitCode: unknownTaskExitCodeConstant}, lookupError
	}

	executionChain := runner.resolveExecutionChain(invokedTask)
	effectiveBindings := bindings
	for _, chainTask := range executionChain {
		if len(chainTask.Variables) > 0 {
			effectiveBindings = effectiveBindings.WithOverrides(chainTask.Variables)
		}
	}
	effectiveBindings = effectiveBindings.WithOverrides(overrides)

	chainNames := make([]string, 0, len(executionChain))
	for _, chainTask := range executionChain {
		chainNames = append(chainNames, chainTask.Name)
	}
	runner.dependencies.Logger.Debug(dependencyResolutionMessageConstant,
		zap.String(taskNameFieldConstant, invokedTask.Name),
		zap.Strings(dependencyChainFieldConstant, chainNames),
	)

	result := InvocationResult{TaskName: invokedTask.Name}
	for _, chainTask := range executionChain {
		executedSteps, executionError := runner.runTask(executionContext, chainTask, effectiveBindings)
		result.ExecutedSteps += executedSteps
		if executionError != nil {
			result.ExitCode = ExitCode(executionError)
			return result, executionError
		}
	}

	result.ExitCode = successExitCodeConstant
	return result, nil
}

func (runner *Runner) resolveExecutionChain(invokedTask Task) []Task {
	chain := []Task{invokedTask}
	currentTask := invokedTask
	for len(currentTask.DependsOn) > 0 {
		dependencyTask, lookupError := runner.catalog.Lookup(currentTask.DependsOn)
		if lookupError != nil {
			break
		}
		chain = append([]Task{dependencyTask}, chain...)
		currentTask = dependencyTask
	}
	return chain
}

func (runner *Runner) runTask(executionContext context.Context, executedTask Task, bindings Bindings) (int, error) {
	runner.dependencies.Logger.Info(taskStartMessageConstant,
		zap.String(taskNameFieldConstant, executedTask.Name),
		zap.Int(stepCountFieldConstant, len(executedTask.Steps)),
	)

	if len(executedTask.Action) > 0 {
		registeredAction, actionRegistered := runner.dependencies.Actions[executedTask.Action]
		if !actionRegistered {
			return 0, UnknownActionError{TaskName: executedTask.Name, ActionName: executedTask.Action}
		}
		invocation := ActionInvocation{
			TaskName:         executedTask.Name,
			Bindings:         bindings,
			WorkingDirectory: runner.dependencies.WorkingDirectory,
		}
		if actionError := registeredAction(executionContext, invocation); actionError != nil {
			return 0, actionError
		}
	}

	executedSteps := 0
	for stepIndex, recipeStep := range executedTask.Steps {
		expandedLine := bindings.Expand(recipeStep.ScriptLine)
		executionResult, executionError := runner.dependencies.Executor.ExecuteShellScript(
			executionContext,
			expandedLine,
			execshell.CommandDetails{
				WorkingDirectory:     runner.dependencies.WorkingDirectory,
				EnvironmentVariables: bindings.Snapshot(),
			},
		)
		executedSteps++

		if executionError == nil {
			continue
		}

		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) {
			if recipeStep.IgnoreFailure {
				runner.dependencies.Logger.Warn(taskStepSkippedFailureMessageConstant,
					zap.String(taskNameFieldConstant, executedTask.Name),
					zap.Int(stepIndexFieldConstant, stepIndex),
					zap.Int(ignoredFailureExitCodeLogFieldConstant, executionResult.ExitCode),
				)
				continue
			}
			return executedSteps, RecipeStepFailedError{
				TaskName:  executedTask.Name,
				StepIndex: stepIndex,
				ExitCode:  executionResult.ExitCode,
				Cause:     executionError,
			}
		}

		var commandNotFound execshell.CommandNotFoundError
		if errors.As(executionError, &commandNotFound) {
			return executedSteps, MissingToolError{
				TaskName:  executedTask.Name,
				StepIndex: stepIndex,
				Cause:     executionError,
			}
		}

		return executedSteps, executionError
	}

	runner.dependencies.Logger.Info(taskCompletedMessageConstant,
		zap.String(taskNameFieldConstant, executedTask.Name),
		zap.Int(stepCountFieldConstant, executedSteps),
	)
	return executedSteps, nil
}

// ExitCode maps runner errors to process exit codes, preserving the first
// failing step's code.
func ExitCode(candidate error) int {
	if candidate == nil {
		return successExitCodeConstant
	}

	var stepFailure RecipeStepFailedError
	if errors.As(candidate, &stepFailure) {
		if stepFailure.ExitCode != 0 {
			return stepFailure.ExitCode
		}
		return genericFailureExitCodeConstant
	}

	var missingTool MissingToolError
	if errors.As(candidate, &missingTool) {
		return missingToolExitCodeConstant
	}

	var unknownTask UnknownTaskError
	if errors.As(candidate, &unknownTask) {
		return unknownTaskExitCodeConstant
	}

	return genericFailureExitCodeConstant
}
