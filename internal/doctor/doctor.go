package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/taskdo/taskdo/internal/execshell"
)

const (
	doctorExecutorMissingMessageConstant = "doctor command executor not configured"
	doctorLoggerMissingMessageConstant   = "doctor logger not configured"
	toolCheckStartedMessageConstant      = "tool check starting"
	toolCheckFinishedMessageConstant     = "tool check finished"
	toolNameFieldConstant                = "tool"
	toolVersionFieldConstant             = "version"
	toolSatisfiedFieldConstant           = "satisfied"
	reportSatisfiedMarkConstant          = "ok"
	reportMissingMarkConstant            = "missing"
	reportOutdatedMarkConstant           = "outdated"
	reportRowTemplateConstant            = "%-12s %-10s %-12s minimum %s\n"
	reportHeaderConstant                 = "Tool health:"
	semverPrefixConstant                 = "v"
)

var versionTokenPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// ToolRequirement describes one external tool the workflow depends on.
type ToolRequirement struct {
	ToolName         string
	VersionArguments []string
	MinimumVersion   string
}

// ToolStatus captures the outcome of one requirement check.
type ToolStatus struct {
	Requirement     ToolRequirement
	Installed       bool
	DetectedVersion string
	Satisfied       bool
}

// CommandExecutor runs external commands for version probing.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Service checks the workflow's external tools for presence and minimum versions.
type Service struct {
	executor CommandExecutor
	logger   *zap.Logger
}

// NewService validates dependencies and constructs a doctor service.
func NewService(executor CommandExecutor, logger *zap.Logger) (*Service, error) {
	if executor == nil {
		return nil, errors.New(doctorExecutorMissingMessageConstant)
	}
	if logger == nil {
		return nil, errors.New(doctorLoggerMissingMessageConstant)
	}
	return &Service{executor: executor, logger: logger}, nil
}

// DefaultRequirements returns the tools the built-in task catalog shells out to.
func DefaultRequirements() []ToolRequirement {
	return []ToolRequirement{
		{ToolName: "git", VersionArguments: []string{"--version"}, MinimumVersion: "v2.30.0"},
		{ToolName: "python3", VersionArguments: []string{"--version"}, MinimumVersion: "v3.10.0"},
		{ToolName: "poetry", VersionArguments: []string{"--version"}, MinimumVersion: "v1.5.0"},
		{ToolName: "pip", VersionArguments: []string{"--version"}, MinimumVersion: "v23.0.0"},
		{ToolName: "pre-commit", VersionArguments: []string{"--version"}, MinimumVersion: "v3.0.0"},
	}
}

// CheckRequirements probes every requirement and returns their statuses in order.
func (service *Service) CheckRequirements(executionContext context.Context, requirements []ToolRequirement) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(requirements))
	for _, requirement := range requirements {
		statuses = append(statuses, service.checkRequirement(executionContext, requirement))
	}
	return statuses
}

func (service *Service) checkRequirement(executionContext context.Context, requirement ToolRequirement) ToolStatus {
	service.logger.Debug(toolCheckStartedMessageConstant,
		zap.String(toolNameFieldConstant, requirement.ToolName),
	)

	executionResult, executionError := service.executor.Execute(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandName(requirement.ToolName),
		Details: execshell.CommandDetails{Arguments: requirement.VersionArguments},
	})
	if executionError != nil {
		var commandNotFound execshell.CommandNotFoundError
		if errors.As(executionError, &commandNotFound) {
			return ToolStatus{Requirement: requirement}
		}
		return ToolStatus{Requirement: requirement, Installed: true}
	}

	detectedVersion := ParseVersionToken(executionResult.StandardOutput + executionResult.StandardError)
	status := ToolStatus{
		Requirement:     requirement,
		Installed:       true,
		DetectedVersion: detectedVersion,
		Satisfied:       versionSatisfies(detectedVersion, requirement.MinimumVersion),
	}

	service.logger.Debug(toolCheckFinishedMessageConstant,
		zap.String(toolNameFieldConstant, requirement.ToolName),
		zap.String(toolVersionFieldConstant, status.DetectedVersion),
		zap.Bool(toolSatisfiedFieldConstant, status.Satisfied),
	)
	return status
}

// ParseVersionToken extracts the first dotted version token from tool output
// and returns it in canonical semver form.
func ParseVersionToken(commandOutput string) string {
	matchedToken := versionTokenPattern.FindString(commandOutput)
	if len(matchedToken) == 0 {
		return ""
	}
	canonicalCandidate := semverPrefixConstant + matchedToken
	if !semver.IsValid(canonicalCandidate) {
		return ""
	}
	return semver.Canonical(canonicalCandidate)
}

func versionSatisfies(detectedVersion string, minimumVersion string) bool {
	if len(minimumVersion) == 0 {
		return len(detectedVersion) > 0
	}
	if len(detectedVersion) == 0 {
		return false
	}
	return semver.Compare(detectedVersion, minimumVersion) >= 0
}

// WriteReport renders the statuses as an aligned human-readable table and
// reports whether every requirement was satisfied.
func WriteReport(writer io.Writer, statuses []ToolStatus) (bool, error) {
	if _, writeError := fmt.Fprintln(writer, reportHeaderConstant); writeError != nil {
		return false, writeError
	}

	healthy := true
	for _, status := range statuses {
		mark := reportSatisfiedMarkConstant
		switch {
		case !status.Installed:
			mark = reportMissingMarkConstant
			healthy = false
		case !status.Satisfied:
			mark = reportOutdatedMarkConstant
			healthy = false
		}

		displayedVersion := status.DetectedVersion
		if len(displayedVersion) == 0 {
			displayedVersion = "-"
		}
		if _, writeError := fmt.Fprintf(writer, reportRowTemplateConstant,
			status.Requirement.ToolName, mark, displayedVersion, status.Requirement.MinimumVersion); writeError != nil {
			return false, writeError
		}
	}
	return healthy, nil
}
