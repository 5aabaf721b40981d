package tasks

import (
	"fmt"
	"sort"
	"strings"
)

const (
	unknownTaskErrorTemplateConstant       = "unknown task %q"
	duplicateTaskErrorTemplateConstant     = "duplicate task %q"
	unknownDependencyErrorTemplateConstant = "task %q depends on unknown task %q"
	dependencyCycleErrorTemplateConstant   = "task %q participates in a dependency cycle"
	emptyTaskNameMessageConstant           = "task name cannot be empty"
)

// Step is a single recipe line executed through the shell.
type Step struct {
	// ScriptLine is the shell command executed via `sh -c` after variable expansion.
	ScriptLine string
	// IgnoreFailure continues recipe execution when this step exits non-zero.
	IgnoreFailure bool
}

// Task describes a named, ordered sequence of shell actions registered statically.
type Task struct {
	// Name uniquely identifies the task within a catalog.
	Name string
	// Help is the human-readable description shown in the task listing.
	Help string
	// DependsOn names a task whose recipe runs before this one.
	DependsOn string
	// Variables preset bindings applied before caller overrides.
	Variables map[string]string
	// Action names a registered built-in action executed instead of shell steps.
	Action string
	// Steps holds the recipe lines executed in declared order.
	Steps []Step
}

// UnknownTaskError indicates an invocation referenced an unregistered task name.
type UnknownTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (unknownError UnknownTaskError) Error() string {
	return fmt.Sprintf(unknownTaskErrorTemplateConstant, unknownError.TaskName)
}

// DuplicateTaskError indicates two registrations share the same task name.
type DuplicateTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (duplicateError DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskErrorTemplateConstant, duplicateError.TaskName)
}

// UnknownDependencyError indicates a task declared a dependency that is not registered.
type UnknownDependencyError struct {
	TaskName       string
	DependencyName string
}

// Error implements the error interface.
func (dependencyError UnknownDependencyError) Error() string {
	return fmt.Sprintf(unknownDependencyErrorTemplateConstant, dependencyError.TaskName, dependencyError.DependencyName)
}

// DependencyCycleError indicates task dependencies form a cycle.
type DependencyCycleError struct {
	TaskName string
}

// Error implements the error interface.
func (cycleError DependencyCycleError) Error() string {
	return fmt.Sprintf(dependencyCycleErrorTemplateConstant, cycleError.TaskName)
}

// Catalog is an immutable mapping from task name to task, built once at startup.
type Catalog struct {
	tasksByName map[string]Task
}

// NewCatalog validates the provided definitions and builds an immutable catalog.
func NewCatalog(definitions []Task) (Catalog, error) {
	tasksByName := make(map[string]Task, len(definitions))
	for _, definition := range definitions {
		normalizedName := strings.TrimSpace(definition.Name)
		if len(normalizedName) == 0 {
			return Catalog{}, fmt.Errorf(emptyTaskNameMessageConstant)
		}
		if _, exists := tasksByName[normalizedName]; exists {
			return Catalog{}, DuplicateTaskError{TaskName: normalizedName}
		}
		definition.Name = normalizedName
		tasksByName[normalizedName] = definition
	}

	for _, registeredTask := range tasksByName {
		dependencyName := strings.TrimSpace(registeredTask.DependsOn)
		if len(dependencyName) == 0 {
			continue
		}
		if _, exists := tasksByName[dependencyName]; !exists {
			return Catalog{}, UnknownDependencyError{TaskName: registeredTask.Name, DependencyName: dependencyName}
		}
	}

	catalog := Catalog{tasksByName: tasksByName}
	for taskName := range tasksByName {
		if cycleError := catalog.detectDependencyCycle(taskName); cycleError != nil {
			return Catalog{}, cycleError
		}
	}

	return catalog, nil
}

// Lookup resolves a task by name or reports UnknownTaskError.
func (catalog Catalog) Lookup(taskName string) (Task, error) {
	registeredTask, exists := catalog.tasksByName[strings.TrimSpace(taskName)]
	if !exists {
		return Task{}, UnknownTaskError{TaskName: strings.TrimSpace(taskName)}
	}
	return registeredTask, nil
}

// Contains reports whether the catalog registers the provided task name.
func (catalog Catalog) Contains(taskName string) bool {
	_, exists := catalog.tasksByName[strings.TrimSpace(taskName)]
	return exists
}

// Names returns all registered task names sorted alphabetically.
func (catalog Catalog) Names() []string {
	names := make([]string, 0, len(catalog.tasksByName))
	for taskName := range catalog.tasksByName {
		names = append(names, taskName)
	}
	sort.Strings(names)
	return names
}

// Merge layers override definitions on top of the catalog, replacing tasks that
// share a name and appending new ones. The result is validated as a fresh catalog.
func (catalog Catalog) Merge(overrides []Task) (Catalog, error) {
	merged := make([]Task, 0, len(catalog.tasksByName)+len(overrides))
	overriddenNames := make(map[string]struct{}, len(overrides))
	for _, override := range overrides {
		overriddenNames[strings.TrimSpace(override.Name)] = struct{}{}
	}
	for _, taskName := range catalog.Names() {
		if _, overridden := overriddenNames[taskName]; overridden {
			continue
		}
		merged = append(merged, catalog.tasksByName[taskName])
	}
	merged = append(merged, overrides...)
	return NewCatalog(merged)
}

func (catalog Catalog) detectDependencyCycle(startName string) error {
	visited := make(map[string]struct{})
	currentName := startName
	for {
		if _, seen := visited[currentName]; seen {
			return DependencyCycleError{TaskName: startName}
		}
		visited[currentName] = struct{}{}

		currentTask := catalog.tasksByName[currentName]
		dependencyName := strings.TrimSpace(currentTask.DependsOn)
		if len(dependencyName) == 0 {
			return nil
		}
		currentName = dependencyName
	}
}
