package tasks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	variableReferenceOpeningConstant        = "$("
	variableReferenceClosingConstant        = ")"
	overrideSeparatorConstant               = "="
	invalidVariableNameTemplateConstant     = "variable name %q must match %s"
	invalidOverrideArgumentTemplateConstant = "argument %q is not a NAME=value override"
)

var variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// InvalidVariableNameError indicates an override used a malformed variable name.
type InvalidVariableNameError struct {
	VariableName string
}

// Error implements the error interface.
func (nameError InvalidVariableNameError) Error() string {
	return fmt.Sprintf(invalidVariableNameTemplateConstant, nameError.VariableName, variableNamePattern.String())
}

// InvalidOverrideError indicates a command-line argument could not be parsed as NAME=value.
type InvalidOverrideError struct {
	Argument string
}

// Error implements the error interface.
func (overrideError InvalidOverrideError) Error() string {
	return fmt.Sprintf(invalidOverrideArgumentTemplateConstant, overrideError.Argument)
}

// Bindings maps variable names to values, read-only once resolved per invocation.
type Bindings struct {
	values map[string]string
}

// NewBindings builds bindings from layered sources; later layers win.
func NewBindings(layers ...map[string]string) Bindings {
	values := make(map[string]string)
	for _, layer := range layers {
		for variableName, variableValue := range layer {
			values[strings.TrimSpace(variableName)] = variableValue
		}
	}
	return Bindings{values: values}
}

// WithOverrides returns new bindings layering the provided overrides on top.
func (bindings Bindings) WithOverrides(overrides map[string]string) Bindings {
	return NewBindings(bindings.values, overrides)
}

// Lookup returns the value bound to the provided variable name.
func (bindings Bindings) Lookup(variableName string) (string, bool) {
	value, exists := bindings.values[variableName]
	return value, exists
}

// Snapshot returns a copy of the resolved bindings.
func (bindings Bindings) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(bindings.values))
	for variableName, variableValue := range bindings.values {
		snapshot[variableName] = variableValue
	}
	return snapshot
}

// Names returns the bound variable names sorted alphabetically.
func (bindings Bindings) Names() []string {
	names := make([]string, 0, len(bindings.values))
	for variableName := range bindings.values {
		names = append(names, variableName)
	}
	sort.Strings(names)
	return names
}

// Expand substitutes $(NAME) references in the provided recipe line. Unbound
// references expand to the empty string, matching make semantics.
func (bindings Bindings) Expand(recipeLine string) string {
	expanded := strings.Builder{}
	remaining := recipeLine
	for {
		openingIndex := strings.Index(remaining, variableReferenceOpeningConstant)
		if openingIndex < 0 {
			expanded.WriteString(remaining)
			return expanded.String()
		}
		closingIndex := strings.Index(remaining[openingIndex:], variableReferenceClosingConstant)
		if closingIndex < 0 {
			expanded.WriteString(remaining)
			return expanded.String()
		}
		closingIndex += openingIndex

		expanded.WriteString(remaining[:openingIndex])
		referenceName := remaining[openingIndex+len(variableReferenceOpeningConstant) : closingIndex]
		if variableNamePattern.MatchString(referenceName) {
			expanded.WriteString(bindings.values[referenceName])
		} else {
			expanded.WriteString(remaining[openingIndex : closingIndex+1])
		}
		remaining = remaining[closingIndex+1:]
	}
}

// ParseOverrides splits command-line arguments into NAME=value overrides and
// positional arguments, preserving positional order.
func ParseOverrides(arguments []string) (map[string]string, []string, error) {
	overrides := make(map[string]string)
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		separatorIndex := strings.Index(argument, overrideSeparatorConstant)
		if separatorIndex <= 0 {
			positional = append(positional, argument)
			continue
		}
		variableName := strings.TrimSpace(argument[:separatorIndex])
		if !variableNamePattern.MatchString(variableName) {
			return nil, nil, InvalidVariableNameError{VariableName: variableName}
		}
		overrides[variableName] = argument[separatorIndex+1:]
	}
	return overrides, positional, nil
}
