package tasks

import "strings"

const ignoreFailurePrefixConstant = "-"

// TaskConfiguration captures a task definition from the configuration file.
type TaskConfiguration struct {
	Name      string            `mapstructure:"name"      yaml:"name"`
	Help      string            `mapstructure:"help"      yaml:"help"`
	Needs     string            `mapstructure:"needs"     yaml:"needs"`
	Action    string            `mapstructure:"action"    yaml:"action"`
	Variables map[string]string `mapstructure:"variables" yaml:"variables"`
	Steps     []string          `mapstructure:"steps"     yaml:"steps"`
}

// Task converts the configuration entry into a catalog task. A leading "-" on
// a step line marks the step as ignore-failure, matching make recipe semantics.
func (configuration TaskConfiguration) Task() Task {
	steps := make([]Step, 0, len(configuration.Steps))
	for _, configuredLine := range configuration.Steps {
		trimmedLine := strings.TrimSpace(configuredLine)
		if len(trimmedLine) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedLine, ignoreFailurePrefixConstant) {
			steps = append(steps, Step{
				ScriptLine:    strings.TrimSpace(strings.TrimPrefix(trimmedLine, ignoreFailurePrefixConstant)),
				IgnoreFailure: true,
			})
			continue
		}
		steps = append(steps, Step{ScriptLine: trimmedLine})
	}

	return Task{
		Name:      strings.TrimSpace(configuration.Name),
		Help:      strings.TrimSpace(configuration.Help),
		DependsOn: strings.TrimSpace(configuration.Needs),
		Action:    strings.TrimSpace(configuration.Action),
		Variables: configuration.Variables,
		Steps:     steps,
	}
}

// ConvertConfigurations maps configuration entries into catalog tasks.
func ConvertConfigurations(configurations []TaskConfiguration) []Task {
	converted := make([]Task, 0, len(configurations))
	for _, configuration := range configurations {
		converted = append(converted, configuration.Task())
	}
	return converted
}
