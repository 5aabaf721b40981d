package tasks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	taskfileReadErrorTemplateConstant   = "unable to read task file %s: %w"
	taskfileDecodeErrorTemplateConstant = "unable to decode task file %s: %w"
)

// Taskfile is a standalone YAML document defining tasks and variable defaults.
type Taskfile struct {
	Variables map[string]string   `yaml:"variables"`
	Tasks     []TaskConfiguration `yaml:"tasks"`
}

// LoadTaskfile reads and strictly decodes the task file at the provided path.
// Unknown fields are rejected so typos surface immediately.
func LoadTaskfile(taskfilePath string) (Taskfile, error) {
	taskfileContent, readError := os.ReadFile(taskfilePath)
	if readError != nil {
		return Taskfile{}, fmt.Errorf(taskfileReadErrorTemplateConstant, taskfilePath, readError)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(taskfileContent))
	decoder.KnownFields(true)

	parsed := Taskfile{}
	decodeError := decoder.Decode(&parsed)
	if decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return Taskfile{}, fmt.Errorf(taskfileDecodeErrorTemplateConstant, taskfilePath, decodeError)
	}

	return parsed, nil
}
