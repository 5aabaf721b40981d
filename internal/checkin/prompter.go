package checkin

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const emptyCommitMessageErrorConstant = "commit message must not be empty"

// MessagePrompter collects a commit message from the operator.
type MessagePrompter interface {
	PromptForMessage(prompt string) (string, error)
}

// IOMessagePrompter reads a single-line commit message from an io.Reader.
type IOMessagePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOMessagePrompter constructs a prompter from the provided reader and writer.
func NewIOMessagePrompter(input io.Reader, output io.Writer) *IOMessagePrompter {
	return &IOMessagePrompter{reader: bufio.NewReader(input), writer: output}
}

// PromptForMessage writes the prompt and returns the trimmed response line.
// An empty response is rejected so commits never carry blank subjects.
func (prompter *IOMessagePrompter) PromptForMessage(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}

	trimmedResponse := strings.TrimSpace(response)
	if len(trimmedResponse) == 0 {
		return "", errors.New(emptyCommitMessageErrorConstant)
	}
	return trimmedResponse, nil
}
