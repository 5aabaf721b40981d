package main

import (
	"os"

	"github.com/taskdo/taskdo/cmd/cli"
)

// main executes the taskdo command-line application.
func main() {
	os.Exit(cli.Execute())
}
