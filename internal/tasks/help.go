package tasks

import (
	"fmt"
	"io"
)

const (
	helpListingHeaderConstant      = "Available tasks:"
	helpListingRowTemplateConstant = "  %-18s %s\n"
)

// RenderTaskListing writes the sorted two-column task listing. Only tasks
// carrying a help string appear, each exactly once.
func RenderTaskListing(catalog Catalog, writer io.Writer) error {
	if _, writeError := fmt.Fprintln(writer, helpListingHeaderConstant); writeError != nil {
		return writeError
	}
	for _, taskName := range catalog.Names() {
		registeredTask, lookupError := catalog.Lookup(taskName)
		if lookupError != nil {
			return lookupError
		}
		if len(registeredTask.Help) == 0 {
			continue
		}
		if _, writeError := fmt.Fprintf(writer, helpListingRowTemplateConstant, registeredTask.Name, registeredTask.Help); writeError != nil {
			return writeError
		}
	}
	return nil
}
