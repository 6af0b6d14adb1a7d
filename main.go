// The main package for the index-inspector executable.
package main

import (
	"github.com/JakeFAU/index-inspector/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
