// traiter - extract measured traits from free text
//
// Usage:
//
//	traiter grammars [--codes]                   List built-in grammars
//	traiter parse [-g names] [--trace] <text>    Parse one text
//	traiter compile <grammar-dir>                Check CUE grammar files
//	traiter extract --db <path> <input>          Extract a batch into SQLite
//	traiter query --db <path> [filters]          Read stored traits
//	traiter replay --db <path>                   Verify stored runs reproduce
//	traiter test <scenarios>...                  Run YAML scenarios
//
// Every command takes --format json for machine-readable output.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/traiter/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Flag and argument errors from cobra itself
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
