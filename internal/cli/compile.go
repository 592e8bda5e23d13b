package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/grammars"
	"github.com/roach88/traiter/internal/rules"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled grammars of a directory.
type CompilationResult struct {
	Files    int              `json:"files"`
	Grammars []GrammarSummary `json:"grammars"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <grammar-dir>",
		Short: "Compile CUE grammar files",
		Long: `Load the CUE grammar files in a directory and compile every grammar.

Grammar files may extend the built-in grammars and use their actions and
fix-ups. Every error is reported, not just the first, and each compiled
grammar is listed with its rules and their token codes.

Examples:
  traiter compile ./grammars
  traiter compile ./grammars --output compiled.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := compiler.LoadDir(dir, grammars.Catalog())

	// Directory not found, no files, unparseable CUE
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *compiler.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCompileError(formatter, compiler.ErrorCode(loadErrors[0]), loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	result := &CompilationResult{Files: loadResult.FileCount, Grammars: []GrammarSummary{}}
	errs := loadErrors
	for _, def := range loadResult.Definitions {
		formatter.VerboseLog("Compiling grammar: %s", def.Name)
		g, err := def.Compile()
		if err != nil {
			errs = append(errs, expandErrors(def.Name, err)...)
			continue
		}
		result.Grammars = append(result.Grammars, summarize(g, "", true))
	}

	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Compiled %d grammar(s) from %d file(s)\n\n", len(result.Grammars), result.Files)
		for _, s := range result.Grammars {
			writeSummary(w, s)
			fmt.Fprintln(w)
		}
		if opts.Output != "" {
			fmt.Fprintf(w, "Wrote compiled grammars to %s\n", opts.Output)
		}
	})
}

// grammarError ties a rule configuration error to the grammar it came from.
type grammarError struct {
	grammar string
	err     *rules.ConfigError
}

func (e *grammarError) Error() string {
	return fmt.Sprintf("grammar %s: %v", e.grammar, e.err)
}

func (e *grammarError) Unwrap() error {
	return e.err
}

// expandErrors splits a compile failure into one error per configuration
// problem, each naming the grammar.
func expandErrors(grammar string, err error) []error {
	ces := rules.ConfigErrors(err)
	if len(ces) == 0 {
		return []error{fmt.Errorf("grammar %s: %w", grammar, err)}
	}
	out := make([]error, len(ces))
	for i, ce := range ces {
		out[i] = &grammarError{grammar: grammar, err: ce}
	}
	return out
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{
				Code:    compiler.ErrorCode(err),
				Message: err.Error(),
			}
		}

		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				compileErr.Pos.Filename(),
				compileErr.Pos.Line(),
				compileErr.Pos.Column())
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", compiler.ErrorCode(err), compileErr.Field, compileErr.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %v\n\n", compiler.ErrorCode(err), err)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
