package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/engine"
	"github.com/roach88/traiter/internal/grammars"
	"github.com/roach88/traiter/internal/ir"
)

// GrammarFlags selects the grammars a command runs. With neither set,
// every built-in grammar runs.
type GrammarFlags struct {
	Names []string
	Files []string
}

func (g *GrammarFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&g.Names, "grammars", "g", nil, "built-in grammars to run (default all)")
	cmd.Flags().StringSliceVar(&g.Files, "file", nil, "CUE grammar file to load (repeatable)")
}

// compile resolves the selected grammars.
func (g *GrammarFlags) compile() ([]*compiler.Grammar, error) {
	names := g.Names
	if len(names) == 0 && len(g.Files) == 0 {
		for _, b := range grammars.Builtins() {
			names = append(names, b.Name)
		}
	}
	return grammars.Resolve(names, g.Files)
}

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	GrammarFlags
	Trace bool
}

// ParseResult is the output of one parse.
type ParseResult struct {
	Text   string          `json:"text"`
	Traits []ir.Trait      `json:"traits"`
	Traces []*engine.Trace `json:"traces,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Extract traits from one text",
		Long: `Run grammars over a single text and print the traits found.

With --trace the token stream is printed after the scan, after every
replace pass that changed it, and as handed to the producers.

Examples:
  traiter parse "body mass=20 g"
  traiter parse -g total_length --trace "TL 120-130 mm"
  traiter parse --file ear_length.cue "ear from notch 15 mm"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	opts.GrammarFlags.register(cmd)
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print token streams for every phase")

	return cmd
}

func runParse(opts *ParseOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := formatter.Logger()

	gs, err := opts.compile()
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrorCode(err), "failed to compile grammars", err)
	}

	result := ParseResult{Text: text, Traits: []ir.Trait{}}
	for _, g := range gs {
		p := engine.New(g, engine.WithLogger(logger))
		if !opts.Trace {
			result.Traits = append(result.Traits, p.Parse(text)...)
			continue
		}
		tr, err := p.Trace(text)
		if err != nil {
			logger.Warn("parse degraded", "grammar", g.Name, "error", err)
		}
		result.Traces = append(result.Traces, tr)
		result.Traits = append(result.Traits, tr.Traits...)
	}
	ir.SortTraits(result.Traits)

	return formatter.Success(result, func(w io.Writer) {
		for i, tr := range result.Traces {
			writeTrace(w, gs[i].Name, tr)
		}
		if len(result.Traits) == 0 {
			fmt.Fprintln(w, "No traits found.")
			return
		}
		for _, t := range result.Traits {
			fmt.Fprintln(w, formatTrait(t))
		}
	})
}

// formatTrait renders a trait on one line:
//
//	body_mass [0:14] 20 g is_range
func formatTrait(t ir.Trait) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%d:%d]", t.Name, t.Start, t.End)
	for _, v := range t.Values {
		b.WriteString(" " + strconv.FormatFloat(v, 'f', -1, 64))
	}
	if len(t.Units) > 0 {
		b.WriteString(" " + strings.Join(t.Units, ","))
	}
	if t.Label != "" {
		b.WriteString(" " + t.Label)
	}
	flags := make([]string, 0, len(t.Flags))
	for name, set := range t.Flags {
		if set {
			flags = append(flags, name)
		}
	}
	slices.Sort(flags)
	for _, f := range flags {
		b.WriteString(" " + f)
	}
	return b.String()
}

func writeTrace(w io.Writer, grammar string, tr *engine.Trace) {
	fmt.Fprintf(w, "grammar %s\n", grammar)
	fmt.Fprintf(w, "  scan:    %s\n", formatTokens(tr.Scanned))
	for i, pass := range tr.Passes {
		fmt.Fprintf(w, "  pass %d:  %s\n", i+1, formatTokens(pass))
	}
	fmt.Fprintf(w, "  produce: %s\n", formatTokens(tr.Produced))
	fmt.Fprintf(w, "  traits %d, rejected %d, vetoed %d\n\n", len(tr.Traits), tr.Rejected, tr.Vetoed)
}

func formatTokens(tokens []*ir.Token) string {
	if len(tokens) == 0 {
		return "-"
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = fmt.Sprintf("%s %d:%d", t.Rule, t.Start, t.End)
	}
	return strings.Join(parts, ", ")
}
