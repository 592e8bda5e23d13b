package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/grammars"
)

// GrammarSummary describes one compiled grammar.
type GrammarSummary struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Rules       int           `json:"rules"`
	Scanners    int           `json:"scanners"`
	Replacers   int           `json:"replacers"`
	Producers   int           `json:"producers"`
	Codes       []RuleSummary `json:"codes,omitempty"`
}

// RuleSummary is one compiled rule and its token code.
type RuleSummary struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Pattern string `json:"pattern"`
}

// summarize describes g. withCodes lists every rule's token code.
func summarize(g *compiler.Grammar, description string, withCodes bool) GrammarSummary {
	s := GrammarSummary{
		Name:        g.Name,
		Description: description,
		Rules:       len(g.Rules()),
		Scanners:    len(g.Scanner),
		Replacers:   len(g.Replacers),
		Producers:   len(g.Producers),
	}
	if withCodes {
		for _, a := range g.Alternatives() {
			s.Codes = append(s.Codes, RuleSummary{
				Code:    a.Code,
				Name:    a.Rule.Name,
				Kind:    a.Rule.Kind.String(),
				Pattern: a.Pattern,
			})
		}
	}
	return s
}

// NewGrammarsCommand creates the grammars command.
func NewGrammarsCommand(rootOpts *RootOptions) *cobra.Command {
	var codes bool

	cmd := &cobra.Command{
		Use:   "grammars",
		Short: "List built-in grammars",
		Long: `List the grammars built into traiter.

Every grammar is compiled, so a listing that succeeds also shows the
built-ins are valid. Use --codes to print each rule's token code.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrammars(rootOpts, codes, cmd)
		},
	}

	cmd.Flags().BoolVar(&codes, "codes", false, "list each rule's token code")

	return cmd
}

func runGrammars(opts *RootOptions, codes bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	summaries := []GrammarSummary{}
	for _, b := range grammars.Builtins() {
		g, err := b.Compile()
		if err != nil {
			return formatter.Fail(ExitFailure, compiler.ErrorCode(err), fmt.Sprintf("grammar %s does not compile", b.Name), err)
		}
		formatter.VerboseLog("Compiled %s: %d alternative(s)", b.Name, len(g.Alternatives()))
		summaries = append(summaries, summarize(g, b.Description, codes))
	}

	return formatter.Success(summaries, func(w io.Writer) {
		for _, s := range summaries {
			writeSummary(w, s)
		}
	})
}

func writeSummary(w io.Writer, s GrammarSummary) {
	fmt.Fprintf(w, "%s: %d rule(s), %d producer(s)\n", s.Name, s.Rules, s.Producers)
	if s.Description != "" {
		fmt.Fprintf(w, "  %s\n", s.Description)
	}
	for _, c := range s.Codes {
		fmt.Fprintf(w, "  %s %-9s %s\n", c.Code, c.Kind, c.Name)
	}
}
