package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/query"
	"github.com/roach88/traiter/internal/store"
)

// latestRun selects the most recent run.
const latestRun = "latest"

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Trait    string
	Record   string
	Run      string
	Min      float64
	Max      float64
	Flags    []string
	Limit    int
}

// QueryRow is one stored trait in query output.
type QueryRow struct {
	Seq      int64    `json:"seq"`
	RunID    string   `json:"run_id"`
	RecordID string   `json:"record_id"`
	ID       string   `json:"id"`
	Trait    ir.Trait `json:"trait"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read stored traits",
		Long: `Read traits stored by extract, filtered by name, record, run, value
range and flags. Results are in extraction order.

--min and --max bound the trait's first value, in canonical units
(millimetres, grams). --run latest selects the most recent run.

Examples:
  traiter query --db ./traits.db --trait body_mass --min 10 --max 20
  traiter query --db ./traits.db --run latest --flag is_range
  traiter query --db ./traits.db --record 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Trait, "trait", "", "trait name")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record ID")
	cmd.Flags().StringVar(&opts.Run, "run", "", `run ID, or "latest"`)
	cmd.Flags().Float64Var(&opts.Min, "min", 0, "lowest value")
	cmd.Flags().Float64Var(&opts.Max, "max", 0, "highest value")
	cmd.Flags().StringSliceVar(&opts.Flags, "flag", nil, "required flag (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (default all)")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	runID := opts.Run
	if runID == latestRun {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
		if len(runs) == 0 {
			return formatter.Success([]QueryRow{}, func(w io.Writer) {
				fmt.Fprintln(w, "No runs in database.")
			})
		}
		runID = runs[len(runs)-1].ID
	}

	q := buildQuery(opts, runID, cmd.Flags().Changed("min"), cmd.Flags().Changed("max"))
	sqlText, args, err := query.Compile(q)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeQuery, "invalid query", err)
	}
	formatter.VerboseLog("SQL: %s %v", sqlText, args)

	stored, err := st.QueryTraits(ctx, sqlText, args...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "query failed", err)
	}

	rows := make([]QueryRow, len(stored))
	for i, s := range stored {
		rows[i] = QueryRow{Seq: s.Seq, RunID: s.RunID, RecordID: s.RecordID, ID: s.ID, Trait: s.Trait}
	}

	return formatter.Success(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No traits found.")
			return
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%6d  %s  %s\n", r.Seq, shortID(r.RecordID), formatTrait(r.Trait))
		}
		fmt.Fprintf(w, "\n%d trait(s)\n", len(rows))
	})
}

// buildQuery turns the flags into a query. Bounds are only set when their
// flags were given, so --min 0 still filters.
func buildQuery(opts *QueryOptions, runID string, hasMin, hasMax bool) query.Select {
	var preds []query.Predicate
	if opts.Trait != "" {
		preds = append(preds, query.Equals{Field: "trait", Value: opts.Trait})
	}
	if opts.Record != "" {
		preds = append(preds, query.Equals{Field: "record_id", Value: opts.Record})
	}
	if runID != "" {
		preds = append(preds, query.Equals{Field: "run_id", Value: runID})
	}
	if hasMin || hasMax {
		r := query.Range{Field: "value"}
		if hasMin {
			r.Min = query.Float(opts.Min)
		}
		if hasMax {
			r.Max = query.Float(opts.Max)
		}
		preds = append(preds, r)
	}
	for _, f := range opts.Flags {
		preds = append(preds, query.HasFlag{Flag: f})
	}

	q := query.Select{Limit: opts.Limit}
	switch len(preds) {
	case 0:
	case 1:
		q.Filter = preds[0]
	default:
		q.Filter = query.And{Predicates: preds}
	}
	return q
}

// shortID abbreviates a content hash for text output.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
