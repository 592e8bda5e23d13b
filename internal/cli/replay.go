package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/engine"
	"github.com/roach88/traiter/internal/grammars"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string   // optional - specific run only
	Files    []string // grammar files for runs that used them
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string   `json:"run_id"`
	Grammars      []string `json:"grammars"`
	EngineVersion string   `json:"engine_version"`
	Records       int      `json:"records"`
	StoredTraits  int      `json:"stored_traits"`
	Replayed      int      `json:"replayed_traits"`
	Mismatched    []string `json:"mismatched_records,omitempty"`
	Deterministic bool     `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-extract stored runs and verify determinism",
		Long: `Re-extract every record a run read, with the grammars it used, and
compare the traits with the stored ones by content ID.

Built-in grammars are found by name. Runs that used grammar files need
the same files passed with --file.

Exit codes:
  0 - Every run reproduced exactly
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown grammar, etc.)

Examples:
  traiter replay --db ./traits.db
  traiter replay --db ./traits.db --run 01928c7e-...
  traiter replay --db ./traits.db --file ear_length.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().StringSliceVar(&opts.Files, "file", nil, "CUE grammar file used by the runs (repeatable)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := formatter.Logger()
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
	}

	if len(runs) == 0 {
		result := ReplayResult{Runs: []ReplayRunResult{}, AllDeterministic: true}
		return formatter.Success(result, func(w io.Writer) {
			fmt.Fprintln(w, "No runs found in database.")
		})
	}

	fileGrammars, err := loadFileGrammars(opts.Files)
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrorCode(err), "failed to load grammar files", err)
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		if run.EngineVersion != ir.EngineVersion {
			logger.Warn("run used a different engine version",
				"run_id", run.ID,
				"stored", run.EngineVersion,
				"current", ir.EngineVersion)
		}
		gs, err := grammarsForRun(run, fileGrammars)
		if err != nil {
			return formatter.Fail(ExitCommandError, compiler.ErrorCode(err), fmt.Sprintf("run %s", run.ID), err)
		}
		runResult, err := replayRun(ctx, st, run, gs, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		formatter.VerboseLog("Replayed %s: %d record(s)", run.ID, runResult.Records)

		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if err := formatter.Success(result, func(w io.Writer) { writeReplayText(w, result) }); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// loadFileGrammars compiles every grammar in files, keyed by name.
func loadFileGrammars(files []string) (map[string]*compiler.Grammar, error) {
	out := map[string]*compiler.Grammar{}
	if len(files) == 0 {
		return out, nil
	}
	gs, err := grammars.Resolve(nil, files)
	if err != nil {
		return nil, err
	}
	for _, g := range gs {
		out[g.Name] = g
	}
	return out, nil
}

// grammarsForRun finds the grammars a run used, in the order it used them.
// Grammar files take precedence over built-ins of the same name.
func grammarsForRun(run store.Run, files map[string]*compiler.Grammar) ([]*compiler.Grammar, error) {
	gs := make([]*compiler.Grammar, 0, len(run.Grammars))
	for _, name := range run.Grammars {
		if g, ok := files[name]; ok {
			gs = append(gs, g)
			continue
		}
		b, ok := grammars.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("grammar %q is neither built in nor in --file", name)
		}
		g, err := b.Compile()
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		gs = append(gs, g)
	}
	return gs, nil
}

// replayRun re-extracts a run's records and compares trait IDs per record.
func replayRun(ctx context.Context, st *store.Store, run store.Run, gs []*compiler.Grammar, logger *slog.Logger) (ReplayRunResult, error) {
	recs, err := st.ReadRunRecords(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}
	stored, err := st.ReadTraits(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	storedIDs := map[string][]string{}
	for _, s := range stored {
		storedIDs[s.RecordID] = append(storedIDs[s.RecordID], s.ID)
	}

	parsers := make([]*engine.Parser, len(gs))
	for i, g := range gs {
		parsers[i] = engine.New(g, engine.WithLogger(logger))
	}
	extractor := engine.NewExtractor(parsers, engine.WithExtractLogger(logger))

	res := ReplayRunResult{
		RunID:         run.ID,
		Grammars:      run.Grammars,
		EngineVersion: run.EngineVersion,
		Records:       len(recs),
		StoredTraits:  len(stored),
		Deterministic: true,
	}
	for _, rec := range recs {
		traits := extractor.Extract(rec.Text)
		res.Replayed += len(traits)

		ids := make([]string, 0, len(traits))
		for _, t := range traits {
			id, err := ir.TraitID(rec.ID, t)
			if err != nil {
				return ReplayRunResult{}, err
			}
			ids = append(ids, id)
		}
		// The store keeps one row per content ID.
		slices.Sort(ids)
		ids = slices.Compact(ids)
		want := slices.Clone(storedIDs[rec.ID])
		slices.Sort(want)

		if !slices.Equal(ids, want) {
			logger.Debug("record differs", "run_id", run.ID, "record", rec.ID, "stored", len(want), "replayed", len(ids))
			res.Mismatched = append(res.Mismatched, rec.ID)
			res.Deterministic = false
		}
	}
	return res, nil
}

func writeReplayText(w io.Writer, result ReplayResult) {
	for _, r := range result.Runs {
		mark := "✓"
		if !r.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (%v)\n", mark, r.RunID, r.Grammars)
		fmt.Fprintf(w, "  %d record(s), %d stored trait(s), %d replayed\n", r.Records, r.StoredTraits, r.Replayed)
		for _, id := range r.Mismatched {
			fmt.Fprintf(w, "  differs: %s\n", id)
		}
	}
	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintf(w, "✓ %d run(s) reproduced exactly\n", result.TotalRuns)
		return
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
}
