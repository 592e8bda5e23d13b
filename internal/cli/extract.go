package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/engine"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/store"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	GrammarFlags
	Database    string
	InputFormat string
	Columns     []string
	IDColumn    string
	Workers     int

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7RunIDs.
	RunIDs engine.RunIDs
}

// ExtractResult summarizes one extraction run.
type ExtractResult struct {
	RunID    string   `json:"run_id"`
	Grammars []string `json:"grammars"`
	Records  int      `json:"records"`
	Traits   int      `json:"traits"`
	FirstSeq int64    `json:"first_seq"`
	LastSeq  int64    `json:"last_seq"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	return newExtractCommand(&ExtractOptions{RootOptions: rootOpts})
}

func newExtractCommand(opts *ExtractOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract traits from a batch of records into a database",
		Long: `Run grammars over every record of an input file and store the traits.

The input is a CSV file or plain text with one record per line; "-" reads
stdin. CSV files either have id, field and text columns, or one row per
record with the fields to extract named by --columns. gzip and zstd
compressed inputs are detected and decompressed.

Each invocation is one run with a fresh time-ordered run ID. Sequence
numbers continue from the highest already in the database, so rows from
successive runs never interleave.

Examples:
  traiter extract --db ./traits.db notes.txt
  traiter extract --db ./traits.db -g body_mass,sex records.csv.gz
  traiter extract --db ./traits.db --columns remarks,dynamicproperties --id-column occurrenceid occurrences.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	opts.GrammarFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", InputAuto, "input format (auto|csv|lines)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "CSV columns to extract, one field each")
	cmd.Flags().StringVar(&opts.IDColumn, "id-column", "id", "CSV column holding the record ID")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parsing goroutines (default GOMAXPROCS)")

	return cmd
}

func runExtract(opts *ExtractOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := formatter.Logger()

	format := detectFormat(input, opts.InputFormat)
	if format != InputCSV && format != InputLines {
		return formatter.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("unknown input format %q", opts.InputFormat), nil)
	}

	gs, err := opts.compile()
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrorCode(err), "failed to compile grammars", err)
	}
	parsers := make([]*engine.Parser, len(gs))
	names := make([]string, len(gs))
	for i, g := range gs {
		parsers[i] = engine.New(g, engine.WithLogger(logger))
		names[i] = g.Name
	}

	in, err := openInput(input)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "failed to open input", err)
	}
	defer in.Close()

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	version, err := st.Version(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read schema version", err)
	}
	logger.Debug("database ready", "path", opts.Database, "schema_version", version)

	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read sequence", err)
	}
	seq := engine.NewSequence(maxSeq)

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7RunIDs{}
	}
	run := store.Run{ID: runIDs.Next(), Grammars: names, EngineVersion: ir.EngineVersion, Seq: seq.Next()}
	if err := st.WriteRun(ctx, run); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to write run", err)
	}
	logger.Info("run started", "run_id", run.ID, "grammars", names, "seq", run.Seq)

	result := ExtractResult{RunID: run.ID, Grammars: names}

	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()
	records := make(chan engine.Record, 64)
	readErr := make(chan error, 1)
	reader := recordReader{format: format, columns: opts.Columns, idCol: opts.IDColumn}
	go func() {
		readErr <- reader.read(readCtx, in, records)
	}()

	extractor := engine.NewExtractor(parsers,
		engine.WithWorkers(opts.Workers),
		engine.WithSequence(seq),
		engine.WithExtractLogger(logger))

	runErr := extractor.Run(ctx, records, func(e engine.Extraction) error {
		rec := store.Record{SourceID: e.Record.ID, Field: e.Record.Field, Text: e.Record.Text, Seq: e.Seq}
		if err := st.WriteExtraction(ctx, run.ID, rec, e.Traits); err != nil {
			return err
		}
		if result.Records == 0 {
			result.FirstSeq = e.Seq
		}
		result.Records++
		result.Traits += len(e.Traits)
		result.LastSeq = e.Seq
		logger.Debug("record extracted", "record", e.Record.ID, "field", e.Record.Field, "seq", e.Seq, "traits", len(e.Traits))
		return nil
	})
	cancelRead()
	rErr := <-readErr

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "extraction failed", runErr)
	}
	if rErr != nil && !errors.Is(rErr, context.Canceled) {
		return formatter.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("failed to read input after %d record(s)", result.Records), rErr)
	}
	if ctx.Err() != nil {
		return formatter.Fail(ExitFailure, ErrCodeInput, fmt.Sprintf("interrupted after %d record(s)", result.Records), ctx.Err())
	}

	logger.Info("run finished", "run_id", run.ID, "records", result.Records, "traits", result.Traits)

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Run %s\n", result.RunID)
		fmt.Fprintf(w, "  %d record(s), %d trait(s)\n", result.Records, result.Traits)
		if result.Records > 0 {
			fmt.Fprintf(w, "  seq %d-%d\n", result.FirstSeq, result.LastSeq)
		}
	})
}
