package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/roach88/traiter/internal/engine"
	"github.com/roach88/traiter/internal/grammars"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/store"
	"github.com/roach88/traiter/internal/testutil"
)

// defaultField is the record field cases are stored under.
const defaultField = "text"

// Harness is the test execution engine.
// It runs scenarios with a fixed run ID and sequence numbers starting at 1.
type Harness struct {
	store     *store.Store
	parsers   []*engine.Parser
	extractor *engine.Extractor
	runID     string
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile built-in grammars and load grammar files
// 2. Record the run in a fresh in-memory store
// 3. Extract every case through the engine and store the traits
// 4. Check each case's expectations
// 5. Evaluate assertions against the result and the store
//
// The returned error reports problems running the scenario; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	gs, err := grammars.Resolve(scenario.Grammars, scenario.Files)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	parsers := make([]*engine.Parser, len(gs))
	names := make([]string, len(gs))
	for i, g := range gs {
		parsers[i] = engine.New(g, engine.WithLogger(logger))
		names[i] = g.Name
	}

	seq := engine.NewSequence(0)
	h := &Harness{
		store:   st,
		parsers: parsers,
		extractor: engine.NewExtractor(parsers,
			engine.WithWorkers(1),
			engine.WithSequence(seq),
			engine.WithExtractLogger(logger)),
		runID:  testutil.NewFixedRunIDs(scenario.RunID).Next(),
		logger: logger,
	}

	ctx := context.Background()
	run := store.Run{ID: h.runID, Grammars: names, EngineVersion: ir.EngineVersion, Seq: seq.Next()}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to write run: %w", err)
	}

	result := NewResult(h.runID)
	if err := h.extract(ctx, scenario.Cases, result); err != nil {
		return nil, fmt.Errorf("failed to extract cases: %w", err)
	}

	for i, c := range scenario.Cases {
		for _, msg := range checkCase(c, result.Cases[i].Traits) {
			result.AddError(fmt.Sprintf("cases[%d] %q: %s", i, c.Text, msg))
		}
	}

	actx := &AssertionContext{
		Ctx:       ctx,
		Store:     st,
		RunID:     h.runID,
		Extractor: h.extractor,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// extract runs every case through the extractor and stores the traits.
// Cases come back in order, so result.Cases lines up with the scenario.
func (h *Harness) extract(ctx context.Context, cases []Case, result *Result) error {
	records := make(chan engine.Record, len(cases))
	for i, c := range cases {
		field := c.Field
		if field == "" {
			field = defaultField
		}
		records <- engine.Record{ID: "case-" + strconv.Itoa(i), Field: field, Text: c.Text}
	}
	close(records)

	return h.extractor.Run(ctx, records, func(e engine.Extraction) error {
		rec := store.Record{SourceID: e.Record.ID, Field: e.Record.Field, Text: e.Record.Text, Seq: e.Seq}
		if err := h.store.WriteExtraction(ctx, h.runID, rec, e.Traits); err != nil {
			return err
		}

		tokens, err := h.tokens(e.Record.Text)
		if err != nil {
			return err
		}
		result.Cases = append(result.Cases, CaseResult{
			Text:   e.Record.Text,
			Seq:    e.Seq,
			Traits: e.Traits,
			Tokens: tokens,
		})

		h.logger.Info("case extracted",
			"record", e.Record.ID,
			"seq", e.Seq,
			"traits", len(e.Traits),
		)
		return nil
	})
}

// tokens renders each grammar's final token stream for text.
func (h *Harness) tokens(text string) (map[string][]string, error) {
	out := make(map[string][]string, len(h.parsers))
	for _, p := range h.parsers {
		tr, err := p.Trace(text)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", p.Grammar().Name, err)
		}
		toks := []string{}
		for _, t := range tr.Final() {
			toks = append(toks, fmt.Sprintf("%s %d:%d", t.Rule, t.Start, t.End))
		}
		out[p.Grammar().Name] = toks
	}
	return out, nil
}

// checkCase compares a case's traits with its expectations.
func checkCase(c Case, traits []ir.Trait) []string {
	var errs []string
	if c.Count != nil && len(traits) != *c.Count {
		errs = append(errs, fmt.Sprintf("expected %d trait(s), got %d: %s", *c.Count, len(traits), describe(traits)))
	}
	for _, want := range c.Expect {
		if !slices.ContainsFunc(traits, func(t ir.Trait) bool { return matchTrait(want, t) }) {
			errs = append(errs, fmt.Sprintf("expected %s, got %s", want, describe(traits)))
		}
	}
	return errs
}

// valueTolerance absorbs float noise from unit conversion.
const valueTolerance = 1e-6

// matchTrait reports whether t satisfies every field want sets.
func matchTrait(want ExpectTrait, t ir.Trait) bool {
	if want.Trait != t.Name {
		return false
	}
	if want.Start != nil && *want.Start != t.Start {
		return false
	}
	if want.End != nil && *want.End != t.End {
		return false
	}
	if want.Values != nil {
		if len(want.Values) != len(t.Values) {
			return false
		}
		for i, v := range want.Values {
			if math.Abs(v-t.Values[i]) > valueTolerance {
				return false
			}
		}
	}
	if want.Units != nil && !slices.Equal(want.Units, t.Units) {
		return false
	}
	if want.Label != "" && want.Label != t.Label {
		return false
	}
	for _, f := range want.Flags {
		if !t.Flag(f) {
			return false
		}
	}
	return true
}

func (e ExpectTrait) String() string {
	s := e.Trait
	if e.Start != nil && e.End != nil {
		s += fmt.Sprintf(" [%d:%d]", *e.Start, *e.End)
	}
	if e.Values != nil {
		s += fmt.Sprintf(" %v", e.Values)
	}
	if e.Label != "" {
		s += " " + e.Label
	}
	return s
}

func describe(traits []ir.Trait) string {
	if len(traits) == 0 {
		return "no traits"
	}
	var s string
	for i, t := range traits {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s [%d:%d]", t.Name, t.Start, t.End)
		if len(t.Values) > 0 {
			s += fmt.Sprintf(" %v", t.Values)
		}
		if t.Label != "" {
			s += " " + t.Label
		}
	}
	return s
}
