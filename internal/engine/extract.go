package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/traiter/internal/ir"
)

// Record is one field of one source record queued for extraction.
type Record struct {
	ID    string
	Field string
	Text  string
}

// Extraction is the traits found in one record.
type Extraction struct {
	Record Record
	Seq    int64
	Traits []ir.Trait
}

// Extractor runs a set of parsers over a stream of records on a pool of
// workers. Results reach the sink one at a time, in input order, stamped
// with increasing sequence numbers.
type Extractor struct {
	parsers []*Parser
	workers int
	seq     *Sequence
	logger  *slog.Logger
}

// ExtractOption configures an Extractor.
type ExtractOption func(*Extractor)

// WithWorkers sets the number of parsing goroutines.
// Defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) ExtractOption {
	return func(x *Extractor) {
		if n > 0 {
			x.workers = n
		}
	}
}

// WithSequence sets where sequence numbering continues from.
func WithSequence(s *Sequence) ExtractOption {
	return func(x *Extractor) {
		x.seq = s
	}
}

// WithExtractLogger sets the logger for run progress.
func WithExtractLogger(l *slog.Logger) ExtractOption {
	return func(x *Extractor) {
		x.logger = l
	}
}

// NewExtractor creates an extractor over parsers. Each record is parsed by
// every parser and the traits are merged in start order.
func NewExtractor(parsers []*Parser, opts ...ExtractOption) *Extractor {
	x := &Extractor{
		parsers: parsers,
		workers: runtime.GOMAXPROCS(0),
		seq:     NewSequence(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract parses one text with every parser.
func (x *Extractor) Extract(text string) []ir.Trait {
	var traits []ir.Trait
	for _, p := range x.parsers {
		traits = append(traits, p.Parse(text)...)
	}
	ir.SortTraits(traits)
	if traits == nil {
		traits = []ir.Trait{}
	}
	return traits
}

// Run reads records until the channel closes or ctx is done, and calls sink
// with each extraction in input order. sink is never called concurrently.
//
// Run returns the first sink error, which stops the run, or ctx.Err() if
// the context ended first.
func (x *Extractor) Run(ctx context.Context, records <-chan Record, sink func(Extraction) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		n   int
		rec Record
	}
	type done struct {
		n int
		e Extraction
	}

	jobs := make(chan job)
	results := make(chan done)

	var wg sync.WaitGroup
	for range x.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				d := done{n: j.n, e: Extraction{Record: j.rec, Traits: x.Extract(j.rec.Text)}}
				select {
				case results <- d:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 0; ; n++ {
			var rec Record
			select {
			case <-runCtx.Done():
				return
			case r, ok := <-records:
				if !ok {
					return
				}
				rec = r
			}
			select {
			case jobs <- job{n: n, rec: rec}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]Extraction)
	next := 0
	var sinkErr error
	for d := range results {
		if sinkErr != nil {
			continue
		}
		pending[d.n] = d.e
		for {
			e, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			e.Seq = x.seq.Next()
			if err := sink(e); err != nil {
				sinkErr = &RuntimeError{Code: ErrCodeSinkFailed, Message: err.Error(), Err: err}
				cancel()
				break
			}
		}
	}

	x.logger.Debug("extraction finished",
		"records", next,
		"last_seq", x.seq.Current())

	if sinkErr != nil {
		return sinkErr
	}
	return ctx.Err()
}
