package analysis

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
)

// Entry is the outcome of one configuration.
type Entry struct {
	Configuration featuremodel.Configuration
	Reliability   float64
	Err           error
}

// Invalid reports whether the configuration violates the feature model.
func (e Entry) Invalid() bool {
	return errors.Is(e.Err, errors.ErrCodeInvalidConfiguration)
}

// Stats summarizes the work of an analysis.
type Stats struct {
	Configurations   int
	Failures         int
	SolvedFormulas   int64
	CheckerCalls     int64
	CheckerCacheHits int64
	DerivedModels    int64
	ReusedSubResults int64
}

// counters are updated concurrently while an analysis runs and, for lazy
// strategies, while its results are read.
type counters struct {
	solved   atomic.Int64
	checks   atomic.Int64
	hits     atomic.Int64
	derived  atomic.Int64
	reused   atomic.Int64
	failures atomic.Int64
}

// Results maps configurations to their reliability.
//
// Results of lazy strategies hold the family formula and solve a
// configuration the first time it is asked for; the others are complete on
// return from [Analyzer.Evaluate]. Results are safe for concurrent use.
type Results struct {
	strategy Strategy
	formula  string
	inputs   []featuremodel.Configuration
	fm       *featuremodel.FeatureModel
	lazy     func(featuremodel.Configuration) (float64, error)
	counts   *counters
	logger   *log.Logger

	mu      sync.Mutex
	entries map[string]Entry
}

func newResults(strategy Strategy, fm *featuremodel.FeatureModel, inputs []featuremodel.Configuration, counts *counters, logger *log.Logger) *Results {
	return &Results{
		strategy: strategy,
		fm:       fm,
		inputs:   inputs,
		counts:   counts,
		logger:   logger,
		entries:  make(map[string]Entry, len(inputs)),
	}
}

// record stores e unless its configuration already has an entry, and
// reports whether it did.
func (r *Results) record(e Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Configuration.Key()]; ok {
		return false
	}
	if e.Err != nil {
		r.counts.failures.Add(1)
	}
	r.entries[e.Configuration.Key()] = e
	return true
}

// Strategy returns the strategy that produced the results.
func (r *Results) Strategy() Strategy { return r.strategy }

// Formula returns the family formula and whether the strategy produced one.
func (r *Results) Formula() (string, bool) {
	return r.formula, r.formula != ""
}

// Result returns the reliability of cfg, or the error recorded for it.
// Configurations naming features outside the feature model fail with an
// UNKNOWN_FEATURE error.
func (r *Results) Result(cfg featuremodel.Configuration) (float64, error) {
	e := r.entry(cfg)
	return e.Reliability, e.Err
}

func (r *Results) entry(cfg featuremodel.Configuration) Entry {
	r.mu.Lock()
	e, ok := r.entries[cfg.Key()]
	r.mu.Unlock()
	if ok {
		return e
	}

	if err := r.fm.CheckFeatures(cfg.Features()...); err != nil {
		return Entry{Configuration: cfg, Err: err}
	}
	if r.lazy == nil {
		return Entry{Configuration: cfg, Err: errors.New(errors.ErrCodeNotFound, "configuration %s was not analyzed", cfg)}
	}

	v, err := r.lazy(cfg)
	e = Entry{Configuration: cfg, Reliability: v, Err: err}
	if r.record(e) && err != nil && r.logger != nil {
		r.logger.Warn("configuration failed", "configuration", cfg, "err", errors.UserMessage(err))
	}
	return e
}

// Entries returns one entry per analyzed configuration, in input order.
// Lazy results are solved as needed.
func (r *Results) Entries() []Entry {
	out := make([]Entry, len(r.inputs))
	for i, cfg := range r.inputs {
		out[i] = r.entry(cfg)
		out[i].Configuration = cfg
	}
	return out
}

// Stats returns a snapshot of the analysis statistics.
func (r *Results) Stats() Stats {
	return Stats{
		Configurations:   len(r.inputs),
		Failures:         int(r.counts.failures.Load()),
		SolvedFormulas:   r.counts.solved.Load(),
		CheckerCalls:     r.counts.checks.Load(),
		CheckerCacheHits: r.counts.hits.Load(),
		DerivedModels:    r.counts.derived.Load(),
		ReusedSubResults: r.counts.reused.Load(),
	}
}

// PrintStats writes the statistics in a human-readable form.
func (r *Results) PrintStats(w io.Writer) {
	s := r.Stats()
	fmt.Fprintln(w, "Results:")
	fmt.Fprintf(w, "  strategy            %s\n", r.strategy)
	fmt.Fprintf(w, "  configurations      %d\n", s.Configurations)
	fmt.Fprintf(w, "  failures            %d\n", s.Failures)
	fmt.Fprintf(w, "  solved formulas     %d\n", s.SolvedFormulas)
	fmt.Fprintf(w, "  checker calls       %d\n", s.CheckerCalls)
	fmt.Fprintf(w, "  checker cache hits  %d\n", s.CheckerCacheHits)
	fmt.Fprintf(w, "  derived models      %d\n", s.DerivedModels)
	fmt.Fprintf(w, "  reused sub-results  %d\n", s.ReusedSubResults)
}
