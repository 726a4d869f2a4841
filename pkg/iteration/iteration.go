// Package iteration evaluates a function over a stream of configurations.
//
// [EvaluateEach] runs the function once per distinct configuration, either in
// input order on the calling goroutine or on a bounded pool of goroutines.
// Either way the outcomes come back in input order and a failing
// configuration never stops the others.
package iteration

import (
	"context"
	"iter"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
)

// Mode selects how configurations are evaluated.
type Mode int

const (
	// Sequential evaluates configurations one after another in input order.
	Sequential Mode = iota
	// Parallel evaluates configurations concurrently.
	Parallel
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	if m == Parallel {
		return "parallel"
	}
	return "sequential"
}

// ParseMode parses "sequential" or "parallel", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return Sequential, nil
	case "parallel":
		return Parallel, nil
	}
	return Sequential, errors.New(errors.ErrCodeInvalidInput, "unknown evaluation mode %q (want sequential or parallel)", s)
}

// DefaultWorkers returns the worker limit used when none is given.
func DefaultWorkers() int { return runtime.GOMAXPROCS(0) }

// Outcome is the result of evaluating one configuration.
type Outcome[V any] struct {
	Configuration featuremodel.Configuration
	Value         V
	Err           error
}

// Func evaluates one configuration.
type Func[V any] func(ctx context.Context, cfg featuremodel.Configuration) (V, error)

// EvaluateEach evaluates fn for every configuration of configs and returns
// one outcome per input, in input order.
//
// Configurations with the same key are evaluated once and share the outcome.
// Errors returned by fn are recorded in the outcome, and a panic in fn is
// recorded as an INTERNAL_ERROR for that configuration. Once ctx is done, the
// configurations not evaluated yet are marked with the context error. In
// [Parallel] mode at most workers calls run at a time; workers <= 0 means
// [DefaultWorkers].
func EvaluateEach[V any](ctx context.Context, fn Func[V], configs iter.Seq[featuremodel.Configuration], mode Mode, workers int) []Outcome[V] {
	inputs := slices.Collect(configs)

	first := make(map[string]int, len(inputs))
	var unique []int
	for i, cfg := range inputs {
		if _, ok := first[cfg.Key()]; !ok {
			first[cfg.Key()] = i
			unique = append(unique, i)
		}
	}

	out := make([]Outcome[V], len(inputs))
	run := func(i int) {
		cfg := inputs[i]
		defer func() {
			if p := recover(); p != nil {
				out[i] = Outcome[V]{Configuration: cfg, Err: errors.New(errors.ErrCodeInternal, "evaluating configuration %s panicked: %v", cfg, p)}
			}
		}()
		if err := ctx.Err(); err != nil {
			out[i] = Outcome[V]{Configuration: cfg, Err: err}
			return
		}
		v, err := fn(ctx, cfg)
		out[i] = Outcome[V]{Configuration: cfg, Value: v, Err: err}
	}

	switch mode {
	case Parallel:
		if workers <= 0 {
			workers = DefaultWorkers()
		}
		var g errgroup.Group
		g.SetLimit(workers)
		for _, i := range unique {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	default:
		for _, i := range unique {
			run(i)
		}
	}

	for i, cfg := range inputs {
		if j := first[cfg.Key()]; j != i {
			out[i] = out[j]
			out[i].Configuration = cfg
		}
	}
	return out
}
