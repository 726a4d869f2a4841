// Package checker computes reliability formulas of Markov chain models.
//
// A [ModelChecker] returns the probability of reaching the success state of
// a model as an arithmetic formula over the variables left in the model:
// reliability variables of uninlined interfaces and presence variables of
// family switches. A fully concrete model yields a numeric literal.
//
// [Eliminator] is the built-in parametric checker. [Cached] decorates any
// checker with a [cache.Cache], keyed by the model's canonical encoding.
package checker

import (
	"context"
	"sync/atomic"

	"github.com/matzehuels/reana/pkg/cache"
	"github.com/matzehuels/reana/pkg/fdtmc"
)

// ModelChecker computes the reliability formula of a model.
type ModelChecker interface {
	Reliability(ctx context.Context, m *fdtmc.FDTMC) (string, error)
}

// Func adapts a function to the ModelChecker interface.
type Func func(ctx context.Context, m *fdtmc.FDTMC) (string, error)

// Reliability calls f.
func (f Func) Reliability(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
	return f(ctx, m)
}

// Cached is a ModelChecker that memoizes the formulas of an inner checker.
// It is safe for concurrent use when the inner checker and cache are.
type Cached struct {
	inner ModelChecker
	cache cache.Cache
	keyer cache.Keyer

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps inner. A nil cache disables caching; a nil keyer selects
// the default keyer.
func NewCached(inner ModelChecker, c cache.Cache, keyer cache.Keyer) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{inner: inner, cache: c, keyer: keyer}
}

// Reliability returns the cached formula of m, checking m with the inner
// checker on a miss. Cache failures degrade to a miss.
func (c *Cached) Reliability(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
	key := c.keyer.FormulaKey(cache.Hash([]byte(m.Encode())))

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		c.hits.Add(1)
		return string(data), nil
	}
	c.misses.Add(1)

	formula, err := c.inner.Reliability(ctx, m)
	if err != nil {
		return "", err
	}
	_ = c.cache.Set(ctx, key, []byte(formula), cache.TTLFormula)
	return formula, nil
}

// Hits returns the number of formulas served from the cache.
func (c *Cached) Hits() int64 { return c.hits.Load() }

// Misses returns the number of formulas computed by the inner checker.
func (c *Cached) Misses() int64 { return c.misses.Load() }
