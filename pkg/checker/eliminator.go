package checker

import (
	"context"
	"maps"
	"slices"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
)

// Eliminator computes reachability formulas by state elimination.
//
// Intermediate states are removed one at a time in index order. Removing s
// reroutes every path p -> s -> q through the direct edge
//
//	P[p][q] += P[p][s] * 1 / (1 - P[s][s]) * P[s][q]
//
// until only the initial and the success state remain. States that are
// unreachable from the initial state, or from which success is unreachable,
// are pruned first. Numeric sub-formulas are folded as they are built, so a
// concrete model yields a single number.
type Eliminator struct{}

// NewEliminator creates a state-elimination checker.
func NewEliminator() *Eliminator {
	return &Eliminator{}
}

// Reliability implements ModelChecker.
func (e *Eliminator) Reliability(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
	if err := m.Validate(); err != nil {
		return "", errors.Wrap(errors.ErrCodeModelChecker, err, "check model")
	}

	c := newChain(m)
	init, succ := m.InitialState(), m.SuccessState()
	if !c.prune(init, succ) {
		return "0", nil
	}

	for _, s := range c.states() {
		if s == init || s == succ {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c.eliminate(s)
	}

	result, ok := c.out[init][succ]
	if !ok {
		return "0", nil
	}
	if loop, ok := c.out[init][init]; ok {
		result = expr.Quotient(result, expr.Complement(loop))
	}
	return result, nil
}

// chain is a sparse transition matrix of formulas.
type chain struct {
	out map[int]map[int]string
	in  map[int]map[int]bool
}

func newChain(m *fdtmc.FDTMC) *chain {
	c := &chain{
		out: make(map[int]map[int]string),
		in:  make(map[int]map[int]bool),
	}
	for _, s := range m.States() {
		c.out[s.Index] = make(map[int]string)
		c.in[s.Index] = make(map[int]bool)
	}
	succ := m.SuccessState()
	for _, t := range m.Transitions() {
		if t.From == succ {
			continue // success is absorbing
		}
		c.add(t.From, t.To, expr.Fold(t.Probability))
	}
	return c
}

func (c *chain) add(from, to int, p string) {
	if prev, ok := c.out[from][to]; ok {
		p = expr.Sum(prev, p)
	}
	c.out[from][to] = p
	c.in[to][from] = true
}

func (c *chain) states() []int {
	return slices.Sorted(maps.Keys(c.out))
}

// prune drops states that are not on a path from init to succ and reports
// whether init survived.
func (c *chain) prune(init, succ int) bool {
	fwd := reach(init, func(s int) []int { return slices.Collect(maps.Keys(c.out[s])) })
	bwd := reach(succ, func(s int) []int { return slices.Collect(maps.Keys(c.in[s])) })

	for s := range c.out {
		if !fwd[s] || !bwd[s] {
			c.remove(s)
		}
	}
	_, ok := c.out[init]
	return ok
}

func reach(from int, next func(int) []int) map[int]bool {
	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range next(s) {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return seen
}

// remove deletes s and all its edges.
func (c *chain) remove(s int) {
	for q := range c.out[s] {
		delete(c.in[q], s)
	}
	for p := range c.in[s] {
		delete(c.out[p], s)
	}
	delete(c.out, s)
	delete(c.in, s)
}

// eliminate removes s, rerouting its incoming probability mass to its
// successors.
func (c *chain) eliminate(s int) {
	factor := "1"
	if loop, ok := c.out[s][s]; ok {
		factor = expr.Quotient("1", expr.Complement(loop))
	}

	preds := slices.Sorted(maps.Keys(c.in[s]))
	succs := slices.Sorted(maps.Keys(c.out[s]))
	for _, p := range preds {
		if p == s {
			continue
		}
		ps := expr.Product(c.out[p][s], factor)
		for _, q := range succs {
			if q == s {
				continue
			}
			c.add(p, q, expr.Product(ps, c.out[s][q]))
		}
	}
	c.remove(s)
}
