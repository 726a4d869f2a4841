package expr

import (
	"math"
	"sync"

	"github.com/matzehuels/reana/pkg/errors"
)

// tolerance bounds the rounding error accepted outside [0, 1].
const tolerance = 1e-9

// Solver evaluates reliability formulas.
//
// Parsed formulas are cached by source text, so solving the same family
// formula for many configurations parses it once. A Solver is safe for
// concurrent use; the zero value is ready to use.
type Solver struct {
	parsed sync.Map // formula -> *Expression
}

// NewSolver creates an empty Solver.
func NewSolver() *Solver {
	return &Solver{}
}

// Solve evaluates formula under bindings and returns a probability.
// Values within a small tolerance outside [0, 1] are clamped; anything else
// is reported as a solver failure.
func (s *Solver) Solve(formula string, bindings map[string]float64) (float64, error) {
	if f, ok := number(formula); ok {
		return checkProbability(formula, f)
	}

	e, err := s.parse(formula)
	if err != nil {
		return 0, err
	}
	v, err := e.EvalNumber(bindings)
	if err != nil {
		return 0, err
	}
	return checkProbability(formula, v)
}

// Variables returns the variables referenced by formula.
func (s *Solver) Variables(formula string) ([]string, error) {
	if _, ok := number(formula); ok {
		return nil, nil
	}
	e, err := s.parse(formula)
	if err != nil {
		return nil, err
	}
	return e.Variables(), nil
}

func (s *Solver) parse(formula string) (*Expression, error) {
	if cached, ok := s.parsed.Load(formula); ok {
		return cached.(*Expression), nil
	}
	e, err := Parse(formula)
	if err != nil {
		return nil, err
	}
	actual, _ := s.parsed.LoadOrStore(formula, e)
	return actual.(*Expression), nil
}

func checkProbability(formula string, v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, errors.New(errors.ErrCodeSolver, "%q is not a finite number", formula)
	case v < -tolerance || v > 1+tolerance:
		return 0, errors.New(errors.ErrCodeSolver, "%q evaluates to %g, outside [0, 1]", formula, v)
	}
	return math.Min(1, math.Max(0, v)), nil
}
