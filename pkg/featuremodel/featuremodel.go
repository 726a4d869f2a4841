package featuremodel

import (
	"cmp"
	"io"
	"math/big"
	"slices"
	"sync"

	"github.com/dalzilio/rudd"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/expr"
)

// FeatureModel is a propositional feature model.
//
// The model is a boolean formula over feature names; the features it mentions
// form the universe of the product line. The formula is compiled once into a
// binary decision diagram, which answers entailment and satisfiability
// questions about presence conditions and enumerates valid configurations.
//
// The decision diagram is not safe for concurrent use, so every method that
// touches it holds an internal lock. All methods are safe for concurrent use.
type FeatureModel struct {
	formula  *expr.Expression
	features []string
	index    map[string]int

	mu   sync.Mutex
	bdd  *rudd.BDD
	root rudd.Node
}

// Parse compiles a feature model formula such as
// `Root && (Sensor || Memory) && !(Sensor && Memory)`.
func Parse(formula string) (*FeatureModel, error) {
	e, err := expr.Parse(formula)
	if err != nil {
		return nil, err
	}

	features := e.Variables()
	index := make(map[string]int, len(features))
	for i, f := range features {
		if err := errors.ValidateFeatureName(f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "feature model")
		}
		index[f] = i
	}

	bdd, err := rudd.New(max(1, len(features)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create decision diagram")
	}

	fm := &FeatureModel{
		formula:  e,
		features: features,
		index:    index,
		bdd:      bdd,
	}
	root, err := fm.compile(e.AST())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "compile feature model")
	}
	fm.root = root
	return fm, nil
}

// Formula returns the source formula of the model.
func (fm *FeatureModel) Formula() string { return fm.formula.String() }

// Features returns the universe of feature names in sorted order.
func (fm *FeatureModel) Features() []string {
	return slices.Clone(fm.features)
}

// Has reports whether feature belongs to the universe.
func (fm *FeatureModel) Has(feature string) bool {
	_, ok := fm.index[feature]
	return ok
}

// CheckFeatures returns an [errors.UnknownFeatureError] for the first name
// outside the universe.
func (fm *FeatureModel) CheckFeatures(names ...string) error {
	for _, n := range names {
		if !fm.Has(n) {
			return &errors.UnknownFeatureError{Feature: n}
		}
	}
	return nil
}

// Assignment returns the truth value of every universe feature under cfg.
// Features of cfg outside the universe yield an [errors.UnknownFeatureError].
func (fm *FeatureModel) Assignment(cfg Configuration) (map[string]bool, error) {
	if err := fm.CheckFeatures(cfg.features...); err != nil {
		return nil, err
	}
	values := make(map[string]bool, len(fm.features))
	for _, f := range fm.features {
		values[f] = cfg.Has(f)
	}
	return values, nil
}

// IsValid reports whether cfg satisfies the feature model.
func (fm *FeatureModel) IsValid(cfg Configuration) (bool, error) {
	values, err := fm.Assignment(cfg)
	if err != nil {
		return false, err
	}
	return fm.formula.EvalBool(values)
}

// Entails reports whether every valid configuration satisfies condition,
// that is whether FM ⇒ condition holds.
func (fm *FeatureModel) Entails(condition string) (bool, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	pc, err := fm.compileCondition(condition)
	if err != nil {
		return false, err
	}
	counter := fm.bdd.And(fm.root, fm.bdd.Not(pc))
	return fm.bdd.Satcount(counter).Sign() == 0, nil
}

// Satisfiable reports whether some valid configuration satisfies condition.
func (fm *FeatureModel) Satisfiable(condition string) (bool, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	pc, err := fm.compileCondition(condition)
	if err != nil {
		return false, err
	}
	both := fm.bdd.And(fm.root, pc)
	return fm.bdd.Satcount(both).Sign() != 0, nil
}

// Count returns the number of valid configurations.
func (fm *FeatureModel) Count() *big.Int {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	n := fm.bdd.Satcount(fm.root)
	if len(fm.features) == 0 {
		// The diagram carries one unused variable for empty universes.
		n = new(big.Int).Rsh(n, 1)
	}
	return n
}

// ValidConfigurations enumerates every valid configuration, sorted by key.
func (fm *FeatureModel) ValidConfigurations() ([]Configuration, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	seen := make(map[string]Configuration)
	err := fm.bdd.Allsat(func(assignment []int) error {
		for _, cfg := range fm.expand(assignment) {
			seen[cfg.Key()] = cfg
		}
		return nil
	}, fm.root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "enumerate configurations")
	}

	out := make([]Configuration, 0, len(seen))
	for _, cfg := range seen {
		out = append(out, cfg)
	}
	slices.SortFunc(out, func(a, b Configuration) int {
		return cmp.Compare(a.Key(), b.Key())
	})
	return out, nil
}

// expand turns one Allsat assignment, where -1 marks a don't-care level,
// into the configurations it stands for.
func (fm *FeatureModel) expand(assignment []int) []Configuration {
	partial := [][]string{nil}
	for i, f := range fm.features {
		if i >= len(assignment) {
			break
		}
		switch assignment[i] {
		case 1:
			for j := range partial {
				partial[j] = append(slices.Clone(partial[j]), f)
			}
		case -1:
			n := len(partial)
			for j := 0; j < n; j++ {
				partial = append(partial, append(slices.Clone(partial[j]), f))
			}
		}
	}

	out := make([]Configuration, len(partial))
	for i, fs := range partial {
		out[i] = NewConfiguration(fs...)
	}
	return out
}

// WriteDot writes the decision diagram of the model in Graphviz DOT format.
func (fm *FeatureModel) WriteDot(w io.Writer) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if err := fm.bdd.Dot(w, fm.root); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write decision diagram")
	}
	return nil
}

// compileCondition parses condition and compiles it against the universe.
// Callers must hold fm.mu.
func (fm *FeatureModel) compileCondition(condition string) (rudd.Node, error) {
	e, err := expr.Parse(condition)
	if err != nil {
		return nil, err
	}
	if err := fm.CheckFeatures(e.Variables()...); err != nil {
		return nil, err
	}
	return fm.compile(e.AST())
}

// compile translates a boolean syntax tree into a decision diagram node.
func (fm *FeatureModel) compile(e hclsyntax.Expression) (rudd.Node, error) {
	switch e := e.(type) {
	case *hclsyntax.ParenthesesExpr:
		return fm.compile(e.Expression)

	case *hclsyntax.LiteralValueExpr:
		if e.Val.Type() != cty.Bool {
			return nil, errors.New(errors.ErrCodeInvalidExpression,
				"unsupported literal of type %s", e.Val.Type().FriendlyName())
		}
		if e.Val.True() {
			return fm.bdd.True(), nil
		}
		return fm.bdd.False(), nil

	case *hclsyntax.ScopeTraversalExpr:
		name := e.Traversal.RootName()
		i, ok := fm.index[name]
		if !ok {
			return nil, &errors.UnknownFeatureError{Feature: name}
		}
		return fm.bdd.Ithvar(i), nil

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpLogicalNot {
			return nil, errors.New(errors.ErrCodeInvalidExpression, "unsupported unary operator")
		}
		v, err := fm.compile(e.Val)
		if err != nil {
			return nil, err
		}
		return fm.bdd.Not(v), nil

	case *hclsyntax.BinaryOpExpr:
		lhs, err := fm.compile(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := fm.compile(e.RHS)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case hclsyntax.OpLogicalAnd:
			return fm.bdd.And(lhs, rhs), nil
		case hclsyntax.OpLogicalOr:
			return fm.bdd.Or(lhs, rhs), nil
		case hclsyntax.OpEqual:
			return fm.iff(lhs, rhs), nil
		case hclsyntax.OpNotEqual:
			return fm.bdd.Not(fm.iff(lhs, rhs)), nil
		}
		return nil, errors.New(errors.ErrCodeInvalidExpression, "unsupported binary operator in boolean formula")

	case *hclsyntax.ConditionalExpr:
		c, err := fm.compile(e.Condition)
		if err != nil {
			return nil, err
		}
		t, err := fm.compile(e.TrueResult)
		if err != nil {
			return nil, err
		}
		f, err := fm.compile(e.FalseResult)
		if err != nil {
			return nil, err
		}
		return fm.bdd.Or(fm.bdd.And(c, t), fm.bdd.And(fm.bdd.Not(c), f)), nil
	}

	return nil, errors.New(errors.ErrCodeInvalidExpression, "unsupported expression %T in boolean formula", e)
}

func (fm *FeatureModel) iff(a, b rudd.Node) rudd.Node {
	return fm.bdd.Or(fm.bdd.And(a, b), fm.bdd.And(fm.bdd.Not(a), fm.bdd.Not(b)))
}
