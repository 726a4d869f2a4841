// Package presence decides whether components are part of a product.
//
// The [Evaluator] answers two kinds of questions about presence conditions:
//
//   - Concrete: is the component present in this configuration?
//     ([Evaluator.IsPresent])
//   - Symbolic: is the component present in every valid configuration, in
//     none, or does it depend on the configuration? ([Evaluator.Symbolic])
//
// Concrete evaluation substitutes the selected features into the condition.
// Symbolic evaluation asks the feature model's decision diagram.
package presence

import (
	"sync"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/rdg"
)

// Kind classifies a presence condition against the feature model.
type Kind int

const (
	// Conditional components are present in some valid configurations only.
	Conditional Kind = iota
	// Always present components are part of every valid configuration.
	Always
	// Never present components are part of no valid configuration.
	Never
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Always:
		return "always"
	case Never:
		return "never"
	}
	return "conditional"
}

// Symbolic is the presence of a component across the whole product line.
// Variable names the presence variable that parameterizes the component in
// family models when Kind is Conditional.
type Symbolic struct {
	Kind      Kind
	Condition string
	Variable  string
}

// Evaluator evaluates presence conditions against a feature model.
// Parsed conditions and symbolic classifications are cached, and an
// Evaluator is safe for concurrent use.
type Evaluator struct {
	fm *featuremodel.FeatureModel

	parsed   sync.Map // condition -> *expr.Expression
	symbolic sync.Map // condition -> Kind
}

// NewEvaluator creates an evaluator for the given feature model.
func NewEvaluator(fm *featuremodel.FeatureModel) *Evaluator {
	return &Evaluator{fm: fm}
}

// FeatureModel returns the feature model the evaluator works on.
func (e *Evaluator) FeatureModel() *featuremodel.FeatureModel { return e.fm }

// IsPresent reports whether condition holds in cfg: every feature is true
// iff cfg selects it. Features of the condition or of cfg outside the
// feature model yield an [errors.UnknownFeatureError].
func (e *Evaluator) IsPresent(condition string, cfg featuremodel.Configuration) (bool, error) {
	ast, err := e.parse(condition)
	if err != nil {
		return false, err
	}
	if err := e.fm.CheckFeatures(ast.Variables()...); err != nil {
		return false, err
	}
	values, err := e.fm.Assignment(cfg)
	if err != nil {
		return false, err
	}
	return ast.EvalBool(values)
}

// Symbolic classifies the presence condition of component id.
func (e *Evaluator) Symbolic(id, condition string) (Symbolic, error) {
	s := Symbolic{Condition: condition, Variable: fdtmc.PresenceVar(id)}

	if cached, ok := e.symbolic.Load(condition); ok {
		s.Kind = cached.(Kind)
		return s, nil
	}

	sat, err := e.fm.Satisfiable(condition)
	if err != nil {
		return Symbolic{}, err
	}
	switch {
	case !sat:
		s.Kind = Never
	default:
		always, err := e.fm.Entails(condition)
		if err != nil {
			return Symbolic{}, err
		}
		if always {
			s.Kind = Always
		}
	}
	e.symbolic.Store(condition, s.Kind)
	return s, nil
}

// ValidateConditions checks that every presence condition of nodes parses
// and only mentions features of the feature model.
func (e *Evaluator) ValidateConditions(nodes []*rdg.Node) error {
	for _, n := range nodes {
		ast, err := e.parse(n.PresenceCondition())
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidExpression, err, "presence condition of %q", n.ID())
		}
		if err := e.fm.CheckFeatures(ast.Variables()...); err != nil {
			return errors.Wrap(errors.ErrCodeUnknownFeature, err, "presence condition of %q", n.ID())
		}
	}
	return nil
}

// Features returns the features mentioned by the presence conditions of
// nodes, as a set.
func (e *Evaluator) Features(nodes []*rdg.Node) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, n := range nodes {
		ast, err := e.parse(n.PresenceCondition())
		if err != nil {
			return nil, err
		}
		for _, f := range ast.Variables() {
			out[f] = true
		}
	}
	return out, nil
}

func (e *Evaluator) parse(condition string) (*expr.Expression, error) {
	if cached, ok := e.parsed.Load(condition); ok {
		return cached.(*expr.Expression), nil
	}
	ast, err := expr.Parse(condition)
	if err != nil {
		return nil, err
	}
	actual, _ := e.parsed.LoadOrStore(condition, ast)
	return actual.(*expr.Expression), nil
}
