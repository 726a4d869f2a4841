package expr

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/matzehuels/reana/pkg/errors"
)

// filename is reported in diagnostics of parsed expressions.
const filename = "expression"

// Expression is a parsed expression together with its source text.
// An Expression is immutable and safe for concurrent evaluation.
type Expression struct {
	src  string
	ast  hclsyntax.Expression
	vars []string
}

// Parse parses src as a single expression. All referenced variables must be
// plain identifiers; attribute or index traversals are rejected.
func Parse(src string) (*Expression, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New(errors.ErrCodeInvalidExpression, "empty expression")
	}

	ast, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidExpression, diags, "parse %q", src)
	}

	seen := make(map[string]bool)
	for _, t := range ast.Variables() {
		if len(t) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidExpression,
				"unsupported reference to %q in %q: only plain identifiers are allowed", t.RootName(), src)
		}
		seen[t.RootName()] = true
	}

	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	return &Expression{src: src, ast: ast, vars: vars}, nil
}

// MustParse is like [Parse] but panics on error. It is meant for tests and
// package-level formulas known to be valid.
func MustParse(src string) *Expression {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source text of the expression.
func (e *Expression) String() string { return e.src }

// AST returns the syntax tree of the expression.
func (e *Expression) AST() hclsyntax.Expression { return e.ast }

// Variables returns the sorted, de-duplicated names of all referenced variables.
func (e *Expression) Variables() []string {
	out := make([]string, len(e.vars))
	copy(out, e.vars)
	return out
}

// EvalBool evaluates the expression as a boolean formula.
// Every referenced variable must be bound in values; a missing binding is
// reported as an [errors.UnknownFeatureError] naming the variable.
func (e *Expression) EvalBool(values map[string]bool) (bool, error) {
	vars := make(map[string]cty.Value, len(e.vars))
	for _, name := range e.vars {
		v, ok := values[name]
		if !ok {
			return false, &errors.UnknownFeatureError{Feature: name}
		}
		vars[name] = cty.BoolVal(v)
	}

	val, err := e.eval(vars)
	if err != nil {
		return false, err
	}
	if val.Type() != cty.Bool {
		return false, errors.New(errors.ErrCodeInvalidExpression,
			"%q evaluates to %s, want bool", e.src, val.Type().FriendlyName())
	}
	return val.True(), nil
}

// EvalNumber evaluates the expression as an arithmetic formula.
// Every referenced variable must be bound in values.
func (e *Expression) EvalNumber(values map[string]float64) (float64, error) {
	vars := make(map[string]cty.Value, len(e.vars))
	for _, name := range e.vars {
		v, ok := values[name]
		if !ok {
			return 0, errors.New(errors.ErrCodeSolver, "unbound variable %q in %q", name, e.src)
		}
		vars[name] = cty.NumberFloatVal(v)
	}

	val, err := e.eval(vars)
	if err != nil {
		return 0, err
	}
	if val.Type() != cty.Number {
		return 0, errors.New(errors.ErrCodeInvalidExpression,
			"%q evaluates to %s, want number", e.src, val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

func (e *Expression) eval(vars map[string]cty.Value) (cty.Value, error) {
	val, diags := e.ast.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return cty.NilVal, errors.Wrap(errors.ErrCodeSolver, diags, "evaluate %q", e.src)
	}
	if !val.IsKnown() || val.IsNull() {
		return cty.NilVal, errors.New(errors.ErrCodeSolver, "%q has no value", e.src)
	}
	return val, nil
}

// FormatNumber renders f as a numeric literal of the expression language.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
