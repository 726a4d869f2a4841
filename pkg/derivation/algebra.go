package derivation

import (
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/presence"
)

// BoolIf is the concrete if-operator: the present branch is taken iff
// present is true.
func BoolIf[V any](present bool, ifPresent func() (V, error), ifAbsent V) (V, error) {
	if present {
		return ifPresent()
	}
	return ifAbsent, nil
}

// SymbolicModelIf is the family if-operator over models. Conditional
// components become a [fdtmc.Switch] on their presence variable.
func SymbolicModelIf(p presence.Symbolic, ifPresent func() (*fdtmc.FDTMC, error), ifAbsent *fdtmc.FDTMC) (*fdtmc.FDTMC, error) {
	switch p.Kind {
	case presence.Never:
		return ifAbsent, nil
	case presence.Always:
		return ifPresent()
	}
	m, err := ifPresent()
	if err != nil {
		return nil, err
	}
	return fdtmc.Switch(p.Variable, m, ifAbsent), nil
}

// SymbolicFormulaIf is the family if-operator over formulas. Conditional
// components yield p * (f) + 1 - p for their presence variable p.
func SymbolicFormulaIf(p presence.Symbolic, ifPresent func() (string, error), ifAbsent string) (string, error) {
	switch p.Kind {
	case presence.Never:
		return ifAbsent, nil
	case presence.Always:
		return ifPresent()
	}
	f, err := ifPresent()
	if err != nil {
		return "", err
	}
	return expr.Choice(p.Variable, f, ifAbsent), nil
}

// InlineModels composes a model with the derived models of its dependencies.
func InlineModels(asset *fdtmc.FDTMC, derived map[string]*fdtmc.FDTMC) (*fdtmc.FDTMC, error) {
	return asset.Inline(derived), nil
}

// SubstituteFormulas composes a formula with the derived formulas of its
// dependencies by replacing their reliability variables.
func SubstituteFormulas(asset string, derived map[string]string) (string, error) {
	if len(derived) == 0 {
		return asset, nil
	}
	replacements := make(map[string]string, len(derived))
	for id, f := range derived {
		replacements[fdtmc.ReliabilityVar(id)] = f
	}
	out, err := expr.Substitute(asset, replacements)
	if err != nil {
		return "", err
	}
	return expr.Fold(out), nil
}

// EvaluateNumbers returns a composer that evaluates a formula with the
// derived reliabilities of its dependencies bound to their variables.
func EvaluateNumbers(s *expr.Solver) Composer[string, float64] {
	return func(asset string, derived map[string]float64) (float64, error) {
		bindings := make(map[string]float64, len(derived))
		for id, v := range derived {
			bindings[fdtmc.ReliabilityVar(id)] = v
		}
		return s.Solve(asset, bindings)
	}
}

// Models derives models of concrete products.
func Models() Derivation[bool, *fdtmc.FDTMC, *fdtmc.FDTMC] {
	return Derivation[bool, *fdtmc.FDTMC, *fdtmc.FDTMC]{
		If:      BoolIf[*fdtmc.FDTMC],
		Compose: InlineModels,
		Trivial: fdtmc.Trivial(),
	}
}

// FamilyModels derives one model for the whole product line.
func FamilyModels() Derivation[presence.Symbolic, *fdtmc.FDTMC, *fdtmc.FDTMC] {
	return Derivation[presence.Symbolic, *fdtmc.FDTMC, *fdtmc.FDTMC]{
		If:      SymbolicModelIf,
		Compose: InlineModels,
		Trivial: fdtmc.Trivial(),
	}
}

// FamilyFormulas derives one formula for the whole product line.
func FamilyFormulas() Derivation[presence.Symbolic, string, string] {
	return Derivation[presence.Symbolic, string, string]{
		If:      SymbolicFormulaIf,
		Compose: SubstituteFormulas,
		Trivial: "1",
	}
}

// Numbers derives the reliability of a concrete product from component
// formulas.
func Numbers(s *expr.Solver) Derivation[bool, string, float64] {
	return Derivation[bool, string, float64]{
		If:      BoolIf[float64],
		Compose: EvaluateNumbers(s),
		Trivial: 1,
	}
}
