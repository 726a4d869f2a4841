// Package derivation folds the components of a dependency graph into a
// single value.
//
// The fold is generic over three types:
//
//   - P, the presence of a component: a bool for a concrete product, or a
//     [presence.Symbolic] for the whole product line
//   - A, the asset attached to a component: its model or its formula
//   - V, the derived value: a model, a formula or a number
//
// A [Derivation] bundles the operators of one algebra. Components are
// processed dependencies first; each one is composed with the values derived
// for its dependencies and then guarded by its presence:
//
//	derived[c] = If(presence(c), Compose(asset(c), derived), Trivial)
//
// The same fold therefore serves product derivation (inline models of the
// present components), family derivation (switch over presence variables),
// feature-family derivation (substitute formulas) and feature-product
// derivation (evaluate numbers).
package derivation

import (
	"github.com/matzehuels/reana/pkg/rdg"
)

// Component is one unit of the fold.
type Component[A any] struct {
	ID                string
	PresenceCondition string
	Asset             A
}

// IfOperator combines a presence value with the derived value of a present
// component and the value standing for an absent one. The present branch is
// lazy: operators skip it when the component is certainly absent.
type IfOperator[P, V any] func(presence P, ifPresent func() (V, error), ifAbsent V) (V, error)

// Composer composes the asset of a component with the values derived so far,
// keyed by component ID.
type Composer[A, V any] func(asset A, derived map[string]V) (V, error)

// Derivation is an algebra for the fold.
type Derivation[P, A, V any] struct {
	If      IfOperator[P, V]
	Compose Composer[A, V]
	Trivial V
}

// New creates a derivation from its operators.
func New[P, A, V any](ifOp IfOperator[P, V], compose Composer[A, V], trivial V) Derivation[P, A, V] {
	return Derivation[P, A, V]{If: ifOp, Compose: compose, Trivial: trivial}
}

// FromMany folds components, which must be ordered dependencies first, and
// returns the value derived for the last one.
func FromMany[P, A, V any](components []Component[A], d Derivation[P, A, V], isPresent func(Component[A]) (P, error)) (V, error) {
	derived, err := All(components, d, isPresent)
	if err != nil {
		var zero V
		return zero, err
	}
	if len(components) == 0 {
		return d.Trivial, nil
	}
	return derived[components[len(components)-1].ID], nil
}

// All folds components like [FromMany] and returns the value derived for
// every component.
func All[P, A, V any](components []Component[A], d Derivation[P, A, V], isPresent func(Component[A]) (P, error)) (map[string]V, error) {
	derived := make(map[string]V, len(components))
	for _, c := range components {
		p, err := isPresent(c)
		if err != nil {
			return nil, err
		}
		v, err := d.If(p, func() (V, error) {
			return d.Compose(c.Asset, derived)
		}, d.Trivial)
		if err != nil {
			return nil, err
		}
		derived[c.ID] = v
	}
	return derived, nil
}

// Fold folds root together with its dependencies, given dependencies first.
func Fold[P, A, V any](root Component[A], dependencies []Component[A], d Derivation[P, A, V], isPresent func(Component[A]) (P, error)) (V, error) {
	components := make([]Component[A], 0, len(dependencies)+1)
	components = append(components, dependencies...)
	return FromMany(append(components, root), d, isPresent)
}

// Components turns nodes into components, attaching the asset computed by
// asset.
func Components[A any](nodes []*rdg.Node, asset func(*rdg.Node) A) []Component[A] {
	out := make([]Component[A], len(nodes))
	for i, n := range nodes {
		out[i] = Component[A]{
			ID:                n.ID(),
			PresenceCondition: n.PresenceCondition(),
			Asset:             asset(n),
		}
	}
	return out
}
