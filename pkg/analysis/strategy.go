package analysis

import (
	"strings"

	"github.com/matzehuels/reana/pkg/errors"
)

// Strategy selects how the reliability of products is computed.
type Strategy int

const (
	// Product derives, checks and solves one model per configuration.
	Product Strategy = iota
	// Family checks one model for the whole product line and solves the
	// resulting formula lazily per configuration.
	Family
	// FamilyProduct checks one family model and solves every configuration
	// eagerly.
	FamilyProduct
	// FeatureFamily checks every component once and folds the formulas into
	// one family formula, solved lazily per configuration.
	FeatureFamily
	// FeatureProduct checks every component once and evaluates the formulas
	// numerically per configuration.
	FeatureProduct
	// FeatureFamilyProduct checks every component once, evaluates the
	// components whose presence the feature model decides once, and evaluates
	// the rest per configuration with reuse across configurations.
	FeatureFamilyProduct
)

var strategyNames = [...]string{
	Product:              "product",
	Family:               "family",
	FamilyProduct:        "family-product",
	FeatureFamily:        "feature-family",
	FeatureProduct:       "feature-product",
	FeatureFamilyProduct: "feature-family-product",
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Product, Family, FamilyProduct, FeatureFamily, FeatureProduct, FeatureFamilyProduct}
}

// String returns the command-line name of the strategy.
func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return "unknown"
	}
	return strategyNames[s]
}

// Lazy reports whether the strategy solves configurations on demand.
func (s Strategy) Lazy() bool {
	return s == Family || s == FeatureFamily
}

// ParseStrategy parses a strategy name such as "feature-family".
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Strategies() {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q (want one of %s)", name, strings.Join(strategyNames[:], ", "))
}
