package featuremodel

import (
	"slices"
	"strings"
)

// Configuration is a product: the set of selected features.
//
// Features are kept sorted and unique, so two configurations selecting the
// same features are equal and have the same [Configuration.Key]. The zero
// value is the empty configuration.
type Configuration struct {
	features []string
}

// NewConfiguration creates a configuration from feature names. Blank names
// are skipped, surrounding whitespace is trimmed and duplicates collapse.
func NewConfiguration(features ...string) Configuration {
	fs := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			fs = append(fs, f)
		}
	}
	slices.Sort(fs)
	return Configuration{features: slices.Compact(fs)}
}

// ParseConfiguration parses a comma-separated list of feature names.
func ParseConfiguration(s string) Configuration {
	return NewConfiguration(strings.Split(s, ",")...)
}

// Features returns the selected features in sorted order.
func (c Configuration) Features() []string {
	return slices.Clone(c.features)
}

// Len returns the number of selected features.
func (c Configuration) Len() int { return len(c.features) }

// Has reports whether feature is selected.
func (c Configuration) Has(feature string) bool {
	_, ok := slices.BinarySearch(c.features, feature)
	return ok
}

// Project returns the configuration restricted to the given features.
func (c Configuration) Project(features map[string]bool) Configuration {
	out := make([]string, 0, len(c.features))
	for _, f := range c.features {
		if features[f] {
			out = append(out, f)
		}
	}
	return Configuration{features: out}
}

// Key returns the canonical map key of the configuration, the sorted
// features joined by commas.
func (c Configuration) Key() string {
	return strings.Join(c.features, ",")
}

// String returns the configuration formatted as "[A, B]".
func (c Configuration) String() string {
	return "[" + strings.Join(c.features, ", ") + "]"
}

// Equal reports whether c and other select the same features.
func (c Configuration) Equal(other Configuration) bool {
	return slices.Equal(c.features, other.features)
}
