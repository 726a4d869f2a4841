package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer generates cache keys.
type Keyer interface {
	// FormulaKey returns the key of the reliability formula of a model,
	// identified by the hash of its canonical encoding.
	FormulaKey(modelHash string) string

	// RunKey returns the key of a stored analysis summary.
	RunKey(graphHash string, opts RunKeyOpts) string
}

// RunKeyOpts are the run parameters that influence an analysis summary.
type RunKeyOpts struct {
	Strategy     string `json:"strategy"`
	FeatureModel string `json:"feature_model"`
}

// Hash returns the hex-encoded SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer produces keys of the form "formula:<hash>" and
// "run:<hash of graph and options>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FormulaKey implements Keyer.
func (DefaultKeyer) FormulaKey(modelHash string) string {
	return "formula:" + modelHash
}

// RunKey implements Keyer.
func (DefaultKeyer) RunKey(graphHash string, opts RunKeyOpts) string {
	// Marshalling a string and a struct of strings cannot fail.
	data, _ := json.Marshal([]any{graphHash, opts})
	return "run:" + Hash(data)
}

// ScopedKeyer prefixes the keys of another Keyer, separating namespaces
// such as results of different checker versions sharing one Redis:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "eliminator:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// FormulaKey implements Keyer.
func (k *ScopedKeyer) FormulaKey(modelHash string) string {
	return k.prefix + k.inner.FormulaKey(modelHash)
}

// RunKey implements Keyer.
func (k *ScopedKeyer) RunKey(graphHash string, opts RunKeyOpts) string {
	return k.prefix + k.inner.RunKey(graphHash, opts)
}
