// Package observability records statistics about an analysis run.
//
// Statistics are gathered through explicit collector handles instead of
// global state. An analysis receives a [Collectors] value at construction and
// reports events into it; callers decide what the handles do:
//
//   - [Noop] discards every event and is the default when statistics are off
//   - [NewRecording] keeps every event in memory and prints a summary
//
// All collectors are safe for concurrent use.
//
// # Usage
//
//	stats := observability.NewRecording()
//	stop := stats.Time.Start(observability.TimerModelChecking)
//	// ... check the model ...
//	stop()
//	stats.PrintStats(os.Stdout)
package observability

import (
	"io"
)

// Timer names used by the analysis.
const (
	TimerModelParsing     = "model parsing"
	TimerFeatureModel     = "feature model parsing"
	TimerModelChecking    = "model checking"
	TimerDerivation       = "derivation"
	TimerExpressionSolve  = "expression solving"
	TimerFamilyAnalysis   = "family analysis"
	TimerFeatureAnalysis  = "feature analysis"
	TimerProductAnalysis  = "product analysis"
	TimerTotalAnalysis    = "total analysis"
	TimerTotalRunningTime = "total running time"
)

// Memory snapshot labels.
const (
	SnapshotBeforeParsing    = "before model parsing"
	SnapshotAfterParsing     = "after model parsing"
	SnapshotBeforeEvaluation = "before evaluation"
	SnapshotAfterEvaluation  = "after evaluation"
)

// TimeCollector measures named timers. Start returns a function that stops
// the timer; a timer may run many times and concurrently.
type TimeCollector interface {
	Start(timer string) (stop func())
}

// FormulaCollector receives the reliability formula computed for a component.
type FormulaCollector interface {
	CollectFormula(nodeID, formula string)
}

// MemoryCollector takes labelled snapshots of the process memory.
type MemoryCollector interface {
	Snapshot(label string)
}

// ModelCollector receives the size of every model handed to a model checker.
type ModelCollector interface {
	CollectModel(states, transitions int)
}

// StatsPrinter is implemented by collectors that can summarize what they
// recorded.
type StatsPrinter interface {
	PrintStats(w io.Writer)
}

// Collectors bundles the handles an analysis reports into.
type Collectors struct {
	Time    TimeCollector
	Formula FormulaCollector
	Memory  MemoryCollector
	Model   ModelCollector
}

// Noop returns collectors that discard every event.
func Noop() Collectors {
	return Collectors{
		Time:    NoopTime{},
		Formula: NoopFormula{},
		Memory:  NoopMemory{},
		Model:   NoopModel{},
	}
}

// NewRecording returns collectors that record every event in memory.
func NewRecording() Collectors {
	return Collectors{
		Time:    NewTimeRecorder(),
		Formula: NewFormulaRecorder(),
		Memory:  NewMemoryRecorder(),
		Model:   NewModelRecorder(),
	}
}

// WithDefaults returns c with every nil handle replaced by its no-op.
func (c Collectors) WithDefaults() Collectors {
	if c.Time == nil {
		c.Time = NoopTime{}
	}
	if c.Formula == nil {
		c.Formula = NoopFormula{}
	}
	if c.Memory == nil {
		c.Memory = NoopMemory{}
	}
	if c.Model == nil {
		c.Model = NoopModel{}
	}
	return c
}

// PrintStats writes the summary of every handle that implements
// [StatsPrinter].
func (c Collectors) PrintStats(w io.Writer) {
	for _, h := range []any{c.Time, c.Formula, c.Memory, c.Model} {
		if p, ok := h.(StatsPrinter); ok {
			p.PrintStats(w)
		}
	}
}

// NoopTime is a TimeCollector that measures nothing.
type NoopTime struct{}

func (NoopTime) Start(string) func() { return func() {} }

// NoopFormula is a FormulaCollector that discards formulas.
type NoopFormula struct{}

func (NoopFormula) CollectFormula(string, string) {}

// NoopMemory is a MemoryCollector that takes no snapshots.
type NoopMemory struct{}

func (NoopMemory) Snapshot(string) {}

// NoopModel is a ModelCollector that discards model sizes.
type NoopModel struct{}

func (NoopModel) CollectModel(int, int) {}
