package observability

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"
)

// TimeRecorder accumulates the durations of named timers.
type TimeRecorder struct {
	mu     sync.Mutex
	order  []string
	totals map[string]time.Duration
	counts map[string]int
	now    func() time.Time
}

// NewTimeRecorder creates an empty TimeRecorder.
func NewTimeRecorder() *TimeRecorder {
	return &TimeRecorder{
		totals: make(map[string]time.Duration),
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// Start starts timer and returns the function that stops it. Calling the
// returned function more than once records the duration once.
func (r *TimeRecorder) Start(timer string) func() {
	begin := r.now()
	var once sync.Once
	return func() {
		once.Do(func() { r.record(timer, r.now().Sub(begin)) })
	}
}

func (r *TimeRecorder) record(timer string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.counts[timer]; !ok {
		r.order = append(r.order, timer)
	}
	r.totals[timer] += d
	r.counts[timer]++
}

// Total returns the accumulated duration of timer.
func (r *TimeRecorder) Total(timer string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals[timer]
}

// Count returns how many times timer was stopped.
func (r *TimeRecorder) Count(timer string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[timer]
}

// PrintStats writes one line per timer in first-use order.
func (r *TimeRecorder) PrintStats(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(w, "Times:")
	for _, name := range r.order {
		fmt.Fprintf(w, "  %-22s %10s (%d)\n", name, r.totals[name].Round(time.Microsecond), r.counts[name])
	}
}

// FormulaRecorder keeps the formula collected for every component.
type FormulaRecorder struct {
	mu       sync.Mutex
	formulas map[string]string
	count    int
}

// NewFormulaRecorder creates an empty FormulaRecorder.
func NewFormulaRecorder() *FormulaRecorder {
	return &FormulaRecorder{formulas: make(map[string]string)}
}

// CollectFormula records formula for nodeID, replacing an earlier one.
func (r *FormulaRecorder) CollectFormula(nodeID, formula string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formulas[nodeID] = formula
	r.count++
}

// Formula returns the formula recorded for nodeID.
func (r *FormulaRecorder) Formula(nodeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.formulas[nodeID]
	return f, ok
}

// Count returns how many formulas were collected, including replacements.
func (r *FormulaRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// PrintStats writes the number of formulas and the size of the longest one.
func (r *FormulaRecorder) PrintStats(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	longest, size := "", 0
	ids := make([]string, 0, len(r.formulas))
	for id := range r.formulas {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if n := len(r.formulas[id]); n > size {
			longest, size = id, n
		}
	}
	fmt.Fprintln(w, "Formulas:")
	fmt.Fprintf(w, "  collected %d for %d components\n", r.count, len(r.formulas))
	if longest != "" {
		fmt.Fprintf(w, "  longest: %s (%d characters)\n", longest, size)
	}
}

// MemorySnapshot is the heap usage at a labelled point of the run.
type MemorySnapshot struct {
	Label      string
	HeapAlloc  uint64
	TotalAlloc uint64
	NumGC      uint32
}

// MemoryRecorder keeps memory snapshots in the order they were taken.
type MemoryRecorder struct {
	mu        sync.Mutex
	snapshots []MemorySnapshot
	read      func(*runtime.MemStats)
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{read: runtime.ReadMemStats}
}

// Snapshot records the current memory statistics under label.
func (r *MemoryRecorder) Snapshot(label string) {
	var ms runtime.MemStats
	r.read(&ms)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, MemorySnapshot{
		Label:      label,
		HeapAlloc:  ms.HeapAlloc,
		TotalAlloc: ms.TotalAlloc,
		NumGC:      ms.NumGC,
	})
}

// Snapshots returns a copy of the recorded snapshots.
func (r *MemoryRecorder) Snapshots() []MemorySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.snapshots)
}

// PrintStats writes one line per snapshot.
func (r *MemoryRecorder) PrintStats(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(w, "Memory:")
	for _, s := range r.snapshots {
		fmt.Fprintf(w, "  %-22s %s\n", s.Label, formatBytes(s.HeapAlloc))
	}
}

// ModelRecorder aggregates the sizes of checked models.
type ModelRecorder struct {
	mu          sync.Mutex
	models      int
	states      int
	transitions int
	maxStates   int
}

// NewModelRecorder creates an empty ModelRecorder.
func NewModelRecorder() *ModelRecorder { return &ModelRecorder{} }

// CollectModel records one checked model.
func (r *ModelRecorder) CollectModel(states, transitions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models++
	r.states += states
	r.transitions += transitions
	r.maxStates = max(r.maxStates, states)
}

// Models returns how many models were collected.
func (r *ModelRecorder) Models() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.models
}

// PrintStats writes the number of models and their sizes.
func (r *ModelRecorder) PrintStats(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(w, "Models:")
	fmt.Fprintf(w, "  checked %d, %d states, %d transitions, largest %d states\n",
		r.models, r.states, r.transitions, r.maxStates)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
