package fdtmc

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/expr"
)

// Kind classifies the states of a model.
type Kind int

const (
	// Normal is an intermediate state.
	Normal Kind = iota
	// Initial is the unique starting state.
	Initial
	// Success is the unique absorbing state reached on successful execution.
	Success
	// Error is the absorbing state reached on failure.
	Error
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Initial:
		return "initial"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "normal"
}

// ParseKind parses the names produced by [Kind.String].
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return Normal, nil
	case "initial":
		return Initial, nil
	case "success":
		return Success, nil
	case "error":
		return Error, nil
	}
	return Normal, errors.New(errors.ErrCodeInvalidModel, "unknown state kind %q", s)
}

// State is a state of the chain.
type State struct {
	Index int
	Label string
	Kind  Kind
}

// Transition is a probabilistic edge. Probability is an arithmetic formula,
// either a numeric literal or an expression over reliability variables.
type Transition struct {
	From        int
	To          int
	Action      string
	Probability string
}

// Interface is the placeholder for the behaviour of a dependency. It consists
// of the two transitions From --r_ID--> Success and From --(1 - r_ID)--> Error.
type Interface struct {
	ID      string
	From    int
	Success int
	Error   int
}

// FDTMC is a feature-annotated discrete-time Markov chain.
//
// Models are built incrementally with the Create* and Add* methods and treated
// as immutable once shared; the derivation operations ([FDTMC.Inline], [Switch])
// always return new models.
type FDTMC struct {
	states      []State
	transitions []Transition
	interfaces  []Interface

	initial int
	success int
	err     int
}

// New creates an empty model.
func New() *FDTMC {
	return &FDTMC{initial: -1, success: -1, err: -1}
}

// Trivial returns the model initial --1--> success, the identity of
// composition. Its reliability is 1.
func Trivial() *FDTMC {
	m := New()
	init := m.CreateInitialState("init")
	succ := m.CreateSuccessState("success")
	m.mustAdd(init, succ, "", "1")
	return m
}

// CreateState adds a normal state and returns its index.
func (m *FDTMC) CreateState(label string) int {
	return m.addState(label, Normal)
}

// CreateInitialState adds the initial state.
func (m *FDTMC) CreateInitialState(label string) int {
	m.initial = m.addState(label, Initial)
	return m.initial
}

// CreateSuccessState adds the success state.
func (m *FDTMC) CreateSuccessState(label string) int {
	m.success = m.addState(label, Success)
	return m.success
}

// CreateErrorState adds the error state.
func (m *FDTMC) CreateErrorState(label string) int {
	m.err = m.addState(label, Error)
	return m.err
}

func (m *FDTMC) addState(label string, kind Kind) int {
	i := len(m.states)
	m.states = append(m.states, State{Index: i, Label: label, Kind: kind})
	return i
}

// AddTransition adds an edge between two existing states.
func (m *FDTMC) AddTransition(from, to int, action, probability string) error {
	if !m.valid(from) || !m.valid(to) {
		return errors.New(errors.ErrCodeInvalidModel, "transition %d -> %d references an unknown state", from, to)
	}
	if strings.TrimSpace(probability) == "" {
		return errors.New(errors.ErrCodeInvalidModel, "transition %d -> %d has no probability", from, to)
	}
	m.transitions = append(m.transitions, Transition{From: from, To: to, Action: action, Probability: probability})
	return nil
}

func (m *FDTMC) mustAdd(from, to int, action, probability string) {
	if err := m.AddTransition(from, to, action, probability); err != nil {
		panic(err)
	}
}

// CreateInterface adds the placeholder transitions for dependency id between
// from, success and errState.
func (m *FDTMC) CreateInterface(id string, from, success, errState int) (Interface, error) {
	if id == "" {
		return Interface{}, errors.New(errors.ErrCodeInvalidModel, "interface without dependency ID")
	}
	r := ReliabilityVar(id)
	if err := m.AddTransition(from, success, id, r); err != nil {
		return Interface{}, err
	}
	if err := m.AddTransition(from, errState, id, expr.Complement(r)); err != nil {
		m.transitions = m.transitions[:len(m.transitions)-1]
		return Interface{}, err
	}
	iface := Interface{ID: id, From: from, Success: success, Error: errState}
	m.interfaces = append(m.interfaces, iface)
	return iface, nil
}

func (m *FDTMC) valid(i int) bool { return i >= 0 && i < len(m.states) }

// States returns the states in index order.
func (m *FDTMC) States() []State { return slices.Clone(m.states) }

// Transitions returns the transitions in insertion order.
func (m *FDTMC) Transitions() []Transition { return slices.Clone(m.transitions) }

// Interfaces returns the interfaces in insertion order.
func (m *FDTMC) Interfaces() []Interface { return slices.Clone(m.interfaces) }

// InitialState returns the index of the initial state, or -1.
func (m *FDTMC) InitialState() int { return m.initial }

// SuccessState returns the index of the success state, or -1.
func (m *FDTMC) SuccessState() int { return m.success }

// ErrorState returns the index of the error state, or -1.
func (m *FDTMC) ErrorState() int { return m.err }

// Validate checks that the model has exactly one initial and one success
// state and that every probability is a well-formed formula.
func (m *FDTMC) Validate() error {
	counts := make(map[Kind]int)
	for _, s := range m.states {
		counts[s.Kind]++
	}
	if counts[Initial] != 1 {
		return errors.New(errors.ErrCodeInvalidModel, "model has %d initial states, want 1", counts[Initial])
	}
	if counts[Success] != 1 {
		return errors.New(errors.ErrCodeInvalidModel, "model has %d success states, want 1", counts[Success])
	}
	if counts[Error] > 1 {
		return errors.New(errors.ErrCodeInvalidModel, "model has %d error states, want at most 1", counts[Error])
	}
	for _, t := range m.transitions {
		if _, err := expr.Parse(t.Probability); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidModel, err, "transition %d -> %d", t.From, t.To)
		}
	}
	return nil
}

// Dependencies returns the IDs of the interfaces, in insertion order and
// without duplicates.
func (m *FDTMC) Dependencies() []string {
	var out []string
	for _, i := range m.interfaces {
		if !slices.Contains(out, i.ID) {
			out = append(out, i.ID)
		}
	}
	return out
}

// Encode returns a canonical text rendering of the model. Equal encodings
// denote equal models, so the encoding is usable as a cache key.
func (m *FDTMC) Encode() string {
	var b strings.Builder
	for _, s := range m.states {
		fmt.Fprintf(&b, "s %d %s %q\n", s.Index, s.Kind, s.Label)
	}
	for _, t := range m.transitions {
		fmt.Fprintf(&b, "t %d %d %q %s\n", t.From, t.To, t.Action, t.Probability)
	}
	return b.String()
}

// String returns a short summary of the model.
func (m *FDTMC) String() string {
	return fmt.Sprintf("fdtmc(%d states, %d transitions, %d interfaces)",
		len(m.states), len(m.transitions), len(m.interfaces))
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Sanitize maps an identifier to the characters allowed in formula variables.
func Sanitize(id string) string {
	return unsafeChars.ReplaceAllString(id, "_")
}

// ReliabilityVar returns the formula variable standing for the reliability of
// the component id.
func ReliabilityVar(id string) string { return "r_" + Sanitize(id) }

// PresenceVar returns the formula variable standing for the presence of the
// component id.
func PresenceVar(id string) string { return "p_" + Sanitize(id) }
