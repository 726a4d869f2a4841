// Package fdtmc models component behaviour as feature-annotated
// discrete-time Markov chains.
//
// A model has one initial state, one success state and optionally one error
// state. Transition probabilities are arithmetic formulas (see package expr).
// Calls to other components are modelled by interfaces: a pair of transitions
//
//	from --r_dep--> success
//	from --(1 - r_dep)--> error
//
// where r_dep is the reliability variable of the dependency. Interfaces are
// what makes models composable: [FDTMC.Inline] replaces them by the models of
// the dependencies, while a parametric model checker leaves r_dep symbolic.
//
// Identifiers may contain characters that are not valid in formulas.
// [ReliabilityVar] and [PresenceVar] map them to safe variable names.
package fdtmc
