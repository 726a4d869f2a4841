// Package rdg provides the reliability dependence graph (RDG) of a product
// line.
//
// Each [Node] is a software component with a presence condition and a
// reliability model; edges point from a component to the components its
// model calls through interfaces. A [Graph] owns the nodes.
//
// # Closures
//
// Analyses process components bottom-up, dependencies first. The order is
// given by [Node.TransitiveDependencies], a post-order of the reachable
// sub-graph that is memoized per node: once a node's closure is known, every
// ancestor reuses it. [Node.NumberOfPaths] counts how often each node would
// be evaluated without that reuse, and [EvaluationEconomy] turns the counts
// into a saving.
//
// # Cycles
//
// An RDG must be acyclic. Cycles are only detected when a closure is
// requested and are reported as [errors.CyclicDependencyError] with the
// offending path, for example
//
//	CYCLIC_DEPENDENCY: cyclic dependency detected: A -> B -> A
package rdg
