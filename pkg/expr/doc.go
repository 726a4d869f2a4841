// Package expr parses and evaluates the expression language shared by
// presence conditions, feature models and reliability formulas.
//
// Expressions use HCL expression syntax (github.com/hashicorp/hcl/v2/hclsyntax)
// and evaluate over cty values (github.com/zclconf/go-cty). Two dialects are
// in use:
//
//   - Boolean formulas over feature names: `Sensor && (SQLite || Memory)`.
//     Supported operators are &&, ||, !, ==, != and the conditional `c ? a : b`.
//   - Arithmetic formulas over reliability and presence variables:
//     `r_Sensor * (p_Cache * (0.99) + 1 - p_Cache)`.
//
// # Building Formulas
//
// [Product], [Sum], [Complement] and [Quotient] build arithmetic formulas as
// strings. Operands that are numeric literals are folded eagerly, so a model
// without variables always reduces to a single number.
//
// # Solving
//
// [Solver] evaluates arithmetic formulas under a set of variable bindings. It
// keeps a parse cache keyed by formula text and is safe for concurrent use.
package expr
