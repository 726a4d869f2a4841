// Package analysis computes the reliability of the products of a product
// line.
//
// An [Analyzer] combines a feature model, a model checker and an expression
// solver. [Analyzer.Evaluate] runs one [Strategy] over the dependency graph
// below a root node for a stream of configurations and returns [Results].
//
// # Strategies
//
// Product-based strategies derive one model per configuration. Family-based
// strategies derive one model for the whole product line, parameterized by
// presence variables p_<id>, and bind those variables per configuration.
// Feature-based strategies model-check every component on its own, leaving
// the reliabilities of its dependencies as variables r_<id>, and compose the
// resulting formulas instead of the models:
//
//	product                 fold models per configuration, check, solve
//	family                  fold one family model, check once, solve lazily
//	family-product          like family, solving every configuration eagerly
//	feature-family          check components, fold one family formula, solve lazily
//	feature-product         check components, evaluate numbers per configuration
//	feature-family-product  check components, share what the feature model decides,
//	                        evaluate the rest per configuration with reuse
//
// All strategies compute the same reliabilities. A cyclic dependency graph
// stops the analysis before any configuration is evaluated; any other
// failure is recorded for the configuration it concerns.
//
// # Usage
//
//	a := analysis.NewAnalyzer(fm, checker.NewEliminator(), analysis.Options{})
//	res, err := a.Evaluate(ctx, analysis.FeatureFamily, root, iteration.Parallel, slices.Values(cfgs))
//	if err != nil {
//	    return err
//	}
//	for _, e := range res.Entries() {
//	    fmt.Println(e.Configuration, e.Reliability, e.Err)
//	}
package analysis
