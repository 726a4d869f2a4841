// Package pkg provides the core libraries for reana, the reliability
// analysis of software product lines.
//
// # Overview
//
// A product line is described by a reliability dependence graph (RDG): every
// component carries a feature-annotated Markov chain (FDTMC) and a presence
// condition over features, and depends on the components it calls. A feature
// model constrains which feature combinations are valid products. reana
// computes the probability that a product reaches success, either one
// product at a time or symbolically for the whole family.
//
// # Architecture
//
// The typical data flow:
//
//	graph file (JSON)
//	       ↓
//	  [io] package (decode graph, models, configurations)
//	       ↓
//	  [rdg] package (dependence graph, closure, path counts)
//	       ↓
//	  [analysis] package (strategies over [derivation], [checker], [presence])
//	       ↓
//	  [analysis.Results] (report, JSON, stored runs)
//
// # Quick Start
//
//	doc, _ := io.ImportRDG("bsn.json")
//	fm, _ := featuremodel.Parse(doc.FeatureModel)
//	root, _ := doc.Graph.Root()
//	cfgs, _ := fm.ValidConfigurations()
//
//	res, _ := analysis.NewAnalyzer(fm, nil, analysis.Options{}).
//	    Evaluate(ctx, analysis.FeatureFamily, root, iteration.Parallel, slices.Values(cfgs))
//	for _, e := range res.Entries() {
//	    fmt.Println(e.Configuration, e.Reliability)
//	}
//
// # Main Packages
//
// ## Models
//
// [expr] - Arithmetic and boolean expressions over named variables, parsed
// with HCL and evaluated with cty.
//
// [fdtmc] - Feature-annotated discrete-time Markov chains with interface
// placeholders for the reliabilities of dependencies.
//
// [featuremodel] - Feature models compiled to binary decision diagrams, and
// configurations.
//
// [presence] - Evaluation of presence conditions against configurations.
//
// [rdg] - The reliability dependence graph.
//
// ## Analysis
//
// [checker] - Parametric model checking of an FDTMC into a reliability
// formula, with a cache keyed by model hash.
//
// [derivation] - Derivation of products and families from per-component
// results.
//
// [iteration] - Sequential and parallel iteration over configurations.
//
// [analysis] - The analysis strategies and their results.
//
// ## Infrastructure
//
// [pipeline] - Load, analyze and report, used by the CLI.
//
// [cache] - Formula cache backends: file, Redis and null.
//
// [store] - Persisted run reports in files or MongoDB.
//
// [observability] - Timing, memory, formula and model collectors.
//
// [render/nodelink] - Graphviz diagrams of dependence graphs.
//
// [errors] - Coded errors shared by every package.
//
// # Testing
//
//	go test ./pkg/...        # All tests
//	go test -run Example     # Examples only
//
// [analysis]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/analysis
// [analysis.Results]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/analysis#Results
// [cache]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/cache
// [checker]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/checker
// [derivation]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/derivation
// [errors]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/errors
// [expr]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/expr
// [fdtmc]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/fdtmc
// [featuremodel]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/featuremodel
// [io]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/io
// [iteration]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/iteration
// [observability]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/pipeline
// [presence]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/presence
// [rdg]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/rdg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/render/nodelink
// [store]: https://pkg.go.dev/github.com/matzehuels/reana/pkg/store
package pkg
