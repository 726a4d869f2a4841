package analysis_test

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/iteration"
	"github.com/matzehuels/reana/pkg/rdg"
)

func ExampleAnalyzer_Evaluate() {
	fm, _ := featuremodel.Parse("Base && (Fast || Safe)")

	g := rdg.New()
	_, _ = g.AddNode("App", "true", caller("0.9", "Cache"))
	_, _ = g.AddNode("Cache", "Fast", caller("0.5"))
	_ = g.AddDependency("App", "Cache")
	root, _ := g.Root()

	cfgs := []featuremodel.Configuration{
		featuremodel.NewConfiguration("Base", "Fast"),
		featuremodel.NewConfiguration("Base", "Safe"),
		featuremodel.NewConfiguration("Fast"),
	}

	a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
	res, err := a.Evaluate(context.Background(), analysis.FeatureFamily, root, iteration.Sequential, slices.Values(cfgs))
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range res.Entries() {
		if e.Invalid() {
			fmt.Println(e.Configuration, "INVALID")
			continue
		}
		fmt.Printf("%s %.2f\n", e.Configuration, e.Reliability)
	}
	// Output:
	// [Base, Fast] 0.45
	// [Base, Safe] 0.90
	// [Fast] INVALID
}

func ExampleParseStrategy() {
	s, err := analysis.ParseStrategy("feature-family-product")
	fmt.Println(s, s.Lazy(), err)
	// Output:
	// feature-family-product false <nil>
}
