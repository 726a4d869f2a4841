package io

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/iteration"
)

const sample = `{
  "root": "App",
  "featureModel": "Root && (Sensor || Memory)",
  "nodes": [
    {
      "id": "App",
      "presence": "Root",
      "dependencies": ["Sensor", "Memory"],
      "model": {
        "states": [
          {"label": "init", "kind": "initial"},
          {"label": "call"},
          {"label": "mid"},
          {"label": "success", "kind": "success"},
          {"label": "error", "kind": "error"}
        ],
        "transitions": [
          {"from": "init", "to": "call", "probability": "0.99"},
          {"from": "init", "to": "error", "probability": "0.01"}
        ],
        "interfaces": [
          {"dependency": "Sensor", "from": "call", "success": "mid", "error": "error"},
          {"dependency": "Memory", "from": "mid", "success": "success", "error": "error"}
        ]
      }
    },
    {"id": "Sensor", "presence": "Sensor", "modelRef": "leaf"},
    {"id": "Memory", "presence": "Memory", "modelRef": "leaf"}
  ],
  "models": {
    "leaf": {
      "states": [
        {"label": "init", "kind": "initial"},
        {"label": "success", "kind": "success"},
        {"label": "error", "kind": "error"}
      ],
      "transitions": [
        {"from": "init", "to": "success", "probability": "0.9"},
        {"from": "init", "to": "error", "probability": "0.1"}
      ]
    }
  }
}`

func TestReadRDG(t *testing.T) {
	doc, err := ReadRDG(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if doc.FeatureModel != "Root && (Sensor || Memory)" {
		t.Errorf("FeatureModel = %q", doc.FeatureModel)
	}

	g := doc.Graph
	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3", g.NodeCount())
	}
	root, _ := g.Root()
	if root.ID() != "App" || len(root.Dependencies()) != 2 {
		t.Errorf("root = %s with %d dependencies", root.ID(), len(root.Dependencies()))
	}
	if got := root.Model().Dependencies(); !slices.Equal(got, []string{"Sensor", "Memory"}) {
		t.Errorf("interfaces = %v", got)
	}

	sensor, _ := g.Node("Sensor")
	memory, _ := g.Node("Memory")
	if sensor.Model() != memory.Model() {
		t.Error("nodes naming the same modelRef do not share the model")
	}
	if sensor.PresenceCondition() != "Sensor" {
		t.Errorf("presence = %q", sensor.PresenceCondition())
	}
}

func TestReadRDG_Errors(t *testing.T) {
	leaf := `{"states":[{"label":"i","kind":"initial"},{"label":"s","kind":"success"}],"transitions":[{"from":"i","to":"s","probability":"1"}]}`
	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"malformed json", `{"nodes": [`, errors.ErrCodeInvalidInput},
		{"no nodes", `{"nodes": []}`, errors.ErrCodeInvalidGraph},
		{"empty id", `{"nodes": [{"id": ""}]}`, errors.ErrCodeInvalidGraph},
		{"duplicate id", `{"nodes": [{"id": "A"}, {"id": "A"}]}`, errors.ErrCodeInvalidGraph},
		{"unknown dependency", `{"nodes": [{"id": "A", "dependencies": ["B"]}]}`, errors.ErrCodeInvalidGraph},
		{"unknown root", `{"root": "B", "nodes": [{"id": "A"}]}`, errors.ErrCodeInvalidGraph},
		{"unknown model", `{"nodes": [{"id": "A", "modelRef": "x"}]}`, errors.ErrCodeInvalidModel},
		{"model and ref", `{"nodes": [{"id": "A", "modelRef": "x", "model": ` + leaf + `}]}`, errors.ErrCodeInvalidModel},
		{"unknown state", `{"nodes": [{"id": "A", "model": {"states": [{"label": "i", "kind": "initial"}], "transitions": [{"from": "i", "to": "s", "probability": "1"}]}}]}`, errors.ErrCodeInvalidModel},
		{"no success", `{"nodes": [{"id": "A", "model": {"states": [{"label": "i", "kind": "initial"}], "transitions": []}}]}`, errors.ErrCodeInvalidModel},
		{"bad kind", `{"nodes": [{"id": "A", "model": {"states": [{"label": "i", "kind": "start"}], "transitions": []}}]}`, errors.ErrCodeInvalidModel},
		{"undeclared interface", `{"nodes": [{"id": "A", "model": {"states": [{"label": "i", "kind": "initial"}, {"label": "s", "kind": "success"}, {"label": "e", "kind": "error"}], "transitions": [], "interfaces": [{"dependency": "B", "from": "i", "success": "s", "error": "e"}]}}, {"id": "B"}]}`, errors.ErrCodeInvalidModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRDG(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadRDG_KeepsCycles(t *testing.T) {
	doc, err := ReadRDG(strings.NewReader(`{"nodes": [{"id": "A", "dependencies": ["B"]}, {"id": "B", "dependencies": ["A"]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	root, _ := doc.Graph.Root()
	if _, err := root.TransitiveDependencies(); !errors.Is(err, errors.ErrCodeCyclicDependency) {
		t.Errorf("error = %v, want CYCLIC_DEPENDENCY", err)
	}
}

func TestWriteRDG_RoundTrip(t *testing.T) {
	doc, err := ReadRDG(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "rdg.json")
	if err := ExportRDG(doc.Graph, doc.FeatureModel, path); err != nil {
		t.Fatal(err)
	}
	again, err := ImportRDG(path)
	if err != nil {
		t.Fatal(err)
	}

	if again.FeatureModel != doc.FeatureModel {
		t.Errorf("FeatureModel = %q", again.FeatureModel)
	}
	for _, n := range doc.Graph.Nodes() {
		m, ok := again.Graph.Node(n.ID())
		if !ok {
			t.Fatalf("node %s lost", n.ID())
		}
		if m.Model().Encode() != n.Model().Encode() {
			t.Errorf("%s: model changed:\n%s\nvs\n%s", n.ID(), n.Model().Encode(), m.Model().Encode())
		}
		if m.PresenceCondition() != n.PresenceCondition() {
			t.Errorf("%s: presence %q, want %q", n.ID(), m.PresenceCondition(), n.PresenceCondition())
		}
	}
	s, _ := again.Graph.Node("Sensor")
	mem, _ := again.Graph.Node("Memory")
	if s.Model() != mem.Model() {
		t.Error("shared model was duplicated")
	}
}

func TestImportRDG_NotFound(t *testing.T) {
	_, err := ImportRDG(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestReadConfigurations(t *testing.T) {
	in := "# products\nRoot,Sensor\n\n  Memory , Root \nRoot,Sensor,Memory\n"
	got, err := ReadConfigurations(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Root,Sensor", "Memory,Root", "Memory,Root,Sensor"}
	if len(got) != len(want) {
		t.Fatalf("got %d configurations, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Key() != want[i] {
			t.Errorf("configuration %d = %s, want %s", i, got[i].Key(), want[i])
		}
	}
}

func TestWriteResults(t *testing.T) {
	doc, err := ReadRDG(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	fm, err := featuremodel.Parse(doc.FeatureModel)
	if err != nil {
		t.Fatal(err)
	}
	root, _ := doc.Graph.Root()
	cfgs := []featuremodel.Configuration{
		featuremodel.ParseConfiguration("Root,Sensor"),
		featuremodel.ParseConfiguration("Sensor"),
	}
	res, err := analysis.NewAnalyzer(fm, nil, analysis.Options{}).
		Evaluate(context.Background(), analysis.FeatureFamily, root, iteration.Sequential, slices.Values(cfgs))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteResults(res, &buf); err != nil {
		t.Fatal(err)
	}
	var out resultsDoc
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Strategy != "feature-family" || out.Formula == "" || len(out.Results) != 2 {
		t.Fatalf("decoded %+v", out)
	}
	if r := out.Results[0].Reliability; r == nil || *r < 0.891-1e-9 || *r > 0.891+1e-9 {
		t.Errorf("reliability = %v, want 0.891", r)
	}
	if out.Results[1].Code != string(errors.ErrCodeInvalidConfiguration) {
		t.Errorf("code = %q", out.Results[1].Code)
	}
}
