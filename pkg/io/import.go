package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/rdg"
)

// Document is a decoded graph file.
type Document struct {
	Graph *rdg.Graph
	// FeatureModel is the feature model formula stored with the graph, or
	// empty when the file carries none.
	FeatureModel string
}

// ReadRDG decodes a JSON graph from r.
//
// ReadRDG returns an error if:
//   - The JSON is malformed
//   - A node has an invalid or duplicate ID
//   - A dependency, model reference or root names an unknown node or model
//   - A model is malformed or has an interface to an undeclared dependency
//
// Errors carry an INVALID_GRAPH or INVALID_MODEL code and describe which node
// caused the problem. Cycles are not rejected. ReadRDG does not close r.
func ReadRDG(r io.Reader) (*Document, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph")
	}

	shared := make(map[string]*fdtmc.FDTMC, len(data.Models))
	for name, m := range data.Models {
		dm, err := decodeModel(m)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "model %q", name)
		}
		shared[name] = dm
	}

	g := rdg.New()
	for _, n := range data.Nodes {
		var m *fdtmc.FDTMC
		switch {
		case n.Model != nil && n.ModelRef != "":
			return nil, errors.New(errors.ErrCodeInvalidModel, "node %q: both model and modelRef given", n.ID)
		case n.Model != nil:
			dm, err := decodeModel(*n.Model)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "node %q", n.ID)
			}
			m = dm
		case n.ModelRef != "":
			dm, ok := shared[n.ModelRef]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidModel, "node %q: unknown model %q", n.ID, n.ModelRef)
			}
			m = dm
		}
		if m != nil {
			for _, dep := range m.Dependencies() {
				if !slices.Contains(n.Dependencies, dep) {
					return nil, errors.New(errors.ErrCodeInvalidModel, "node %q: interface to undeclared dependency %q", n.ID, dep)
				}
			}
		}
		if _, err := g.AddNode(n.ID, n.Presence, m); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, n := range data.Nodes {
		for _, dep := range n.Dependencies {
			if err := g.AddDependency(n.ID, dep); err != nil {
				return nil, fmt.Errorf("dependency %s->%s: %w", n.ID, dep, err)
			}
		}
	}
	if data.Root != "" {
		if err := g.SetRoot(data.Root); err != nil {
			return nil, err
		}
	}
	if g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "graph has no nodes")
	}

	return &Document{Graph: g, FeatureModel: data.FeatureModel}, nil
}

// ImportRDG reads a JSON graph file at path.
//
// ImportRDG returns the same validation errors as [ReadRDG]. A missing file
// yields a FILE_NOT_FOUND error.
func ImportRDG(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRDG(f)
}

func decodeModel(in model) (*fdtmc.FDTMC, error) {
	m := fdtmc.New()
	index := make(map[string]int, len(in.States))
	for _, s := range in.States {
		if _, dup := index[s.Label]; dup {
			return nil, errors.New(errors.ErrCodeInvalidModel, "duplicate state label %q", s.Label)
		}
		kind, err := fdtmc.ParseKind(s.Kind)
		if err != nil {
			return nil, err
		}
		switch kind {
		case fdtmc.Initial:
			index[s.Label] = m.CreateInitialState(s.Label)
		case fdtmc.Success:
			index[s.Label] = m.CreateSuccessState(s.Label)
		case fdtmc.Error:
			index[s.Label] = m.CreateErrorState(s.Label)
		default:
			index[s.Label] = m.CreateState(s.Label)
		}
	}

	lookup := func(label string) (int, error) {
		i, ok := index[label]
		if !ok {
			return 0, errors.New(errors.ErrCodeInvalidModel, "unknown state %q", label)
		}
		return i, nil
	}

	for _, t := range in.Transitions {
		from, err := lookup(t.From)
		if err != nil {
			return nil, err
		}
		to, err := lookup(t.To)
		if err != nil {
			return nil, err
		}
		if err := m.AddTransition(from, to, t.Action, t.Probability); err != nil {
			return nil, err
		}
	}
	for _, i := range in.Interfaces {
		from, err := lookup(i.From)
		if err != nil {
			return nil, err
		}
		succ, err := lookup(i.Success)
		if err != nil {
			return nil, err
		}
		fail, err := lookup(i.Error)
		if err != nil {
			return nil, err
		}
		if _, err := m.CreateInterface(i.Dependency, from, succ, fail); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
