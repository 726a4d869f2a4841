package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/rdg"
)

type document struct {
	Root         string           `json:"root,omitempty"`
	FeatureModel string           `json:"featureModel,omitempty"`
	Nodes        []node           `json:"nodes"`
	Models       map[string]model `json:"models,omitempty"`
}

type node struct {
	ID           string   `json:"id"`
	Presence     string   `json:"presence,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Model        *model   `json:"model,omitempty"`
	ModelRef     string   `json:"modelRef,omitempty"`
}

type model struct {
	States      []state      `json:"states"`
	Transitions []transition `json:"transitions"`
	Interfaces  []iface      `json:"interfaces,omitempty"`
}

type state struct {
	Label string `json:"label"`
	Kind  string `json:"kind,omitempty"`
}

type transition struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Action      string `json:"action,omitempty"`
	Probability string `json:"probability"`
}

type iface struct {
	Dependency string `json:"dependency"`
	From       string `json:"from"`
	Success    string `json:"success"`
	Error      string `json:"error"`
}

// WriteRDG encodes g as JSON and writes it to w. Models shared by several
// nodes are written once under "models", named after the first node using
// them. The output can be re-imported with [ReadRDG].
func WriteRDG(g *rdg.Graph, featureModel string, w io.Writer) error {
	out := document{FeatureModel: featureModel, Nodes: make([]node, 0, g.NodeCount())}
	if root, err := g.Root(); err == nil {
		out.Root = root.ID()
	}

	uses := make(map[*fdtmc.FDTMC]int)
	for _, n := range g.Nodes() {
		uses[n.Model()]++
	}
	names := make(map[*fdtmc.FDTMC]string)

	for _, n := range g.Nodes() {
		nd := node{ID: n.ID()}
		if p := n.PresenceCondition(); p != "true" {
			nd.Presence = p
		}
		for _, d := range n.Dependencies() {
			nd.Dependencies = append(nd.Dependencies, d.ID())
		}

		switch m := n.Model(); {
		case uses[m] > 1:
			name, ok := names[m]
			if !ok {
				name = n.ID()
				names[m] = name
				if out.Models == nil {
					out.Models = make(map[string]model)
				}
				out.Models[name] = encodeModel(m)
			}
			nd.ModelRef = name
		case !isTrivial(m):
			em := encodeModel(m)
			nd.Model = &em
		}
		out.Nodes = append(out.Nodes, nd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportRDG writes g to a JSON file at path.
// This is a convenience wrapper around [WriteRDG] for file-based output.
func ExportRDG(g *rdg.Graph, featureModel, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteRDG(g, featureModel, f)
}

func isTrivial(m *fdtmc.FDTMC) bool {
	return m.Encode() == fdtmc.Trivial().Encode()
}

func encodeModel(m *fdtmc.FDTMC) model {
	states := m.States()
	label := func(i int) string { return states[i].Label }

	out := model{States: make([]state, len(states))}
	for i, s := range states {
		out.States[i] = state{Label: s.Label}
		if s.Kind != fdtmc.Normal {
			out.States[i].Kind = s.Kind.String()
		}
	}
	for _, t := range m.Transitions() {
		if m.IsInterfaceEdge(t) {
			continue
		}
		out.Transitions = append(out.Transitions, transition{
			From:        label(t.From),
			To:          label(t.To),
			Action:      t.Action,
			Probability: t.Probability,
		})
	}
	for _, i := range m.Interfaces() {
		out.Interfaces = append(out.Interfaces, iface{
			Dependency: i.ID,
			From:       label(i.From),
			Success:    label(i.Success),
			Error:      label(i.Error),
		})
	}
	return out
}
