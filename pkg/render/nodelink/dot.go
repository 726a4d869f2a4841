package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/reana/pkg/rdg"
	"github.com/matzehuels/reana/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the presence condition and model size in node labels.
	// When false, only the node ID is shown.
	Detailed bool

	// Paths, when set, annotates each node with the number of paths reaching
	// it from the root, as returned by [rdg.Node.NumberOfPaths].
	Paths map[*rdg.Node]int
}

// ToDOT converts an RDG to Graphviz DOT format for node-link visualization.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Optional components (presence condition other than "true") are rendered
// with dashed outlines and grey fill. The root, if set, is drawn bold.
func ToDOT(g *rdg.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	root, _ := g.Root()
	for _, n := range g.Nodes() {
		label := fmtLabel(n, opts)
		attrs := fmtAttrs(n, label, n == root)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, d := range n.Dependencies() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID(), d.ID())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *rdg.Node, opts Options) string {
	var parts []string
	if opts.Detailed {
		m := n.Model()
		parts = append(parts,
			"presence: "+n.PresenceCondition(),
			fmt.Sprintf("states: %d", len(m.States())),
			fmt.Sprintf("transitions: %d", len(m.Transitions())),
		)
	}
	if p, ok := opts.Paths[n]; ok {
		parts = append(parts, fmt.Sprintf("paths: %d", p))
	}
	if len(parts) == 0 {
		return n.ID()
	}
	return n.ID() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *rdg.Node, label string, root bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.PresenceCondition() != "true":
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case root:
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz <svg> tag with one whose viewBox
// starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// Render produces the diagram of g in the given format.
func Render(ctx context.Context, g *rdg.Graph, f render.Format, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch f {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatPDF:
		return RenderPDF(ctx, dot)
	case render.FormatPNG:
		return RenderPNG(ctx, dot, 2.0)
	default:
		return RenderSVG(ctx, dot)
	}
}
