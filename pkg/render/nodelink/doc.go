// Package nodelink renders reliability dependence graphs as node-link
// diagrams.
//
// # Usage
//
// Convert a graph to DOT format, then render it to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Render] picks the output by [render.Format]; PDF and PNG go through
// rsvg-convert.
//
// # Options
//
//   - Detailed: node labels include the presence condition and model size
//   - Paths: node labels include the number of paths from the root, which
//     shows where the closure cache saves work
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded box
// nodes. Edges point from a component to the components it depends on.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
