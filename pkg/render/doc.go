// Package render provides visualization output for reliability dependence
// graphs.
//
// # Overview
//
// The [nodelink] subpackage draws an RDG as a directed node-link diagram
// with Graphviz. This package holds the format conversion it shares:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG through the external rsvg-convert tool
// (from librsvg). When the tool is missing they fail with an
// INVALID_INPUT error that names the install command.
//
// [nodelink]: github.com/matzehuels/reana/pkg/render/nodelink
package render
