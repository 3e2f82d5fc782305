// Package nodelink renders import graphs as node-link diagrams.
//
// # Usage
//
// Convert an import graph to DOT, then render it in-process with Graphviz:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Root: "file:///app/"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PDF and PNG go through SVG and require librsvg (rsvg-convert):
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// # Styling
//
// Local modules are white boxes labelled with their path relative to
// Options.Root, remote modules are light blue and labelled with their URL,
// and data: dependencies are dashed grey boxes. Redirect edges are dashed.
// With Options.Detailed, labels include the crawl depth and node metadata
// and edges are labelled with the import specifier.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
