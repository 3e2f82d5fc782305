// Package render converts rendered import graphs between output formats.
//
// The [nodelink] subpackage turns a crawl's import graph into Graphviz DOT
// and SVG. This package picks the output [Format] from a file extension and
// converts SVG to PDF or PNG with the external rsvg-convert tool (librsvg):
//
//	format, err := render.FormatFromPath("imports.pdf")
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/httpsvendor/pkg/render/nodelink
package render
