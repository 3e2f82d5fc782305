// Package specifier extracts statically determinable import specifiers from
// ECMAScript module source text.
//
// An [Extractor] turns source bytes into the ordered set of specifiers the
// module references. The [JavaScript] extractor recognizes:
//
//   - import declarations: import x from "spec", import "spec"
//   - re-exports with a source: export { x } from "spec", export * from "spec"
//   - dynamic imports whose argument is a string literal: import("spec")
//
// A dynamic import with any other argument cannot be resolved without
// executing the module and fails with a DYNAMIC_IMPORT error naming the file
// and line. Extraction is purely syntactic; see package modref for resolution.
//
// The bundled tree-sitter JavaScript grammar predates ES2022 string module
// export names, so a module containing import { a as "b" } from "spec" fails
// with PARSE_ERROR and aborts the crawl.
//
// Use [Func] to plug in a fake extractor in tests:
//
//	ext := specifier.Func(func(ctx context.Context, src []byte, name string) ([]string, error) {
//	    return []string{"./dep.mjs"}, nil
//	})
package specifier
