// Package dag records the import graph discovered by a crawl.
//
// # Overview
//
// Each module the crawler visits becomes a [Node] whose ID is its absolute
// module reference and whose Row is its breadth-first depth from the entry
// point. Each resolved import becomes an [Edge] carrying the specifier as
// it was written in the source; redirects are recorded as edges from the
// requested URL to its target, marked with [MetaRedirect].
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "file:///app/main.mjs"})
//	g.AddNode(dag.Node{ID: "https://cdn.example/lib.mjs", Row: 1, Kind: dag.NodeKindRemote})
//	g.AddEdge(dag.Edge{
//		From: "file:///app/main.mjs",
//		To:   "https://cdn.example/lib.mjs",
//		Meta: dag.Metadata{dag.MetaSpecifier: "https://cdn.example/lib.mjs"},
//	})
//
// The graph is only used for reporting and rendering (see the nodelink
// package); the policy is built independently of it.
//
// # Cycles
//
// Despite the name, ECMAScript modules may import each other cyclically and
// the graph keeps those edges. [DAG.Acyclic] reports whether any cycle exists.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
package dag
