// Package io provides JSON import and export for crawl import graphs.
//
// # JSON Format
//
//	{
//	  "nodes": [
//	    {"id": "file:///app/main.mjs", "kind": "local"},
//	    {"id": "https://cdn.example/lib.mjs", "row": 1, "kind": "remote"}
//	  ],
//	  "edges": [
//	    {"from": "file:///app/main.mjs", "to": "https://cdn.example/lib.mjs",
//	     "specifier": "https://cdn.example/lib.mjs"}
//	  ]
//	}
//
// Node "row" is the crawl depth and is omitted for the entry point. Edges
// created by HTTP redirects carry "redirect": true instead of a specifier.
//
// Use [ExportJSON] or [WriteJSON] to write a graph and [ImportJSON] or
// [ReadJSON] to read one back; the round trip preserves node order, depth,
// kind, metadata and edge specifiers.
package io
