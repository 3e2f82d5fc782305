package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/httpsvendor/pkg/dag"
)

var kindToString = map[dag.NodeKind]string{
	dag.NodeKindLocal:  "local",
	dag.NodeKindRemote: "remote",
	dag.NodeKindData:   "data",
}

type graph struct {
	Meta  dag.Metadata `json:"meta,omitempty"`
	Nodes []node       `json:"nodes"`
	Edges []edge       `json:"edges"`
}

type node struct {
	ID   string       `json:"id"`
	Row  *int         `json:"row,omitempty"`
	Kind string       `json:"kind,omitempty"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Specifier string `json:"specifier,omitempty"`
	Redirect  bool   `json:"redirect,omitempty"`
}

// WriteJSON encodes an import graph as JSON and writes it to w.
// Nodes and edges are written in discovery order.
// This format can be re-imported with [ReadJSON].
func WriteJSON(g *dag.DAG, w io.Writer) error {
	out := graph{
		Nodes: make([]node, g.NodeCount()),
		Edges: make([]edge, g.EdgeCount()),
	}
	if meta := g.Meta(); len(meta) > 0 {
		out.Meta = meta
	}

	for i, n := range g.Nodes() {
		nd := node{ID: n.ID, Kind: kindToString[n.Kind]}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		if n.Row != 0 {
			row := n.Row
			nd.Row = &row
		}
		out.Nodes[i] = nd
	}
	for i, e := range g.Edges() {
		out.Edges[i] = edge{From: e.From, To: e.To, Specifier: e.Specifier(), Redirect: e.IsRedirect()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes an import graph to a JSON file at path.
func ExportJSON(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
