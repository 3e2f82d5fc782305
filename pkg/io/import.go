package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/httpsvendor/pkg/dag"
)

var kindFromString = map[string]dag.NodeKind{
	"local":  dag.NodeKindLocal,
	"remote": dag.NodeKindRemote,
	"data":   dag.NodeKindData,
}

// ReadJSON decodes a JSON import graph from r.
//
// Each node must have an "id" field; "row", "kind" and "meta" are optional.
// Each edge must have "from" and "to" fields that reference node IDs.
// ReadJSON returns an error for malformed JSON, unknown node kinds,
// duplicate node IDs and edges to unknown nodes. It does not close r.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(data.Meta)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		if n.Row != nil {
			nd.Row = *n.Row
		}
		if n.Kind != "" {
			k, ok := kindFromString[n.Kind]
			if !ok {
				return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
			}
			nd.Kind = k
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		meta := dag.Metadata{}
		if e.Specifier != "" {
			meta[dag.MetaSpecifier] = e.Specifier
		}
		if e.Redirect {
			meta[dag.MetaRedirect] = true
		}
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Meta: meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
