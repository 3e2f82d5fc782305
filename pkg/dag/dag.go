package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil once added to a DAG.
type Metadata map[string]any

// NodeKind classifies a module by where its source comes from.
type NodeKind int

const (
	// NodeKindLocal is a module read from the local filesystem.
	NodeKindLocal NodeKind = iota
	// NodeKindRemote is a module fetched over https: and cached.
	NodeKindRemote
	// NodeKindData is a data: URL dependency. It is never crawled.
	NodeKindData
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindLocal:
		return "local"
	case NodeKindRemote:
		return "remote"
	case NodeKindData:
		return "data"
	}
	return "unknown"
}

// Node is one module in the import graph.
type Node struct {
	ID   string   // Module reference
	Row  int      // Breadth-first depth from the entry point (0 = entry)
	Kind NodeKind // Where the module comes from
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge is an import from one module to another. Meta carries the specifier
// under the "specifier" key; redirect edges set "redirect" to true.
type Edge struct {
	From string   // Importing module
	To   string   // Imported module
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// Specifier returns the import specifier recorded on the edge, if any.
func (e Edge) Specifier() string {
	s, _ := e.Meta[MetaSpecifier].(string)
	return s
}

// IsRedirect reports whether the edge models an HTTP redirect.
func (e Edge) IsRedirect() bool {
	r, _ := e.Meta[MetaRedirect].(bool)
	return r
}

// Edge metadata keys.
const (
	MetaSpecifier = "specifier"
	MetaRedirect  = "redirect"
)

// DAG is the import graph discovered by a crawl. Nodes are kept in insertion
// order, which for a crawl is the order modules were discovered.
//
// ECMAScript modules may import each other cyclically, so edges may point to
// a node in the same or an earlier row; use [DAG.Acyclic] to check.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node)
	return nil
}

// EnsureNode returns the node with n.ID, adding n first if it is missing.
func (d *DAG) EnsureNode(n Node) (*Node, error) {
	if existing, ok := d.nodes[n.ID]; ok {
		return existing, nil
	}
	if err := d.AddNode(n); err != nil {
		return nil, err
	}
	return d.nodes[n.ID], nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is
// missing. Parallel edges are allowed; a module may import the same target
// through different specifiers.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	if !slices.Contains(d.outgoing[e.From], e.To) {
		d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
		d.incoming[e.To] = append(d.incoming[e.To], e.From)
	}
	return nil
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the distinct IDs of modules imported by id.
// The returned slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the distinct IDs of modules importing id.
// The returned slice should not be modified.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns the nodes at the given depth, in insertion order.
func (d *DAG) NodesInRow(row int) []*Node {
	var result []*Node
	for _, n := range d.order {
		if n.Row == row {
			result = append(result, n)
		}
	}
	return result
}

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int {
	rows := make(map[int]struct{})
	for _, n := range d.order {
		rows[n.Row] = struct{}{}
	}
	return slices.Sorted(maps.Keys(rows))
}

// CountKind returns the number of nodes of the given kind.
func (d *DAG) CountKind(kind NodeKind) int {
	var count int
	for _, n := range d.order {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.order {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, n := range d.order {
		if len(d.outgoing[n.ID]) == 0 {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

// Acyclic reports whether the import graph has no directed cycles.
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Acyclic() bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, n := range d.order {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return false
			}
		}
	}
	return true
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
