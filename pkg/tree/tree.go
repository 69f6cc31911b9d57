package tree

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Tree.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Tree.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique within a tree.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrMissingFeature is returned by [Tree.AddNode] when a split node does
	// not name the feature it branches on.
	ErrMissingFeature = errors.New("split node must name a feature")

	// ErrUnknownSourceNode is returned by [Tree.AddEdge] when the From node
	// does not exist in the tree.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Tree.AddEdge] when the To node
	// does not exist in the tree.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrEdgeFromLeaf is returned by [Tree.AddEdge] when the source node is a
	// leaf or default leaf. Leaves are terminal.
	ErrEdgeFromLeaf = errors.New("edges must originate at a split node")

	// ErrDuplicateParent is returned by [Tree.AddEdge] when the target node
	// already has a parent edge. Each non-root node has exactly one parent.
	ErrDuplicateParent = errors.New("node already has a parent edge")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the tree,
// typically provenance (model name, training date). Metadata maps are never
// nil after AddNode.
type Metadata map[string]any

// NodeKind distinguishes the three node variants.
type NodeKind int

const (
	// KindSplit is a decision point branching on one feature.
	KindSplit NodeKind = iota
	// KindLeaf is a terminal node carrying a bid output.
	KindLeaf
	// KindDefaultLeaf is a leaf reached via the fallback path when no sibling
	// condition on its parent matches. Semantically a leaf; structurally
	// marked so the branch orderer routes it to the "else" branch.
	KindDefaultLeaf
)

// String returns the lowercase name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindSplit:
		return "split"
	case KindLeaf:
		return "leaf"
	case KindDefaultLeaf:
		return "default_leaf"
	}
	return "unknown"
}

// IsLeaf reports whether the kind is a leaf or default leaf.
func (k NodeKind) IsLeaf() bool {
	return k == KindLeaf || k == KindDefaultLeaf
}

// Node represents one vertex of a bidding tree.
//
// The zero value is not usable: ID and Kind must be set before adding to a
// Tree, and splits must additionally name their Feature.
type Node struct {
	ID   string   // Unique identifier within the tree
	Kind NodeKind // Split, Leaf, or DefaultLeaf

	// Feature is the user attribute this node branches on. Splits only.
	Feature string

	// Output is the bid amount in the buyer's currency. Leaves only.
	Output float64
	// NoBid renders the reserved no_bid sentinel instead of Output.
	NoBid bool
	// Label is the display name emitted ahead of the value for smart leaves.
	Label string
	// Smart selects the alternate leaf syntax with a leaf_name line.
	Smart bool

	// State maps feature names to the constraint already enforced by
	// ancestors. It is populated by [Tree.ComputeStates] and is never printed
	// by the compiler.
	State State

	// Meta holds arbitrary key-value metadata (never nil after AddNode).
	Meta Metadata
}

// Edge is a directed connection from a split node to one child, carrying the
// condition under which the branch is taken.
type Edge struct {
	From string    // Source split node ID
	To   string    // Target node ID
	Cond Condition // Branch condition
}

// Tree is an arena of nodes and edges forming a single rooted decision tree.
// Node and edge iteration order is insertion order, so two walks over an
// unchanged tree are always identical; the compiler relies on this for
// byte-for-byte reproducible output.
//
// The zero value is not usable - use New. A Tree is not safe for concurrent
// mutation; once built it is read-only and may be rendered freely.
type Tree struct {
	nodes    map[string]*Node
	order    []string         // node IDs in insertion order
	edges    []Edge
	outgoing map[string][]int // node ID -> edge indices, insertion order
	parent   map[string]int   // node ID -> incoming edge index
	meta     Metadata
}

// New creates an empty tree with optional tree-level metadata.
func New(meta Metadata) *Tree {
	if meta == nil {
		meta = Metadata{}
	}
	return &Tree{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]int),
		parent:   make(map[string]int),
		meta:     meta,
	}
}

// Meta returns the tree-level metadata map. Never nil.
func (t *Tree) Meta() Metadata { return t.meta }

// AddNode adds a node to the tree.
// Returns ErrInvalidNodeID for an empty ID, ErrDuplicateNodeID if the ID is
// taken, or ErrMissingFeature for a split without a feature name. The node's
// Meta field is initialized to an empty map if nil.
func (t *Tree) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := t.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Kind == KindSplit && n.Feature == "" {
		return ErrMissingFeature
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	t.nodes[node.ID] = node
	t.order = append(t.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode for missing endpoints,
// ErrEdgeFromLeaf when the source is not a split, and ErrDuplicateParent when
// the target already has a parent (each non-root node has exactly one).
//
// Sibling order is insertion order: the order of AddEdge calls fixes the
// emission order of if/elif branches under the source split.
func (t *Tree) AddEdge(e Edge) error {
	src, ok := t.nodes[e.From]
	if !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := t.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if src.Kind != KindSplit {
		return ErrEdgeFromLeaf
	}
	if _, has := t.parent[e.To]; has {
		return ErrDuplicateParent
	}
	t.edges = append(t.edges, e)
	idx := len(t.edges) - 1
	t.outgoing[e.From] = append(t.outgoing[e.From], idx)
	t.parent[e.To] = idx
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, len(t.order))
	for i, id := range t.order {
		nodes[i] = t.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (t *Tree) Edges() []Edge { return slices.Clone(t.edges) }

// Outgoing returns the outgoing edges of a node in insertion order.
// Returns nil for leaves and unknown IDs.
func (t *Tree) Outgoing(id string) []Edge {
	idxs := t.outgoing[id]
	if len(idxs) == 0 {
		return nil
	}
	edges := make([]Edge, len(idxs))
	for i, idx := range idxs {
		edges[i] = t.edges[idx]
	}
	return edges
}

// Parent returns the incoming edge of a node, or false for the root and
// unknown IDs.
func (t *Tree) Parent(id string) (Edge, bool) {
	idx, ok := t.parent[id]
	if !ok {
		return Edge{}, false
	}
	return t.edges[idx], true
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// EdgeCount returns the number of edges in the tree.
func (t *Tree) EdgeCount() int { return len(t.edges) }

// Root returns the unique node with no incoming edge.
// Returns a *StructuralError if the tree has no root or more than one.
func (t *Tree) Root() (*Node, error) {
	var root *Node
	for _, id := range t.order {
		if _, has := t.parent[id]; has {
			continue
		}
		if root != nil {
			return nil, &StructuralError{NodeID: id, Reason: ErrMultipleRoots}
		}
		root = t.nodes[id]
	}
	if root == nil {
		return nil, &StructuralError{Reason: ErrNoRoot}
	}
	return root, nil
}

// IsFallback reports whether the edge is the fallback branch of its source
// split: either an unconditional edge or an edge into a default leaf.
func (t *Tree) IsFallback(e Edge) bool {
	if e.Cond.Kind == CondUnconditional {
		return true
	}
	child, ok := t.nodes[e.To]
	return ok && child.Kind == KindDefaultLeaf
}

// Depth returns the number of edges on the longest root-to-leaf path, or 0
// for an empty or rootless tree. Recursion depth during compilation is
// bounded by this value.
func (t *Tree) Depth() int {
	root, err := t.Root()
	if err != nil {
		return 0
	}
	var walk func(id string) int
	walk = func(id string) int {
		max := 0
		for _, e := range t.Outgoing(id) {
			if d := walk(e.To) + 1; d > max {
				max = d
			}
		}
		return max
	}
	return walk(root.ID)
}
