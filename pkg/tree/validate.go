package tree

import (
	"errors"
	"fmt"
)

// Sentinel reasons reported by [Tree.Validate] inside a [StructuralError].
var (
	// ErrNoRoot means no node is free of incoming edges.
	ErrNoRoot = errors.New("tree has no root node")

	// ErrMultipleRoots means more than one node has no incoming edge.
	ErrMultipleRoots = errors.New("tree has multiple root nodes")

	// ErrMissingFallback means a split node has no edge that can serve as the
	// unconditional "else" branch (no unconditional edge and no default leaf
	// child).
	ErrMissingFallback = errors.New("split node has no fallback branch")

	// ErrMultipleFallbacks means a split node has more than one candidate
	// fallback branch, making the "else" selection ambiguous.
	ErrMultipleFallbacks = errors.New("split node has multiple fallback branches")

	// ErrNoConditionalBranch means a split node has only its fallback edge;
	// the grammar requires at least one "if" branch per split.
	ErrNoConditionalBranch = errors.New("split node has no conditional branch")

	// ErrNoBranches means a split node has no outgoing edges at all.
	ErrNoBranches = errors.New("split node has no outgoing edges")

	// ErrUnreachableNode means a node is not reachable from the root, so the
	// graph is not a single rooted tree.
	ErrUnreachableNode = errors.New("node is not reachable from the root")
)

// StructuralError reports a violation of the tree contract the compiler
// depends on. NodeID identifies the offending node when one can be named.
type StructuralError struct {
	NodeID string
	Reason error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("structural error: %v", e.Reason)
	}
	return fmt.Sprintf("structural error at node %q: %v", e.NodeID, e.Reason)
}

// Unwrap returns the sentinel reason for errors.Is checks.
func (e *StructuralError) Unwrap() error { return e.Reason }

// Validate checks the global invariants the compiler assumes:
//
//  1. Exactly one root node; every other node is reachable from it.
//  2. Every split node has at least one conditional branch and exactly one
//     fallback branch.
//  3. Leaves are terminal (enforced at AddEdge, re-checked here).
//
// Sibling domain partitioning (invariant 3 of the contract) is the graph
// producer's responsibility and is not validated.
//
// Returns nil for a valid tree, otherwise a *StructuralError naming the first
// offending node in insertion order.
func (t *Tree) Validate() error {
	root, err := t.Root()
	if err != nil {
		return err
	}

	visited := make(map[string]bool, len(t.nodes))
	var walk func(id string) error
	walk = func(id string) error {
		visited[id] = true
		node := t.nodes[id]
		out := t.Outgoing(id)

		if node.Kind.IsLeaf() {
			if len(out) > 0 {
				return &StructuralError{NodeID: id, Reason: ErrEdgeFromLeaf}
			}
			return nil
		}

		if len(out) == 0 {
			return &StructuralError{NodeID: id, Reason: ErrNoBranches}
		}
		fallbacks := 0
		for _, e := range out {
			if t.IsFallback(e) {
				fallbacks++
			}
		}
		switch {
		case fallbacks == 0:
			return &StructuralError{NodeID: id, Reason: ErrMissingFallback}
		case fallbacks > 1:
			return &StructuralError{NodeID: id, Reason: ErrMultipleFallbacks}
		case fallbacks == len(out):
			return &StructuralError{NodeID: id, Reason: ErrNoConditionalBranch}
		}

		for _, e := range out {
			if err := walk(e.To); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root.ID); err != nil {
		return err
	}

	if len(visited) != len(t.nodes) {
		for _, id := range t.order {
			if !visited[id] {
				return &StructuralError{NodeID: id, Reason: ErrUnreachableNode}
			}
		}
	}
	return nil
}

// State maps feature names to the constraint already enforced by ancestor
// branches: a Scalar for assignments, an [Interval] for ranges, a []Scalar
// for memberships. The compiler never prints it; producers and downstream
// tooling use it to reason about the path leading to a node.
type State map[string]any

// Interval is the range constraint recorded in a node's state. A nil bound
// is open-ended.
type Interval struct {
	Lower *float64
	Upper *float64
}

// ComputeStates populates Node.State for every reachable node with the
// accumulated ancestor constraints. The root's state is empty; a fallback
// child inherits its parent's state unchanged.
//
// Requires a unique root; other structural defects do not stop the walk.
func (t *Tree) ComputeStates() error {
	root, err := t.Root()
	if err != nil {
		return err
	}

	var walk func(id string, state State)
	walk = func(id string, state State) {
		node := t.nodes[id]
		node.State = state
		for _, e := range t.Outgoing(id) {
			walk(e.To, childState(state, node.Feature, e.Cond))
		}
	}
	walk(root.ID, State{})
	return nil
}

// childState extends a parent state with the constraint of one branch.
func childState(parent State, feature string, c Condition) State {
	if c.Kind == CondUnconditional {
		return parent
	}
	next := make(State, len(parent)+1)
	for k, v := range parent {
		next[k] = v
	}
	switch c.Kind {
	case CondAssignment:
		next[feature] = c.Value
	case CondRange:
		next[feature] = Interval{Lower: c.Lower, Upper: c.Upper}
	case CondMembership:
		next[feature] = append([]Scalar(nil), c.Members...)
	}
	return next
}
