package bonsai

import (
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// Order determines the emission order of a split node's outgoing edges.
//
// The conditional branches keep the tree's edge insertion order among
// themselves - the compiler never reorders siblings by value or magnitude -
// and the fallback branch (the edge into a default leaf, or the single
// unconditional edge) is returned separately to be emitted last as "else:".
//
// A split with no identifiable fallback, more than one, or no conditional
// branch at all is a *StructuralError: malformed trees are rejected rather
// than guessed at.
func Order(t *tree.Tree, id string) (branches []tree.Edge, fallback tree.Edge, err error) {
	out := t.Outgoing(id)
	if len(out) == 0 {
		return nil, tree.Edge{}, &tree.StructuralError{NodeID: id, Reason: tree.ErrNoBranches}
	}

	found := false
	for _, e := range out {
		if t.IsFallback(e) {
			if found {
				return nil, tree.Edge{}, &tree.StructuralError{NodeID: id, Reason: tree.ErrMultipleFallbacks}
			}
			found = true
			fallback = e
			continue
		}
		branches = append(branches, e)
	}
	if !found {
		return nil, tree.Edge{}, &tree.StructuralError{NodeID: id, Reason: tree.ErrMissingFallback}
	}
	if len(branches) == 0 {
		return nil, tree.Edge{}, &tree.StructuralError{NodeID: id, Reason: tree.ErrNoConditionalBranch}
	}
	return branches, fallback, nil
}
