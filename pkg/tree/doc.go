// Package tree implements the decision-tree data model that bonspy compiles
// into the Bonsai bidding language.
//
// A tree is an arena of nodes connected by directed, conditioned edges. It is
// built once by a producer (for example [pkg/logistic] or the JSON importer in
// [pkg/treeio]) and then read many times by the compiler; no part of bonspy
// mutates a tree after construction.
//
// # Structure
//
// Nodes come in three variants: a Split branches on one user feature and owns
// the outgoing edges, a Leaf terminates a path with a bid amount, and a
// DefaultLeaf is the leaf reached when no sibling condition matches. Each edge
// carries one condition: an exact-value Assignment, a single-bounded Range, a
// Membership list, or no condition at all (Unconditional, the fallback edge
// into a split's default branch).
//
// # Contract
//
// AddNode and AddEdge reject locally detectable defects (duplicate IDs, edges
// out of leaves, second parents) with sentinel errors. Validate checks the
// global invariants the compiler depends on - a single root, exactly one
// fallback branch per split, terminal leaves, full reachability - and fails
// fast with a [StructuralError] identifying the offending node.
package tree
