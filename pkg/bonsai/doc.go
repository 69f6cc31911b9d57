// Package bonsai compiles a [pkg/tree] bidding tree into the Bonsai
// conditional bidding language consumed by the ad-serving platform.
//
// The emitted program is a nested if/elif/else block, indented four spaces
// per level, with leaf bodies carrying a fixed 4-decimal bid (or the no_bid
// sentinel) and an optional leaf_name line for smart leaves:
//
//	if segment 12345:
//	    if geo in ("UK", "DE"):
//	        0.1000
//	    else:
//	        0.0500
//	else:
//	    no_bid
//
// Compilation is a pure function of the tree: sibling branches are emitted in
// edge insertion order with the fallback branch last, so two renders of the
// same tree are byte-for-byte identical. Any structural or rendering error
// aborts the render with no partial output; a garbled program must never
// reach the bidding platform.
package bonsai
