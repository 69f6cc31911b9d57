package tree_test

import (
	"fmt"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

func ExampleTree_Validate() {
	tr := tree.New(nil)
	tr.AddNode(tree.Node{ID: "root", Kind: tree.KindSplit, Feature: "segment"})
	tr.AddNode(tree.Node{ID: "bid", Kind: tree.KindLeaf, Output: 0.1})
	tr.AddEdge(tree.Edge{From: "root", To: "bid", Cond: tree.Assignment(tree.Number(12345))})

	err := tr.Validate()
	fmt.Println(err)

	tr.AddNode(tree.Node{ID: "default", Kind: tree.KindDefaultLeaf, NoBid: true})
	tr.AddEdge(tree.Edge{From: "root", To: "default", Cond: tree.Unconditional()})
	fmt.Println(tr.Validate())
	// Output:
	// structural error at node "root": split node has no fallback branch
	// <nil>
}

func ExampleTree_Outgoing() {
	tr := tree.New(nil)
	tr.AddNode(tree.Node{ID: "root", Kind: tree.KindSplit, Feature: "geo"})
	tr.AddNode(tree.Node{ID: "uk", Kind: tree.KindLeaf, Output: 0.2})
	tr.AddNode(tree.Node{ID: "de", Kind: tree.KindLeaf, Output: 0.1})
	tr.AddNode(tree.Node{ID: "default", Kind: tree.KindDefaultLeaf, NoBid: true})
	tr.AddEdge(tree.Edge{From: "root", To: "uk", Cond: tree.Assignment(tree.Text("UK"))})
	tr.AddEdge(tree.Edge{From: "root", To: "de", Cond: tree.Assignment(tree.Text("DE"))})
	tr.AddEdge(tree.Edge{From: "root", To: "default", Cond: tree.Unconditional()})

	for _, e := range tr.Outgoing("root") {
		fmt.Println(e.To)
	}
	// Output:
	// uk
	// de
	// default
}
