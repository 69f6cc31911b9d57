package render

import (
	"strings"
	"testing"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New(nil)
	tr.AddNode(tree.Node{ID: "root", Kind: tree.KindSplit, Feature: "segment"})
	tr.AddNode(tree.Node{ID: "bid", Kind: tree.KindLeaf, Output: 0.1})
	tr.AddNode(tree.Node{ID: "default", Kind: tree.KindDefaultLeaf, NoBid: true})
	tr.AddEdge(tree.Edge{From: "root", To: "bid", Cond: tree.Assignment(tree.Number(12345))})
	tr.AddEdge(tree.Edge{From: "root", To: "default", Cond: tree.Unconditional()})
	return tr
}

func TestToDOT(t *testing.T) {
	dot, err := ToDOT(sampleTree(t), Options{})
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}

	for _, want := range []string{
		"digraph bidding_tree {",
		`"root" [label="segment"]`,
		`"bid" [label="0.1000"]`,
		`"default" [label="no_bid", style="rounded,filled,dashed"`,
		`"root" -> "bid" [label="segment 12345"];`,
		`"root" -> "default" [label="else"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot, err := ToDOT(sampleTree(t), Options{Detailed: true})
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}
	if !strings.Contains(dot, `label="bid\n0.1000"`) {
		t.Errorf("detailed label missing node ID:\n%s", dot)
	}
}

func TestToDOT_SmartLeafLabel(t *testing.T) {
	tr := sampleTree(t)
	n, _ := tr.Node("bid")
	n.Smart = true
	n.Label = "cheap_uk"

	dot, err := ToDOT(tr, Options{})
	if err != nil {
		t.Fatalf("ToDOT() error = %v", err)
	}
	if !strings.Contains(dot, `label="cheap_uk\n0.1000"`) {
		t.Errorf("smart leaf label missing name:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg">`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() dimensions = %s", out)
	}
}
