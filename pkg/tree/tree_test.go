package tree

import (
	"errors"
	"testing"
)

func TestAddNode_Errors(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want error
	}{
		{"empty ID", Node{Kind: KindLeaf}, ErrInvalidNodeID},
		{"split without feature", Node{ID: "s", Kind: KindSplit}, ErrMissingFeature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(nil)
			if err := tr.AddNode(tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddNode() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	tr := New(nil)
	if err := tr.AddNode(Node{ID: "a", Kind: KindLeaf}); err != nil {
		t.Fatalf("AddNode() = %v", err)
	}
	if err := tr.AddNode(Node{ID: "a", Kind: KindLeaf}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode() = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdge_Errors(t *testing.T) {
	tr := New(nil)
	tr.AddNode(Node{ID: "root", Kind: KindSplit, Feature: "segment"})
	tr.AddNode(Node{ID: "leaf", Kind: KindLeaf, Output: 0.1})
	tr.AddNode(Node{ID: "other", Kind: KindLeaf, Output: 0.2})
	tr.AddEdge(Edge{From: "root", To: "leaf", Cond: Assignment(Number(1))})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"unknown source", Edge{From: "missing", To: "leaf"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "root", To: "missing"}, ErrUnknownTargetNode},
		{"edge from leaf", Edge{From: "leaf", To: "other"}, ErrEdgeFromLeaf},
		{"second parent", Edge{From: "root", To: "leaf"}, ErrDuplicateParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOutgoing_InsertionOrder(t *testing.T) {
	tr := New(nil)
	tr.AddNode(Node{ID: "root", Kind: KindSplit, Feature: "geo"})
	for _, id := range []string{"c", "a", "b"} {
		tr.AddNode(Node{ID: id, Kind: KindLeaf})
		tr.AddEdge(Edge{From: "root", To: id, Cond: Assignment(Text(id))})
	}

	out := tr.Outgoing("root")
	got := []string{out[0].To, out[1].To, out[2].To}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Outgoing() order = %v, want %v", got, want)
		}
	}
}

func TestRoot(t *testing.T) {
	tr := New(nil)
	tr.AddNode(Node{ID: "root", Kind: KindSplit, Feature: "segment"})
	tr.AddNode(Node{ID: "leaf", Kind: KindLeaf})
	tr.AddEdge(Edge{From: "root", To: "leaf", Cond: Unconditional()})

	root, err := tr.Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	if root.ID != "root" {
		t.Errorf("Root() = %q, want %q", root.ID, "root")
	}
}

func TestRoot_Multiple(t *testing.T) {
	tr := New(nil)
	tr.AddNode(Node{ID: "a", Kind: KindLeaf})
	tr.AddNode(Node{ID: "b", Kind: KindLeaf})

	_, err := tr.Root()
	var serr *StructuralError
	if !errors.As(err, &serr) || !errors.Is(err, ErrMultipleRoots) {
		t.Fatalf("Root() = %v, want StructuralError wrapping ErrMultipleRoots", err)
	}
}

func TestRoot_Empty(t *testing.T) {
	_, err := New(nil).Root()
	if !errors.Is(err, ErrNoRoot) {
		t.Fatalf("Root() = %v, want ErrNoRoot", err)
	}
}

func TestParent(t *testing.T) {
	tr := New(nil)
	tr.AddNode(Node{ID: "root", Kind: KindSplit, Feature: "segment"})
	tr.AddNode(Node{ID: "leaf", Kind: KindLeaf})
	tr.AddEdge(Edge{From: "root", To: "leaf", Cond: Assignment(Number(12345))})

	e, ok := tr.Parent("leaf")
	if !ok || e.From != "root" {
		t.Errorf("Parent(leaf) = %+v, %v, want edge from root", e, ok)
	}
	if _, ok := tr.Parent("root"); ok {
		t.Error("Parent(root) reported an edge for the root node")
	}
}

func TestDepth(t *testing.T) {
	tr := New(nil)
	tr.AddNode(Node{ID: "root", Kind: KindSplit, Feature: "segment"})
	tr.AddNode(Node{ID: "mid", Kind: KindSplit, Feature: "age"})
	tr.AddNode(Node{ID: "leaf", Kind: KindLeaf})
	tr.AddNode(Node{ID: "d1", Kind: KindDefaultLeaf})
	tr.AddNode(Node{ID: "d2", Kind: KindDefaultLeaf})
	tr.AddEdge(Edge{From: "root", To: "mid", Cond: Assignment(Number(1))})
	tr.AddEdge(Edge{From: "root", To: "d1", Cond: Unconditional()})
	tr.AddEdge(Edge{From: "mid", To: "leaf", Cond: RangeBelow(10)})
	tr.AddEdge(Edge{From: "mid", To: "d2", Cond: Unconditional()})

	if got := tr.Depth(); got != 2 {
		t.Errorf("Depth() = %d, want 2", got)
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		name string
		s    Scalar
		want string
	}{
		{"integer", Number(12345), "12345"},
		{"fraction", Number(0.5), "0.5"},
		{"text", Text("UK"), "UK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
