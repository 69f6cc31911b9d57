package treeio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/bonsai"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New(tree.Metadata{"campaign": "spring"})
	tr.AddNode(tree.Node{ID: "root", Kind: tree.KindSplit, Feature: "segment"})
	tr.AddNode(tree.Node{ID: "geo", Kind: tree.KindSplit, Feature: "geo"})
	tr.AddNode(tree.Node{ID: "eu", Kind: tree.KindLeaf, Output: 0.2, Smart: true, Label: "eu_bid"})
	tr.AddNode(tree.Node{ID: "d1", Kind: tree.KindDefaultLeaf, NoBid: true})
	tr.AddNode(tree.Node{ID: "d2", Kind: tree.KindDefaultLeaf, Output: 0.05})
	tr.AddEdge(tree.Edge{From: "root", To: "geo", Cond: tree.Assignment(tree.Number(12345))})
	tr.AddEdge(tree.Edge{From: "root", To: "d1", Cond: tree.Unconditional()})
	tr.AddEdge(tree.Edge{From: "geo", To: "eu", Cond: tree.Membership(tree.Text("UK"), tree.Text("DE")).Negate()})
	tr.AddEdge(tree.Edge{From: "geo", To: "d2", Cond: tree.Unconditional()})
	if err := tr.Validate(); err != nil {
		t.Fatalf("sample tree invalid: %v", err)
	}
	return tr
}

func TestRoundTrip(t *testing.T) {
	orig := sampleTree(t)

	var buf bytes.Buffer
	if err := WriteJSON(orig, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}

	// A faithful round trip compiles to the identical program.
	want, err := bonsai.Compile(orig)
	if err != nil {
		t.Fatalf("Compile(orig) error = %v", err)
	}
	got, err := bonsai.Compile(back)
	if err != nil {
		t.Fatalf("Compile(back) error = %v", err)
	}
	if got != want {
		t.Errorf("round-tripped tree compiles differently:\ngot:\n%s\nwant:\n%s", got, want)
	}

	if back.Meta()["campaign"] != "spring" {
		t.Errorf("metadata lost in round trip: %v", back.Meta())
	}
}

func TestRoundTrip_PreservesBranchOrder(t *testing.T) {
	orig := sampleTree(t)

	var buf bytes.Buffer
	if err := WriteJSON(orig, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}

	wantOut := orig.Outgoing("root")
	gotOut := back.Outgoing("root")
	if len(gotOut) != len(wantOut) {
		t.Fatalf("root branch count = %d, want %d", len(gotOut), len(wantOut))
	}
	for i := range wantOut {
		if gotOut[i].To != wantOut[i].To {
			t.Errorf("branch %d target = %q, want %q", i, gotOut[i].To, wantOut[i].To)
		}
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "malformed json",
			src:  "{nodes",
			want: "decode",
		},
		{
			name: "unknown node kind",
			src:  `{"nodes": [{"id": "a", "kind": "branch"}], "edges": []}`,
			want: `unknown kind "branch"`,
		},
		{
			name: "edge to missing node",
			src: `{"nodes": [{"id": "a", "kind": "split", "feature": "geo"}],
			      "edges": [{"from": "a", "to": "b", "cond": {"kind": "unconditional"}}]}`,
			want: "edge a->b",
		},
		{
			name: "unknown condition kind",
			src: `{"nodes": [{"id": "a", "kind": "split", "feature": "geo"},
			                 {"id": "b", "kind": "leaf"}],
			      "edges": [{"from": "a", "to": "b", "cond": {"kind": "equals"}}]}`,
			want: `unknown condition kind "equals"`,
		},
		{
			name: "assignment without value",
			src: `{"nodes": [{"id": "a", "kind": "split", "feature": "geo"},
			                 {"id": "b", "kind": "leaf"}],
			      "edges": [{"from": "a", "to": "b", "cond": {"kind": "assignment"}}]}`,
			want: "no value",
		},
		{
			name: "ambiguous scalar",
			src: `{"nodes": [{"id": "a", "kind": "split", "feature": "geo"},
			                 {"id": "b", "kind": "leaf"}],
			      "edges": [{"from": "a", "to": "b",
			                 "cond": {"kind": "assignment", "value": {"number": 1, "text": "x"}}}]}`,
			want: "both number and text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadJSON() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
