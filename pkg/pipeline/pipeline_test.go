package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/cache"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/treeio"
)

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

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

const wantProgram = "if segment 12345:\n    0.1000\nelse:\n    no_bid\n"

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())

	result, err := r.Execute(context.Background(), Options{Tree: sampleTree(t)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Program != wantProgram {
		t.Errorf("Program = %q, want %q", result.Program, wantProgram)
	}
	if result.RunID == "" || result.GraphHash == "" {
		t.Errorf("result identifiers empty: %+v", result)
	}
	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 || result.Stats.Depth != 1 {
		t.Errorf("stats = %+v, want 3 nodes, 2 edges, depth 1", result.Stats)
	}
	if result.CacheInfo.ProgramHit {
		t.Error("first run reported a cache hit")
	}
}

func TestExecute_CacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	r := NewRunner(c, nil, quietLogger())
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Tree: sampleTree(t)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second, err := r.Execute(ctx, Options{Tree: sampleTree(t)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if first.CacheInfo.ProgramHit || !second.CacheInfo.ProgramHit {
		t.Errorf("cache hits = %v, %v, want miss then hit",
			first.CacheInfo.ProgramHit, second.CacheInfo.ProgramHit)
	}
	if second.Program != first.Program {
		t.Error("cached program differs from compiled program")
	}
	if second.GraphHash != first.GraphHash {
		t.Error("identical trees hash differently")
	}
}

func TestExecute_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := treeio.ExportJSON(sampleTree(t), path); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), Options{InputPath: path})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Program != wantProgram {
		t.Errorf("Program = %q, want %q", result.Program, wantProgram)
	}
}

func TestExecute_DOTArtifact(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())

	result, err := r.Execute(context.Background(), Options{
		Tree:    sampleTree(t),
		Formats: []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph bidding_tree") {
		t.Errorf("dot artifact = %q", dot)
	}
}

func TestExecute_InvalidTree(t *testing.T) {
	tr := tree.New(nil)
	tr.AddNode(tree.Node{ID: "root", Kind: tree.KindSplit, Feature: "segment"})
	tr.AddNode(tree.Node{ID: "a", Kind: tree.KindLeaf, Output: 0.1})
	tr.AddEdge(tree.Edge{From: "root", To: "a", Cond: tree.Assignment(tree.Number(1))})

	r := NewRunner(nil, nil, quietLogger())
	_, err := r.Execute(context.Background(), Options{Tree: tr})
	if !errors.Is(err, tree.ErrMissingFallback) {
		t.Errorf("Execute() error = %v, want ErrMissingFallback", err)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"tree only", Options{Tree: tree.New(nil)}, true},
		{"path only", Options{InputPath: "x.json"}, true},
		{"neither", Options{}, false},
		{"both", Options{Tree: tree.New(nil), InputPath: "x.json"}, false},
		{"bad format", Options{Tree: tree.New(nil), Formats: []string{"pdf"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err == nil) != tt.ok {
				t.Errorf("ValidateAndSetDefaults() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
