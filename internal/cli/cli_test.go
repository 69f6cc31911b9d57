package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTreeJSON = `{
  "nodes": [
    {"id": "root", "kind": "split", "feature": "segment"},
    {"id": "bid", "kind": "leaf", "output": 0.1},
    {"id": "default", "kind": "default_leaf", "no_bid": true}
  ],
  "edges": [
    {"from": "root", "to": "bid", "cond": {"kind": "assignment", "value": {"number": 12345}}},
    {"from": "root", "to": "default", "cond": {"kind": "unconditional"}}
  ]
}`

func testCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func writeTempTree(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := testCLI().RootCommand()

	want := []string{"compile", "validate", "convert", "visualize", "serve", "cache"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestCompileCommand(t *testing.T) {
	input := writeTempTree(t, sampleTreeJSON)
	output := filepath.Join(t.TempDir(), "program.bonsai")

	root := testCLI().RootCommand()
	root.SetArgs([]string{"compile", input, "-o", output, "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	program, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	want := "if segment 12345:\n    0.1000\nelse:\n    no_bid\n"
	if string(program) != want {
		t.Errorf("program = %q, want %q", program, want)
	}
}

func TestCompileCommand_InvalidTree(t *testing.T) {
	missingFallback := `{
	  "nodes": [
	    {"id": "root", "kind": "split", "feature": "segment"},
	    {"id": "bid", "kind": "leaf", "output": 0.1}
	  ],
	  "edges": [
	    {"from": "root", "to": "bid", "cond": {"kind": "assignment", "value": {"number": 1}}}
	  ]
	}`
	input := writeTempTree(t, missingFallback)

	root := testCLI().RootCommand()
	root.SetArgs([]string{"compile", input, "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "fallback") {
		t.Errorf("compile error = %v, want fallback defect", err)
	}
}

func TestValidateCommand(t *testing.T) {
	input := writeTempTree(t, sampleTreeJSON)

	root := testCLI().RootCommand()
	root.SetArgs([]string{"validate", input})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		t.Errorf("validate failed: %v", err)
	}
}

func TestConvertCommand(t *testing.T) {
	model := `{
	  "features": ["segment"],
	  "vocabulary": {"segment=12345": 0},
	  "weights": [1.0],
	  "intercept": 0,
	  "base_bid": 1.0
	}`
	dir := t.TempDir()
	input := filepath.Join(dir, "model.json")
	if err := os.WriteFile(input, []byte(model), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "tree.json")

	root := testCLI().RootCommand()
	root.SetArgs([]string{"convert", input, "-o", output})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `"feature": "segment"`) {
		t.Errorf("converted tree missing segment split:\n%s", data)
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != "svg" {
		t.Errorf("parseFormats(\"\") = %v, want [svg]", got)
	}
	if got := parseFormats("dot,png"); len(got) != 2 || got[0] != "dot" || got[1] != "png" {
		t.Errorf("parseFormats(dot,png) = %v", got)
	}
}

func TestCacheDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", appName) {
		t.Errorf("cacheDir() = %q", dir)
	}
}
