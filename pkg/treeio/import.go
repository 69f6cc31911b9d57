package treeio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// ReadJSON decodes a JSON tree from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [
//	    {"id": "root", "kind": "split", "feature": "segment"},
//	    {"id": "bid", "kind": "leaf", "output": 0.1},
//	    {"id": "default", "kind": "default_leaf", "no_bid": true}
//	  ],
//	  "edges": [
//	    {"from": "root", "to": "bid",
//	     "cond": {"kind": "assignment", "value": {"number": 12345}}},
//	    {"from": "root", "to": "default", "cond": {"kind": "unconditional"}}
//	  ]
//	}
//
// Errors are wrapped with the node or edge that caused them; use errors.Is
// to check for the tree package's sentinel errors. ReadJSON does not
// validate the structural contract; call [tree.Tree.Validate] on the result
// before compiling.
func ReadJSON(r io.Reader) (*tree.Tree, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToTree(&g)
}

// ImportJSON reads a JSON file at path and returns the decoded tree.
func ImportJSON(path string) (*tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
