package bonsai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// Indent is the indentation unit of the emitted program: four spaces per
// nesting level.
const Indent = "    "

// UnknownNodeKindError reports a node whose variant the serializer does not
// recognize. Fatal; there is no recovery.
type UnknownNodeKindError struct {
	NodeID string
	Kind   tree.NodeKind
}

// Error implements the error interface.
func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("unknown node kind %d at node %q", int(e.Kind), e.NodeID)
}

// Compile renders the tree as a complete Bonsai conditional program.
//
// The walk is strictly depth-first and single-pass: each split emits
// "if <cond>:" for its first conditional branch, "elif <cond>:" for each
// further one, and "else:" for the fallback, with each branch body indented
// one level deeper. Leaves emit their formatted bid (preceded by a
// leaf_name line for smart leaves), terminating the recursion. Recursion
// depth equals tree depth.
//
// Compilation is all-or-nothing: on any structural or rendering error the
// returned program is empty and the error carries the offending node or
// edge. The output ends with a trailing newline.
func Compile(t *tree.Tree) (string, error) {
	root, err := t.Root()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writeNode(&b, t, root.ID, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

// writeNode serializes the subtree rooted at id, indented depth levels.
func writeNode(b *strings.Builder, t *tree.Tree, id string, depth int) error {
	node, _ := t.Node(id)
	indent := strings.Repeat(Indent, depth)

	switch node.Kind {
	case tree.KindSplit:
		branches, fallback, err := Order(t, id)
		if err != nil {
			return err
		}
		for i, e := range branches {
			cond, err := RenderCondition(node.Feature, e)
			if err != nil {
				return err
			}
			keyword := "elif"
			if i == 0 {
				keyword = "if"
			}
			b.WriteString(indent)
			b.WriteString(keyword)
			b.WriteByte(' ')
			b.WriteString(cond)
			b.WriteString(":\n")
			if err := writeNode(b, t, e.To, depth+1); err != nil {
				return err
			}
		}
		b.WriteString(indent)
		b.WriteString("else:\n")
		return writeNode(b, t, fallback.To, depth+1)

	case tree.KindLeaf, tree.KindDefaultLeaf:
		if node.Smart {
			if node.Label == "" {
				return &FormatError{NodeID: id, Detail: "smart leaf has no label"}
			}
			b.WriteString(indent)
			b.WriteString("leaf_name: ")
			b.WriteString(strconv.Quote(node.Label))
			b.WriteByte('\n')
		}
		value := NoBid
		if !node.NoBid {
			v, err := FormatBid(node.Output)
			if err != nil {
				if fe, ok := err.(*FormatError); ok {
					fe.NodeID = id
				}
				return err
			}
			value = v
		}
		b.WriteString(indent)
		b.WriteString(value)
		b.WriteByte('\n')
		return nil

	default:
		return &UnknownNodeKindError{NodeID: id, Kind: node.Kind}
	}
}
