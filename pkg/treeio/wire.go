// Package treeio reads and writes the JSON wire format for bidding trees.
// The wire types carry bson tags as well so archived trees keep the same
// shape in document storage.
package treeio

import (
	"fmt"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

var kindToString = map[tree.NodeKind]string{
	tree.KindSplit:       "split",
	tree.KindLeaf:        "leaf",
	tree.KindDefaultLeaf: "default_leaf",
}

var kindFromString = map[string]tree.NodeKind{
	"split":        tree.KindSplit,
	"leaf":         tree.KindLeaf,
	"default_leaf": tree.KindDefaultLeaf,
}

var condToString = map[tree.CondKind]string{
	tree.CondUnconditional: "unconditional",
	tree.CondAssignment:    "assignment",
	tree.CondRange:         "range",
	tree.CondMembership:    "membership",
}

var condFromString = map[string]tree.CondKind{
	"unconditional": tree.CondUnconditional,
	"assignment":    tree.CondAssignment,
	"range":         tree.CondRange,
	"membership":    tree.CondMembership,
}

// Graph is the wire form of a bidding tree.
type Graph struct {
	Meta  map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
	Nodes []Node         `json:"nodes" bson:"nodes"`
	Edges []Edge         `json:"edges" bson:"edges"`
}

// Node is the wire form of one tree node.
type Node struct {
	ID      string  `json:"id" bson:"id"`
	Kind    string  `json:"kind" bson:"kind"`
	Feature string  `json:"feature,omitempty" bson:"feature,omitempty"`
	Output  float64 `json:"output,omitempty" bson:"output,omitempty"`
	NoBid   bool    `json:"no_bid,omitempty" bson:"no_bid,omitempty"`
	Label   string  `json:"label,omitempty" bson:"label,omitempty"`
	Smart   bool    `json:"smart,omitempty" bson:"smart,omitempty"`
}

// Edge is the wire form of one branch.
type Edge struct {
	From string    `json:"from" bson:"from"`
	To   string    `json:"to" bson:"to"`
	Cond Condition `json:"cond" bson:"cond"`
}

// Condition is the wire form of a branch condition. Kind selects which of
// the optional fields apply.
type Condition struct {
	Kind    string   `json:"kind" bson:"kind"`
	Value   *Scalar  `json:"value,omitempty" bson:"value,omitempty"`
	Lower   *float64 `json:"lower,omitempty" bson:"lower,omitempty"`
	Upper   *float64 `json:"upper,omitempty" bson:"upper,omitempty"`
	Members []Scalar `json:"members,omitempty" bson:"members,omitempty"`
	Negated bool     `json:"negated,omitempty" bson:"negated,omitempty"`
	Join    bool     `json:"join,omitempty" bson:"join,omitempty"`
}

// Scalar is the wire form of a feature value: exactly one of Number or Text
// is set.
type Scalar struct {
	Number *float64 `json:"number,omitempty" bson:"number,omitempty"`
	Text   *string  `json:"text,omitempty" bson:"text,omitempty"`
}

func toWireScalar(s tree.Scalar) Scalar {
	if s.IsNumber() {
		v := s.Float()
		return Scalar{Number: &v}
	}
	t := s.String()
	return Scalar{Text: &t}
}

func fromWireScalar(s Scalar) (tree.Scalar, error) {
	switch {
	case s.Number != nil && s.Text != nil:
		return tree.Scalar{}, fmt.Errorf("scalar sets both number and text")
	case s.Number != nil:
		return tree.Number(*s.Number), nil
	case s.Text != nil:
		return tree.Text(*s.Text), nil
	default:
		return tree.Scalar{}, fmt.Errorf("scalar sets neither number nor text")
	}
}

// FromTree converts a tree into its wire form, preserving node and edge
// insertion order.
func FromTree(t *tree.Tree) *Graph {
	g := &Graph{
		Meta:  t.Meta(),
		Nodes: make([]Node, 0, t.NodeCount()),
		Edges: make([]Edge, 0, t.EdgeCount()),
	}
	for _, n := range t.Nodes() {
		g.Nodes = append(g.Nodes, Node{
			ID:      n.ID,
			Kind:    kindToString[n.Kind],
			Feature: n.Feature,
			Output:  n.Output,
			NoBid:   n.NoBid,
			Label:   n.Label,
			Smart:   n.Smart,
		})
	}
	for _, e := range t.Edges() {
		we := Edge{From: e.From, To: e.To, Cond: Condition{
			Kind:    condToString[e.Cond.Kind],
			Lower:   e.Cond.Lower,
			Upper:   e.Cond.Upper,
			Negated: e.Cond.Negated,
			Join:    e.Cond.Join,
		}}
		if e.Cond.Kind == tree.CondAssignment {
			v := toWireScalar(e.Cond.Value)
			we.Cond.Value = &v
		}
		for _, m := range e.Cond.Members {
			we.Cond.Members = append(we.Cond.Members, toWireScalar(m))
		}
		g.Edges = append(g.Edges, we)
	}
	return g
}

// ToTree rebuilds a tree from its wire form. Errors carry the offending node
// or edge for context; the usual causes are unknown kind strings, duplicate
// IDs and edges referencing missing nodes.
func ToTree(g *Graph) (*tree.Tree, error) {
	t := tree.New(g.Meta)
	for _, n := range g.Nodes {
		kind, ok := kindFromString[n.Kind]
		if !ok {
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		node := tree.Node{
			ID:      n.ID,
			Kind:    kind,
			Feature: n.Feature,
			Output:  n.Output,
			NoBid:   n.NoBid,
			Label:   n.Label,
			Smart:   n.Smart,
		}
		if err := t.AddNode(node); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range g.Edges {
		cond, err := fromWireCondition(e.Cond)
		if err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
		if err := t.AddEdge(tree.Edge{From: e.From, To: e.To, Cond: cond}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return t, nil
}

func fromWireCondition(c Condition) (tree.Condition, error) {
	kind, ok := condFromString[c.Kind]
	if !ok {
		return tree.Condition{}, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	cond := tree.Condition{
		Kind:    kind,
		Lower:   c.Lower,
		Upper:   c.Upper,
		Negated: c.Negated,
		Join:    c.Join,
	}
	if kind == tree.CondAssignment {
		if c.Value == nil {
			return tree.Condition{}, fmt.Errorf("assignment condition has no value")
		}
		v, err := fromWireScalar(*c.Value)
		if err != nil {
			return tree.Condition{}, err
		}
		cond.Value = v
	}
	for _, m := range c.Members {
		v, err := fromWireScalar(m)
		if err != nil {
			return tree.Condition{}, err
		}
		cond.Members = append(cond.Members, v)
	}
	return cond, nil
}
