// Package render turns bidding trees into Graphviz diagrams for inspection:
// splits are boxes labeled with their feature, leaves carry their bid, and
// edges show the condition exactly as the compiler would spell it.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/bonsai"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes node IDs and accumulated state in node labels.
	// When false, splits show only their feature and leaves only their bid.
	Detailed bool
}

// ToDOT converts a bidding tree to Graphviz DOT format. The resulting DOT
// string can be rendered with [RenderSVG] or [RenderPNG].
//
// Default leaves are drawn with dashed outlines and grey fill; fallback
// edges are labeled "else". Conditional edges are labeled with the rendered
// condition, so a diagram reads like the compiled program.
func ToDOT(t *tree.Tree, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph bidding_tree {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range t.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		label, err := edgeLabel(t, e)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, label)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func fmtLabel(n *tree.Node, detailed bool) string {
	var label string
	switch {
	case n.Kind == tree.KindSplit:
		label = n.Feature
	case n.NoBid:
		label = bonsai.NoBid
	default:
		v, err := bonsai.FormatBid(n.Output)
		if err != nil {
			v = "?"
		}
		label = v
	}
	if n.Smart && n.Label != "" {
		label = n.Label + "\n" + label
	}
	if detailed {
		label = n.ID + "\n" + label
	}
	return label
}

func fmtAttrs(n *tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Kind == tree.KindDefaultLeaf {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

func edgeLabel(t *tree.Tree, e tree.Edge) (string, error) {
	if t.IsFallback(e) {
		return "else", nil
	}
	from, _ := t.Node(e.From)
	return bonsai.RenderCondition(from.Feature, e)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
