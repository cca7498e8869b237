// Package render turns constituency trees into Graphviz drawings.
//
// ToDOT emits a DOT description of the binary tree with nuclearity
// styling; RenderSVG and RenderPNG rasterize it with the embedded
// Graphviz engine, so no system Graphviz installation is needed.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/humsha/educe/pkg/rst/deptree"
	"github.com/humsha/educe/pkg/rst/rsttree"
)

// Options configures tree rendering.
type Options struct {
	// Detailed includes character spans in node labels.
	// When false, internal nodes show only the relation label.
	Detailed bool
}

// ToDOT converts a constituency tree to Graphviz DOT format. Nucleus
// nodes are drawn solid, satellites dashed, and the root with a double
// border; leaves are plain boxes numbered in textual order.
func ToDOT(t *rsttree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	var next int
	var walk func(t *rsttree.Tree) string
	walk = func(t *rsttree.Tree) string {
		id := fmt.Sprintf("n%d", next)
		next++

		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(t, opts.Detailed))}
		switch {
		case t.IsLeaf():
			attrs = append(attrs, "shape=plaintext", "fillcolor=none")
		case t.Node.Nuc == deptree.Root:
			attrs = append(attrs, "peripheries=2")
		case t.Node.Nuc == deptree.Satellite:
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(attrs, ", "))

		for _, kid := range t.Kids {
			kidID := walk(kid)
			fmt.Fprintf(&buf, "  %s -> %s;\n", id, kidID)
		}
		return id
	}
	walk(t)

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(t *rsttree.Tree, detailed bool) string {
	if t.IsLeaf() {
		if detailed {
			return fmt.Sprintf("e%d %s", t.Leaf.Num, t.Leaf.Span)
		}
		return fmt.Sprintf("e%d", t.Leaf.Num)
	}
	label := t.Node.Rel
	if detailed {
		label += fmt.Sprintf("\n[%d,%d] %s", t.Node.EDUSpan[0], t.Node.EDUSpan[1], t.Node.Span)
	}
	return label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
