package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/promptmap/promptmap/pkg/mindmap"
)

// ToDOT converts a mindmap document to Graphviz DOT format. Node identifiers
// are tree paths so duplicate labels stay distinct.
func ToDOT(doc *mindmap.Document) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Mindmap {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=lightblue, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	writeDOTNode(&buf, doc.Root, "root")

	buf.WriteString("}\n")
	return buf.String()
}

func writeDOTNode(buf *bytes.Buffer, n *mindmap.Node, path string) {
	label := n.Text
	if label == "" {
		label = "(empty)"
	}
	fmt.Fprintf(buf, "  %q [label=%q];\n", path, label)
	for i, c := range n.Children {
		childPath := fmt.Sprintf("%s/%d", path, i)
		writeDOTNode(buf, c, childPath)
		fmt.Fprintf(buf, "  %q -> %q;\n", path, childPath)
	}
}

// DOTPNG renders a DOT string to PNG using Graphviz. This is an alternate
// rasterization for interop; the native renderer remains the default.
func DOTPNG(ctx context.Context, dot string) ([]byte, error) {
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
