// Package layout computes per-node geometry for a mindmap document.
//
// The layout is a single recursive pre-order pass: each node's label is
// wrapped against a pixel measurer, the box is sized from the wrapped lines
// plus padding, and children share one horizontal row centered under their
// parent at fixed spacing. The pass is pure arithmetic over the document and
// produces ephemeral Box values consumed by the render engine within the
// same call.
package layout

import (
	"fmt"
	"strings"

	"github.com/promptmap/promptmap/pkg/mindmap"
)

// Measurer reports the pixel extent of a rendered string. *gg.Context
// satisfies this interface; tests use a fixed-width fake for determinism.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// Box is the computed geometry for one node. Coordinates are in canvas
// pixels with the origin at the top-left.
type Box struct {
	Path  string   // node position, e.g. "root/2/0"
	Depth int      // tree depth, root = 0
	Lines []string // wrapped label lines, never empty

	Left, Top     float64
	Width, Height float64
	LineHeight    float64

	// Parent indexes the parent box in Layout.Boxes; -1 for the root.
	Parent int
}

// CenterX returns the horizontal center of the box, used as the connector
// anchor point.
func (b Box) CenterX() float64 { return b.Left + b.Width/2 }

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return b.Top + b.Height/2 }

// Right returns the right edge of the box.
func (b Box) Right() float64 { return b.Left + b.Width }

// Bottom returns the bottom edge of the box.
func (b Box) Bottom() float64 { return b.Top + b.Height }

// Layout holds the geometry for every laid-out node, in pre-order.
type Layout struct {
	Boxes []Box

	// Truncated reports that at least one subtree was cut by the depth bound.
	Truncated bool
}

// Compute lays out the document. Nodes deeper than cfg.MaxDepth are not laid
// out; their omission is flagged via Layout.Truncated rather than an error.
func Compute(doc *mindmap.Document, cfg Config, m Measurer) *Layout {
	cfg = cfg.Normalized()
	l := &Layout{}
	if doc == nil || doc.Root == nil {
		return l
	}
	l.place(doc.Root, cfg, m, float64(cfg.Width)/2, cfg.RootAnchorY, 0, -1, "root")
	return l
}

// place computes one node's box and recurses into its children. The caller
// supplies the target center point; depth is checked against the bound, not
// decremented.
func (l *Layout) place(n *mindmap.Node, cfg Config, m Measurer, cx, cy float64, depth, parent int, path string) {
	lines, lineH := Wrap(ResolveText(n.Text), cfg.WrapWidth, m)

	var labelW float64
	for _, line := range lines {
		if w, _ := m.MeasureString(line); w > labelW {
			labelW = w
		}
	}
	labelH := lineH * float64(len(lines))

	box := Box{
		Path:       path,
		Depth:      depth,
		Lines:      lines,
		Width:      labelW + 2*cfg.PadX,
		Height:     labelH + 2*cfg.PadY,
		LineHeight: lineH,
		Parent:     parent,
	}
	box.Left = cx - box.Width/2
	box.Top = cy - box.Height/2

	idx := len(l.Boxes)
	l.Boxes = append(l.Boxes, box)

	if len(n.Children) == 0 {
		return
	}
	if depth+1 > cfg.MaxDepth {
		l.Truncated = true
		return
	}

	// Children share one row centered under the parent. Spacing is fixed, so
	// adjacent sibling centers are exactly cfg.HSpacing apart.
	k := len(n.Children)
	childCY := box.Top + box.Height + cfg.VSpacing
	childCX := cx - float64(k-1)*cfg.HSpacing/2
	for i, child := range n.Children {
		l.place(child, cfg, m, childCX, childCY, depth+1, idx, fmt.Sprintf("%s/%d", path, i))
		childCX += cfg.HSpacing
	}
}

// ResolveText returns the display text for a label, substituting the fixed
// placeholder for missing or blank values.
func ResolveText(text string) string {
	if strings.TrimSpace(text) == "" {
		return Placeholder
	}
	return text
}

// Wrap splits text on whitespace and greedily packs words into lines whose
// measured width stays within maxWidth. It always returns at least one line;
// a single word wider than maxWidth becomes its own overflowing line rather
// than being split or hyphenated. The returned height is the per-line pixel
// height reported by the measurer.
func Wrap(text string, maxWidth float64, m Measurer) ([]string, float64) {
	words := strings.Fields(text)
	if len(words) == 0 {
		words = []string{Placeholder}
	}

	var lines []string
	current := words[0]
	_, lineH := m.MeasureString(current)

	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := m.MeasureString(candidate); w <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)

	if _, h := m.MeasureString(lines[0]); h > lineH {
		lineH = h
	}
	return lines, lineH
}
