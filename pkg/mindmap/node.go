// Package mindmap defines the mindmap document model and its validating decoder.
//
// A mindmap is a rooted tree of labeled nodes. Documents arrive as JSON from
// the generation collaborator in the fixed shape:
//
//	{"Mindmap": {"text": "root label", "children": [{"text": "child"}, ...]}}
//
// Decode performs strict schema validation (exactly one recognized root key,
// object-shaped nodes) and a single repair pass for trailing commas, a defect
// language models produce routinely. Missing or non-string "text" fields are
// kept as empty strings: the document stays structurally valid and the render
// engine substitutes a visible placeholder.
package mindmap

import "encoding/json"

// RootKey is the single recognized top-level key of a mindmap document.
const RootKey = "Mindmap"

// Node is a single tree element with display text and zero or more ordered
// children. Children render left to right in slice order.
type Node struct {
	Text     string  `json:"text"`
	Children []*Node `json:"children,omitempty"`
}

// Document wraps the root node of a mindmap. A Document produced by Decode
// is treated as immutable.
type Document struct {
	Root *Node
}

// MarshalJSON encodes the document back into its canonical wire shape.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*Node{RootKey: d.Root})
}

// Count returns the total number of nodes in the document.
func (d *Document) Count() int {
	n := 0
	d.Walk(func(*Node, int) { n++ })
	return n
}

// Depth returns the maximum node depth, with the root at depth 0.
func (d *Document) Depth() int {
	maxDepth := 0
	d.Walk(func(_ *Node, depth int) {
		if depth > maxDepth {
			maxDepth = depth
		}
	})
	return maxDepth
}

// Walk visits every node in pre-order, calling fn with the node and its depth.
func (d *Document) Walk(fn func(n *Node, depth int)) {
	if d.Root == nil {
		return
	}
	walk(d.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int)) {
	fn(n, depth)
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}
