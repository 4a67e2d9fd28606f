package render

import (
	"fmt"
	"strings"
)

// NodeError records a paint failure for one node, identified by its path
// (e.g. "root/2/0"). The node may appear blank or missing in the image.
type NodeError struct {
	Path string
	Err  error
}

// Report aggregates the non-fatal outcomes of a render pass. It accompanies
// the (possibly partial) image instead of aborting it.
type Report struct {
	// NodeErrors lists nodes that failed to paint; their siblings rendered.
	NodeErrors []NodeError

	// Truncated reports that the depth bound cut at least one subtree. This
	// is a notice, not a failure.
	Truncated bool
}

// OK reports whether the render completed with no per-node failures and no
// truncation.
func (r Report) OK() bool {
	return len(r.NodeErrors) == 0 && !r.Truncated
}

// Summary returns a short human-readable description of the report, or ""
// when there is nothing to say.
func (r Report) Summary() string {
	var parts []string
	if r.Truncated {
		parts = append(parts, "subtree truncated at maximum depth")
	}
	if n := len(r.NodeErrors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d node(s) failed to paint", n))
	}
	return strings.Join(parts, "; ")
}
