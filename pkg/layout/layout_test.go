package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/promptmap/promptmap/pkg/mindmap"
)

// fixedMeasurer gives every rune a constant width, making layout geometry
// exactly predictable in tests.
type fixedMeasurer struct {
	charW float64
	lineH float64
}

func (m fixedMeasurer) MeasureString(s string) (float64, float64) {
	return float64(len(s)) * m.charW, m.lineH
}

func testMeasurer() fixedMeasurer { return fixedMeasurer{charW: 10, lineH: 20} }

func mustDecode(t *testing.T, raw string) *mindmap.Document {
	t.Helper()
	doc, err := mindmap.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return doc
}

func TestSingleNodeCenteredAtRootAnchor(t *testing.T) {
	doc := mustDecode(t, `{"Mindmap": {"text": "Hello"}}`)
	cfg := DefaultConfig()

	l := Compute(doc, cfg, testMeasurer())

	if len(l.Boxes) != 1 {
		t.Fatalf("boxes = %d, want 1", len(l.Boxes))
	}
	root := l.Boxes[0]
	if root.Parent != -1 {
		t.Errorf("root parent = %d, want -1", root.Parent)
	}
	if got := root.CenterX(); got != float64(cfg.Width)/2 {
		t.Errorf("root center x = %v, want %v", got, float64(cfg.Width)/2)
	}
	if got := root.CenterY(); got != cfg.RootAnchorY {
		t.Errorf("root center y = %v, want %v", got, cfg.RootAnchorY)
	}

	// "Hello" = 50px wide at 10px/char, plus 15px padding per side.
	if root.Width != 50+2*DefaultPadX {
		t.Errorf("root width = %v, want %v", root.Width, 50+2*DefaultPadX)
	}
	if root.Height != 20+2*DefaultPadY {
		t.Errorf("root height = %v, want %v", root.Height, 20+2*DefaultPadY)
	}
	if len(root.Lines) != 1 || root.Lines[0] != "Hello" {
		t.Errorf("root lines = %v", root.Lines)
	}
}

func TestSiblingSpacingExact(t *testing.T) {
	doc := mustDecode(t, `{"Mindmap": {"text": "r", "children": [
		{"text": "aa"}, {"text": "bb"}, {"text": "cc"}
	]}}`)
	cfg := DefaultConfig()

	l := Compute(doc, cfg, testMeasurer())
	if len(l.Boxes) != 4 {
		t.Fatalf("boxes = %d, want 4", len(l.Boxes))
	}

	children := l.Boxes[1:]
	for i := 1; i < len(children); i++ {
		gap := children[i].CenterX() - children[i-1].CenterX()
		if math.Abs(gap-cfg.HSpacing) > 1e-9 {
			t.Errorf("sibling center gap = %v, want exactly %v", gap, cfg.HSpacing)
		}
	}

	// Row is centered under the parent.
	parent := l.Boxes[0]
	mid := (children[0].CenterX() + children[2].CenterX()) / 2
	if math.Abs(mid-parent.CenterX()) > 1e-9 {
		t.Errorf("children row mid = %v, want parent center %v", mid, parent.CenterX())
	}

	// All siblings share one row.
	for _, c := range children {
		if c.CenterY() != children[0].CenterY() {
			t.Errorf("sibling rows differ: %v vs %v", c.CenterY(), children[0].CenterY())
		}
	}
}

func TestChildRowOffset(t *testing.T) {
	doc := mustDecode(t, `{"Mindmap": {"text": "r", "children": [{"text": "c"}]}}`)
	cfg := DefaultConfig()

	l := Compute(doc, cfg, testMeasurer())
	parent, child := l.Boxes[0], l.Boxes[1]

	wantCY := parent.Top + parent.Height + cfg.VSpacing
	if child.CenterY() != wantCY {
		t.Errorf("child center y = %v, want %v", child.CenterY(), wantCY)
	}
	if child.Parent != 0 {
		t.Errorf("child parent index = %d, want 0", child.Parent)
	}
}

func TestDepthBoundTruncates(t *testing.T) {
	// Chain r -> a -> b -> c with MaxDepth 2: c (depth 3) must be cut.
	doc := mustDecode(t, `{"Mindmap": {"text": "r", "children": [
		{"text": "a", "children": [{"text": "b", "children": [{"text": "c"}]}]}
	]}}`)
	cfg := DefaultConfig()
	cfg.MaxDepth = 2

	l := Compute(doc, cfg, testMeasurer())

	if len(l.Boxes) != 3 {
		t.Fatalf("boxes = %d, want 3 (deepest node truncated)", len(l.Boxes))
	}
	if !l.Truncated {
		t.Error("layout should be flagged truncated")
	}
	for _, b := range l.Boxes {
		if b.Depth > 2 {
			t.Errorf("box %s at depth %d exceeds bound", b.Path, b.Depth)
		}
	}
}

func TestDepthBoundNotTruncatedAtLimit(t *testing.T) {
	doc := mustDecode(t, `{"Mindmap": {"text": "r", "children": [{"text": "a"}]}}`)
	cfg := DefaultConfig()
	cfg.MaxDepth = 1

	l := Compute(doc, cfg, testMeasurer())
	if l.Truncated {
		t.Error("document within the bound should not be flagged")
	}
	if len(l.Boxes) != 2 {
		t.Errorf("boxes = %d, want 2", len(l.Boxes))
	}
}

func TestWrapGreedy(t *testing.T) {
	m := testMeasurer() // 10px per char
	lines, h := Wrap("one two three four", 80, m)

	// "one two" = 70px fits; adding " three" = 130px exceeds 80.
	want := []string{"one two", "three", "four"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
	if h != 20 {
		t.Errorf("line height = %v, want 20", h)
	}
}

func TestWrapOverlongWordKeptWhole(t *testing.T) {
	m := testMeasurer()
	long := strings.Repeat("x", 30) // 300px, wider than any wrap width here

	lines, _ := Wrap(long, 150, m)
	if len(lines) != 1 {
		t.Fatalf("overlong word should stay on one line, got %v", lines)
	}
	if lines[0] != long {
		t.Error("overlong word must not be truncated or hyphenated")
	}

	// Overlong word mid-sentence still gets its own line.
	lines, _ = Wrap("a "+long+" b", 150, m)
	if len(lines) != 3 || lines[1] != long {
		t.Errorf("lines = %v, want the long word isolated", lines)
	}
}

func TestResolveTextPlaceholder(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := ResolveText(text); got != Placeholder {
			t.Errorf("ResolveText(%q) = %q, want placeholder", text, got)
		}
	}
	if got := ResolveText("Jazz"); got != "Jazz" {
		t.Errorf("ResolveText should pass real text through, got %q", got)
	}
}

func TestPlaceholderFlowsIntoBoxes(t *testing.T) {
	doc := mustDecode(t, `{"Mindmap": {"text": ""}}`)
	l := Compute(doc, DefaultConfig(), testMeasurer())

	if len(l.Boxes) != 1 {
		t.Fatal("expected one box")
	}
	if len(l.Boxes[0].Lines) != 1 || l.Boxes[0].Lines[0] != Placeholder {
		t.Errorf("lines = %v, want [%q]", l.Boxes[0].Lines, Placeholder)
	}
}

func TestFillColorCycles(t *testing.T) {
	cfg := DefaultConfig()
	n := len(cfg.Palette)

	for depth := 0; depth < 3*n; depth++ {
		if cfg.FillColor(depth) != cfg.Palette[depth%n] {
			t.Errorf("depth %d: palette should cycle modulo %d", depth, n)
		}
	}
}

func TestNormalizedDefaults(t *testing.T) {
	var cfg Config // all zero
	l := Compute(mustDecode(t, `{"Mindmap": {"text": "x"}}`), cfg, testMeasurer())

	if len(l.Boxes) != 1 {
		t.Fatal("zero config should fall back to defaults and still lay out")
	}
	if got := l.Boxes[0].CenterX(); got != DefaultWidth/2 {
		t.Errorf("center x = %v, want default %v", got, DefaultWidth/2)
	}
}
