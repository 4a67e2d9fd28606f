package mindmap

import (
	"encoding/json"
	"testing"

	"github.com/promptmap/promptmap/pkg/errors"
)

func TestDecodeValid(t *testing.T) {
	raw := []byte(`{"Mindmap": {"text": "Jazz", "children": [
		{"text": "Origins", "children": [{"text": "New Orleans"}]},
		{"text": "Styles"}
	]}}`)

	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if doc.Root.Text != "Jazz" {
		t.Errorf("root text = %q, want %q", doc.Root.Text, "Jazz")
	}
	if len(doc.Root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(doc.Root.Children))
	}
	if doc.Root.Children[0].Children[0].Text != "New Orleans" {
		t.Errorf("grandchild text = %q", doc.Root.Children[0].Children[0].Text)
	}
	if got := doc.Count(); got != 4 {
		t.Errorf("Count = %d, want 4", got)
	}
	if got := doc.Depth(); got != 2 {
		t.Errorf("Depth = %d, want 2", got)
	}
}

func TestDecodeSchemaRejection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrong root key", `{"NotMindmap": {}}`},
		{"missing root key", `{}`},
		{"extra top-level key", `{"Mindmap": {"text": "A"}, "Other": 1}`},
		{"root not an object", `{"Mindmap": "just a string"}`},
		{"root is array", `{"Mindmap": [1, 2]}`},
		{"root is null", `{"Mindmap": null}`},
		{"child not an object", `{"Mindmap": {"text": "A", "children": [42]}}`},
		{"child is null", `{"Mindmap": {"text": "A", "children": [null]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("Decode should fail")
			}
			if doc != nil {
				t.Error("failed Decode should not return a document")
			}
			if !errors.Is(err, errors.ErrCodeSchema) {
				t.Errorf("error code = %q, want SCHEMA_INVALID (%v)", errors.GetCode(err), err)
			}
		})
	}
}

func TestDecodeTrailingCommaRepair(t *testing.T) {
	broken := []byte(`{"Mindmap": {"text": "A",}}`)
	clean := []byte(`{"Mindmap": {"text": "A"}}`)

	docBroken, err := Decode(broken)
	if err != nil {
		t.Fatalf("Decode with trailing comma: %v", err)
	}
	docClean, err := Decode(clean)
	if err != nil {
		t.Fatalf("Decode clean: %v", err)
	}

	b1, _ := json.Marshal(docBroken)
	b2, _ := json.Marshal(docClean)
	if string(b1) != string(b2) {
		t.Errorf("repaired document differs: %s vs %s", b1, b2)
	}
}

func TestDecodeTrailingCommaInArray(t *testing.T) {
	raw := []byte(`{"Mindmap": {"text": "A", "children": [{"text": "B"},]}}`)
	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Root.Children) != 1 || doc.Root.Children[0].Text != "B" {
		t.Errorf("unexpected children: %+v", doc.Root.Children)
	}
}

func TestDecodeHardEncodingFailure(t *testing.T) {
	_, err := Decode([]byte(`{"Mindmap": {"text": `))
	if err == nil {
		t.Fatal("truncated JSON should fail")
	}
	if !errors.Is(err, errors.ErrCodeEncoding) {
		t.Errorf("error code = %q, want ENCODING_INVALID", errors.GetCode(err))
	}
}

func TestDecodeWeakText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty text", `{"Mindmap": {"text": ""}}`},
		{"null text", `{"Mindmap": {"text": null}}`},
		{"missing text", `{"Mindmap": {}}`},
		{"numeric text", `{"Mindmap": {"text": 42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("weak text should not fail decode: %v", err)
			}
			if doc.Root.Text != "" {
				t.Errorf("weak text should decode to empty, got %q", doc.Root.Text)
			}
		})
	}
}

func TestRepairPreservesStrings(t *testing.T) {
	// Commas inside string literals must survive the repair pass.
	raw := []byte(`{"Mindmap": {"text": "a, b,]}", "children": [],}}`)
	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Root.Text != "a, b,]}" {
		t.Errorf("string content mangled: %q", doc.Root.Text)
	}
}

func TestWalkOrder(t *testing.T) {
	doc, err := Decode([]byte(`{"Mindmap": {"text": "r", "children": [
		{"text": "a", "children": [{"text": "a1"}]},
		{"text": "b"}
	]}}`))
	if err != nil {
		t.Fatal(err)
	}

	var order []string
	doc.Walk(func(n *Node, depth int) { order = append(order, n.Text) })

	want := []string{"r", "a", "a1", "b"}
	if len(order) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("visit order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}
