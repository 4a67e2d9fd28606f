// Package generate produces raw mindmap JSON from a free-text prompt.
//
// The generation step is an external collaborator from the renderer's point
// of view: implementations return raw bytes in the documented wire shape and
// the validator (pkg/mindmap) decides whether they are usable. The core
// render path performs no retries against a generator; a failed call surfaces
// as-is.
package generate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/mindmap"
)

// Generator turns a prompt into raw mindmap JSON.
type Generator interface {
	// Generate returns raw JSON expected to match
	// {"Mindmap": {"text": ..., "children": [...]}}. The bytes are not
	// guaranteed valid; callers must run them through mindmap.Decode.
	Generate(ctx context.Context, prompt string) ([]byte, error)

	// Model identifies the generator for cache keys and logs.
	Model() string
}

// Static is a deterministic offline generator used for demos and tests. It
// builds a small fixed-shape tree around the prompt text without any network
// access.
type Static struct{}

// NewStatic creates the offline generator.
func NewStatic() Static {
	return Static{}
}

// Model implements Generator.
func (Static) Model() string { return "static" }

// Generate implements Generator. The output always decodes cleanly.
func (Static) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := errors.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	root := &mindmap.Node{
		Text: strings.TrimSpace(prompt),
		Children: []*mindmap.Node{
			{Text: "Overview", Children: []*mindmap.Node{
				{Text: "Key ideas"},
				{Text: "Context"},
			}},
			{Text: "Details", Children: []*mindmap.Node{
				{Text: "Components"},
				{Text: "Relationships"},
			}},
			{Text: "Examples"},
		},
	}

	doc := &mindmap.Document{Root: root}
	return json.Marshal(doc)
}
