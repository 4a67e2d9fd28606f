package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/promptmap/promptmap/pkg/cache"
	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/generate"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Prompt:    "history of jazz",
		Generator: generate.NewStatic(),
		Formats:   []string{FormatPNG, FormatSVG, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Document == nil || result.Document.Root == nil {
		t.Fatal("missing document")
	}
	if result.Document.Root.Text != "history of jazz" {
		t.Errorf("root text = %q", result.Document.Root.Text)
	}
	for _, format := range []string{FormatPNG, FormatSVG, FormatDOT} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("missing %s artifact", format)
		}
	}
	if !result.Report.OK() {
		t.Errorf("unexpected render issues: %s", result.Report.Summary())
	}
	if result.Stats.NodeCount != result.Document.Count() {
		t.Errorf("NodeCount = %d, want %d", result.Stats.NodeCount, result.Document.Count())
	}
	if result.DocumentHash == "" {
		t.Error("missing document hash")
	}
	if result.CacheInfo.GenerateHit || result.CacheInfo.RenderHit {
		t.Error("null cache should never hit")
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, testLogger())
	defer runner.Close()

	opts := Options{
		Prompt:    "history of jazz",
		Generator: generate.NewStatic(),
		Formats:   []string{FormatPNG},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.GenerateHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.GenerateHit {
		t.Error("second run should hit the document cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}
	if string(first.Artifacts[FormatPNG]) != string(second.Artifacts[FormatPNG]) {
		t.Error("cached artifact should match the original")
	}

	refresh := opts
	refresh.Refresh = true
	third, err := runner.Execute(context.Background(), refresh)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.GenerateHit || third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteDirectDocument(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Document: []byte(`{"Mindmap": {"text": "A", "children": [{"text": "B"}]}}`),
		Formats:  []string{FormatSVG},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", result.Stats.NodeCount)
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact should contain an svg element")
	}
}

func TestExecuteStrictDepth(t *testing.T) {
	deep := `{"Mindmap": {"text": "r", "children": [
		{"text": "a", "children": [{"text": "b", "children": [{"text": "c"}]}]}
	]}}`

	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	opts := Options{
		Document: []byte(deep),
		MaxDepth: 2,
		Strict:   true,
	}
	_, err := runner.Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeDepthExceeded) {
		t.Errorf("strict truncation err = %v, want %s", err, errors.ErrCodeDepthExceeded)
	}

	// Without strict the same document renders with a truncation notice.
	opts.Strict = false
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("non-strict truncation must not fail: %v", err)
	}
	if !result.Report.Truncated {
		t.Error("report should flag truncation")
	}
}

func TestExecuteInvalidDocument(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	_, err := runner.Execute(context.Background(), Options{
		Document: []byte(`{"NotMindmap": {}}`),
	})
	if !errors.Is(err, errors.ErrCodeSchema) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeSchema)
	}
}

func TestExecuteRequiresInput(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	_, err := runner.Execute(context.Background(), Options{})
	if !errors.Is(err, errors.ErrCodePrompt) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodePrompt)
	}
}

func TestExecutePromptRequiresGenerator(t *testing.T) {
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	_, err := runner.Execute(context.Background(), Options{Prompt: "jazz"})
	if !errors.Is(err, errors.ErrCodeGeneration) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeGeneration)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format string
		ok     bool
	}{
		{FormatPNG, true},
		{FormatSVG, true},
		{FormatDOT, true},
		{FormatDOTPNG, true},
		{"pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if tt.ok && err != nil {
			t.Errorf("ValidateFormat(%q) = %v, want nil", tt.format, err)
		}
		if !tt.ok && !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("ValidateFormat(%q) = %v, want %s", tt.format, err, errors.ErrCodeUnsupported)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Document: []byte(`{"Mindmap": {"text": "x"}}`)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPNG {
		t.Errorf("default formats = %v, want [png]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("default logger should be set")
	}
	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second validation: %v", err)
	}
}

func TestLayoutConfigDefaults(t *testing.T) {
	opts := Options{Width: 640}
	cfg := opts.LayoutConfig()
	if cfg.Width != 640 {
		t.Errorf("width = %d, want explicit 640", cfg.Width)
	}
	if cfg.Height == 0 || cfg.MaxDepth == 0 {
		t.Error("unset fields should resolve to defaults")
	}
}
