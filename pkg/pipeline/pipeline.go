// Package pipeline provides the core mindmap pipeline for promptmap.
//
// This package implements the complete generate → decode → render pipeline
// that backs both the CLI and the HTTP API. Centralizing it keeps behavior
// identical across entry points and puts the caching logic in one place.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Generate: Turn a free-text prompt into raw mindmap JSON via a model
//  2. Decode: Validate the raw JSON into a document tree
//  3. Render: Lay out the tree and produce output artifacts (PNG, SVG, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Prompt:    "history of jazz",
//	    Generator: gen,
//	    Formats:   []string{"png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
//
// Run individual stages:
//
//	// Generate + decode only
//	doc, err := runner.Generate(ctx, opts)
//
//	// Render an existing document
//	artifacts, report, err := runner.Render(ctx, doc, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/promptmap/promptmap/pkg/cache"
	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/generate"
	"github.com/promptmap/promptmap/pkg/layout"
	"github.com/promptmap/promptmap/pkg/mindmap"
	"github.com/promptmap/promptmap/pkg/render"
)

// Format constants for output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatDOT = "dot"

	// FormatDOTPNG rasterizes the document through Graphviz instead of the
	// native canvas painter. Useful for comparing layout engines.
	FormatDOTPNG = "dot-png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:    true,
	FormatSVG:    true,
	FormatDOT:    true,
	FormatDOTPNG: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupported,
			"invalid format: %q (must be one of: png, svg, dot, dot-png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for the mindmap pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Generate options
	Prompt string `json:"prompt,omitempty"`
	// Document supplies raw mindmap JSON directly, skipping generation.
	// Exactly one of Prompt and Document must be set.
	Document []byte `json:"document,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Layout options; zero values fall back to the layout defaults.
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	WrapWidth float64 `json:"wrap_width,omitempty"`
	MaxDepth  int     `json:"max_depth,omitempty"`
	FontSize  float64 `json:"font_size,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Strict promotes depth truncation from a report flag to a
	// DEPTH_EXCEEDED error. The default keeps truncation a notice.
	Strict bool `json:"strict,omitempty"`

	// Runtime options (not serialized)
	Generator generate.Generator `json:"-"`
	Logger    *log.Logger        `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the decoded mindmap tree.
	Document *mindmap.Document

	// DocumentHash is the content hash of the decoded document.
	DocumentHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Report carries per-node render failures and the truncation flag.
	Report render.Report

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	Depth        int
	GenerateTime time.Duration
	DecodeTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GenerateHit bool // Whether the raw document came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Prompt == "" && len(o.Document) == 0 {
		return errors.New(errors.ErrCodePrompt, "prompt or document is required")
	}
	if o.Prompt != "" {
		if err := errors.ValidatePrompt(o.Prompt); err != nil {
			return err
		}
		if o.Generator == nil {
			return errors.New(errors.ErrCodeGeneration, "generator is required to expand a prompt")
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutConfig builds the layout configuration from the options. Unset
// values resolve through the layout defaults.
func (o *Options) LayoutConfig() layout.Config {
	return layout.Config{
		Width:     o.Width,
		Height:    o.Height,
		WrapWidth: o.WrapWidth,
		MaxDepth:  o.MaxDepth,
		FontSize:  o.FontSize,
	}.Normalized()
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	cfg := o.LayoutConfig()
	return cache.ArtifactKeyOpts{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		WrapWidth: cfg.WrapWidth,
		HSpacing:  cfg.HSpacing,
		VSpacing:  cfg.VSpacing,
		MaxDepth:  cfg.MaxDepth,
	}
}

// model names the generator for cache keys; direct documents use a fixed tag.
func (o *Options) model() string {
	if o.Generator != nil {
		return o.Generator.Model()
	}
	return "direct"
}
