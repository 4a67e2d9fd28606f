package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/promptmap/promptmap/pkg/cache"
	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/mindmap"
	"github.com/promptmap/promptmap/pkg/render"
	"github.com/promptmap/promptmap/pkg/render/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete generate → decode → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1 + 2: Generate and decode
	genStart := time.Now()
	doc, genHit, err := r.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.NodeCount = doc.Count()
	result.Stats.Depth = doc.Depth()
	result.CacheInfo.GenerateHit = genHit

	if data, err := json.Marshal(doc); err == nil {
		result.DocumentHash = cache.Hash(data)
	}

	r.Logger.Info("document ready",
		"nodes", result.Stats.NodeCount,
		"depth", result.Stats.Depth,
		"cached", genHit,
		"duration", result.Stats.GenerateTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, report, renderHit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Report = report
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)
	if !report.OK() {
		r.Logger.Warn("render finished with issues", "report", report.Summary())
	}

	return result, nil
}

// GenerateWithCacheInfo produces a decoded document with caching and reports
// whether the raw document came from cache. When Options.Document is set the
// bytes are decoded directly and never cached.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*mindmap.Document, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	if len(opts.Document) > 0 {
		doc, err := mindmap.Decode(opts.Document)
		return doc, false, err
	}

	cacheKey := r.Keyer.DocumentKey(opts.model(), opts.Prompt)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if doc, err := mindmap.Decode(data); err == nil {
				return doc, true, nil
			}
			// Stale or corrupt entry: regenerate.
		}
	}

	raw, err := opts.Generator.Generate(ctx, opts.Prompt)
	if err != nil {
		return nil, false, err
	}
	doc, err := mindmap.Decode(raw)
	if err != nil {
		return nil, false, errors.Wrap(errors.GetCode(err), err, "model output rejected")
	}

	// Cache the canonical encoding so repairs are not reapplied on every hit.
	if data, err := json.Marshal(doc); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLDocument)
	}

	return doc, false, nil
}

// Generate is a convenience wrapper that discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, opts Options) (*mindmap.Document, error) {
	doc, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return doc, err
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit
// info. On a full cache hit the report is empty: cached artifacts were
// rendered cleanly or would not have been stored. With Options.Strict, depth
// truncation fails the render with DEPTH_EXCEEDED instead of being reported;
// strict cache hits stay consistent because truncated renders are never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *mindmap.Document, opts Options) (map[string][]byte, render.Report, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, render.Report{}, false, err
	}
	r.applyLogger(&opts)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, render.Report{}, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize document for cache key")
	}
	docHash := cache.Hash(data)

	// Try to get all formats from cache.
	if !opts.Refresh {
		artifacts := make(map[string][]byte)
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached {
			return artifacts, render.Report{}, true, nil
		}
	}

	artifacts, report, err := r.renderFormats(ctx, doc, opts)
	if err != nil {
		return nil, render.Report{}, false, err
	}

	if opts.Strict && report.Truncated {
		return nil, render.Report{}, false, errors.New(errors.ErrCodeDepthExceeded,
			"mindmap exceeds the depth limit of %d", opts.LayoutConfig().MaxDepth)
	}

	// Only clean renders are cached; a report with node errors should be
	// recomputed next time rather than replayed from cache.
	if report.OK() {
		for format, data := range artifacts {
			cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		}
	}

	return artifacts, report, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc *mindmap.Document, opts Options) (map[string][]byte, render.Report, error) {
	artifacts, report, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, report, err
}

// renderFormats produces every requested format. The native canvas render
// runs at most once and feeds both the PNG and SVG sinks; DOT formats are
// derived from the document alone.
func (r *Runner) renderFormats(ctx context.Context, doc *mindmap.Document, opts Options) (map[string][]byte, render.Report, error) {
	cfg := opts.LayoutConfig()
	artifacts := make(map[string][]byte, len(opts.Formats))

	var (
		report   render.Report
		rendered *render.Result
	)
	needsCanvas := func() (*render.Result, error) {
		if rendered != nil {
			return rendered, nil
		}
		res, err := render.Render(doc, cfg)
		if err != nil {
			return nil, err
		}
		rendered = res
		report = res.Report
		return res, nil
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatPNG:
			res, err := needsCanvas()
			if err != nil {
				return nil, render.Report{}, err
			}
			data, err := sink.PNG(res.Image)
			if err != nil {
				return nil, render.Report{}, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
			}
			artifacts[format] = data
		case FormatSVG:
			res, err := needsCanvas()
			if err != nil {
				return nil, render.Report{}, err
			}
			artifacts[format] = sink.SVG(res.Layout, cfg)
		case FormatDOT:
			artifacts[format] = []byte(sink.ToDOT(doc))
		case FormatDOTPNG:
			data, err := sink.DOTPNG(ctx, sink.ToDOT(doc))
			if err != nil {
				return nil, render.Report{}, errors.Wrap(errors.ErrCodeInternal, err, "graphviz render")
			}
			artifacts[format] = data
		}
	}

	return artifacts, report, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
