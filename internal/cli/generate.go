package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output    string  // output file path (or base path for multiple formats)
	formats   string  // comma-separated output formats
	width     int     // canvas width in pixels
	height    int     // canvas height in pixels
	wrapWidth float64 // label wrap width in pixels
	maxDepth  int     // deepest rendered level
	model     string  // chat model override
	offline   bool    // use the deterministic offline generator
	noCache   bool    // disable the pipeline cache
	refresh   bool    // bypass cached results
	strict    bool    // fail instead of truncating deep branches
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Expand a prompt into a mindmap image",
		Long: `Generate sends the prompt to a language model, validates the returned
mindmap document, and renders it. The OPENAI_API_KEY environment variable (or
a .env file) supplies the model credential; --offline skips the model and
renders a fixed sample tree instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), strings.Join(args, " "), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), svg, dot, dot-png (comma-separated)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "canvas height in pixels")
	cmd.Flags().Float64Var(&opts.wrapWidth, "wrap-width", 0, "label wrap width in pixels")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "deepest rendered level")
	cmd.Flags().StringVar(&opts.model, "model", "", "chat model override")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "render a fixed sample tree without calling a model")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even if a cached result exists")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when deep branches would be truncated")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, prompt string, opts *generateOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.model != "" {
		cfg.Generate.Model = opts.model
	}

	gen, err := newGenerator(cfg, opts.offline)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		Prompt:    prompt,
		Formats:   parseFormats(opts.formats),
		Width:     firstNonZero(opts.width, cfg.Render.Width),
		Height:    firstNonZero(opts.height, cfg.Render.Height),
		WrapWidth: firstNonZeroF(opts.wrapWidth, cfg.Render.WrapWidth),
		MaxDepth:  firstNonZero(opts.maxDepth, cfg.Render.MaxDepth),
		FontSize:  cfg.Render.FontSize,
		Refresh:   opts.refresh,
		Strict:    opts.strict,
		Generator: gen,
		Logger:    c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating mindmap with %s...", gen.Model()))
	spinner.Start()
	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		spinner.Stop()
		if spinner.Cancelled() {
			return ctx.Err()
		}
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Generated mindmap for %q", prompt))
	printStats(result.Stats.NodeCount, result.Stats.Depth, result.CacheInfo.GenerateHit)

	reportIssues(result)

	return writeArtifacts(result.Artifacts, pipeOpts.Formats, opts.output, defaultBaseName(prompt))
}

// reportIssues surfaces truncation and per-node failures after a render.
func reportIssues(result *pipeline.Result) {
	if result.Report.Truncated {
		printWarning("Deep branches were truncated at the depth limit")
	}
	for _, ne := range result.Report.NodeErrors {
		printWarning("Node %s failed to render: %v", ne.Path, ne.Err)
	}
}

// writeArtifacts writes each rendered format to disk. Single-format runs
// honor --output exactly; multi-format runs treat it as a base path.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, base string) error {
	if output != "" {
		if err := errors.ValidateOutputPath(output); err != nil {
			return err
		}
		ext := filepath.Ext(output)
		if ext != "" {
			base = strings.TrimSuffix(output, ext)
		} else {
			base = output
		}
	}

	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + fileExt(format)
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// fileExt maps a pipeline format to its file suffix. The Graphviz raster
// keeps a distinct name so it can coexist with the native PNG.
func fileExt(format string) string {
	if format == pipeline.FormatDOTPNG {
		return "graphviz.png"
	}
	return format
}

// defaultBaseName derives an output base name from the prompt.
func defaultBaseName(prompt string) string {
	fields := strings.Fields(strings.ToLower(prompt))
	if len(fields) > 4 {
		fields = fields[:4]
	}
	name := strings.Join(fields, "-")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, name)
	if name == "" {
		name = "mindmap"
	}
	return name
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroF(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
