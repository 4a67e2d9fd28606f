package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptmap/promptmap/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // output file path (or base path for multiple formats)
	formats   string  // comma-separated output formats
	width     int     // canvas width in pixels
	height    int     // canvas height in pixels
	wrapWidth float64 // label wrap width in pixels
	maxDepth  int     // deepest rendered level
	noCache   bool    // disable the pipeline cache
	strict    bool    // fail instead of truncating deep branches
}

// renderCommand creates the render command for existing mindmap documents.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a mindmap JSON document",
		Long: `Render reads a mindmap document of the form
{"Mindmap": {"text": ..., "children": [...]}} and draws it without calling a
model. Trailing-comma defects are repaired before validation; any other
malformation is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), svg, dot, dot-png (comma-separated)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "canvas height in pixels")
	cmd.Flags().Float64Var(&opts.wrapWidth, "wrap-width", 0, "label wrap width in pixels")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "deepest rendered level")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when deep branches would be truncated")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		Document:  raw,
		Formats:   parseFormats(opts.formats),
		Width:     firstNonZero(opts.width, cfg.Render.Width),
		Height:    firstNonZero(opts.height, cfg.Render.Height),
		WrapWidth: firstNonZeroF(opts.wrapWidth, cfg.Render.WrapWidth),
		MaxDepth:  firstNonZero(opts.maxDepth, cfg.Render.MaxDepth),
		FontSize:  cfg.Render.FontSize,
		Strict:    opts.strict,
		Logger:    c.Logger,
	}

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered %d nodes", result.Stats.NodeCount))

	reportIssues(result)

	base := strings.TrimSuffix(input, filepath.Ext(input))
	return writeArtifacts(result.Artifacts, pipeOpts.Formats, opts.output, base)
}
