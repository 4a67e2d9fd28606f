// Package render paints a mindmap document onto a raster canvas.
//
// Rendering is a single synchronous pass: the document is laid out with the
// active font face as the pixel measurer, then every box is painted as a
// filled rounded rectangle with its wrapped label, connected to its parent by
// a straight line between box centers. Failures while painting one node are
// isolated into the Report so siblings still render; a partial image beats no
// image.
//
// Each call owns its canvas, so the engine is safe for concurrent use as long
// as callers do not share a Result.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/fonts"
	"github.com/promptmap/promptmap/pkg/layout"
	"github.com/promptmap/promptmap/pkg/mindmap"
)

var (
	outlineColor   = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	connectorColor = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	textColor      = color.Black
)

const (
	outlineWidth   = 2.0
	connectorWidth = 2.0
)

// Result bundles the rendered image with the layout it was painted from and
// the per-node report.
type Result struct {
	Image  image.Image
	Layout *layout.Layout
	Report Report
}

// Render lays out and paints the document. It returns an error only for
// whole-render failures (nil document, unusable font); per-node paint
// failures and depth truncation are reported in Result.Report while the
// remaining nodes still render.
func Render(doc *mindmap.Document, cfg layout.Config) (*Result, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.New(errors.ErrCodeSchema, "document has no root")
	}
	cfg = cfg.Normalized()

	face, err := fonts.Face(cfg.FontSize)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.Clear()

	l := layout.Compute(doc, cfg, dc)

	result := &Result{Layout: l}
	result.Report.Truncated = l.Truncated

	for i, box := range l.Boxes {
		if err := paintNode(dc, cfg, l, i); err != nil {
			result.Report.NodeErrors = append(result.Report.NodeErrors, NodeError{
				Path: box.Path,
				Err:  errors.Wrap(errors.ErrCodeNodeRender, err, "paint node %s", box.Path),
			})
		}
	}

	result.Image = dc.Image()
	return result, nil
}

// paintNode draws the connector to the parent, the box, and the label lines
// for one node. Panics from pathological input are converted into errors so
// one bad node cannot abort the pass.
func paintNode(dc *gg.Context, cfg layout.Config, l *layout.Layout, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	box := l.Boxes[i]

	// Connector first so both endpoint boxes paint over the line ends. The
	// anchor on each side is the box's geometric center.
	if box.Parent >= 0 {
		parent := l.Boxes[box.Parent]
		dc.SetColor(connectorColor)
		dc.SetLineWidth(connectorWidth)
		dc.DrawLine(parent.CenterX(), parent.CenterY(), box.CenterX(), box.CenterY())
		dc.Stroke()
	}

	dc.SetColor(cfg.FillColor(box.Depth))
	dc.DrawRoundedRectangle(box.Left, box.Top, box.Width, box.Height, cfg.Radius)
	dc.FillPreserve()
	dc.SetColor(outlineColor)
	dc.SetLineWidth(outlineWidth)
	dc.Stroke()

	// Lines are centered horizontally, stacked from the top padding down.
	dc.SetColor(textColor)
	for j, line := range box.Lines {
		y := box.Top + cfg.PadY + (float64(j)+0.5)*box.LineHeight
		dc.DrawStringAnchored(line, box.CenterX(), y, 0.5, 0.5)
	}

	return nil
}
