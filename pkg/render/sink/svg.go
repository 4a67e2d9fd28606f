package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/color"

	"github.com/promptmap/promptmap/pkg/layout"
)

// SVG writes the layout as a standalone SVG document mirroring the raster
// output: one rounded rect per node, one line per connector, one text element
// per wrapped line. Fonts are left to the viewer, so text metrics may differ
// slightly from the PNG.
func SVG(l *layout.Layout, cfg layout.Config) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
	buf.WriteString(`  <rect width="100%" height="100%" fill="white"/>` + "\n")

	// Connectors first so boxes paint over the line ends.
	for _, b := range l.Boxes {
		if b.Parent < 0 {
			continue
		}
		p := l.Boxes[b.Parent]
		fmt.Fprintf(&buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#666" stroke-width="2"/>`+"\n",
			p.CenterX(), p.CenterY(), b.CenterX(), b.CenterY())
	}

	for _, b := range l.Boxes {
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="#333" stroke-width="2"/>`+"\n",
			b.Left, b.Top, b.Width, b.Height, cfg.Radius, hexColor(cfg.FillColor(b.Depth)))
		for j, line := range b.Lines {
			y := b.Top + cfg.PadY + (float64(j)+0.5)*b.LineHeight
			fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-size="%.0f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				b.CenterX(), y, cfg.FontSize, escapeXML(line))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
