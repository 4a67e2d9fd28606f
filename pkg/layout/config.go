package layout

import "image/color"

// Defaults for the layout and paint configuration. Spacing is fixed rather
// than content-aware: labels are capped by the wrap width, which bounds
// worst-case box width and keeps the single-pass layout linear in the node
// count.
const (
	DefaultWidth       = 1200
	DefaultHeight      = 800
	DefaultWrapWidth   = 150.0
	DefaultHSpacing    = 200.0
	DefaultVSpacing    = 80.0
	DefaultPadX        = 15.0
	DefaultPadY        = 10.0
	DefaultRadius      = 10.0
	DefaultMaxDepth    = 10
	DefaultFontSize    = 16.0
	DefaultRootAnchorY = 100.0

	// Placeholder is substituted for missing, empty, or non-string labels so
	// every box has visible content.
	Placeholder = "(empty)"
)

// Config controls layout geometry and node appearance.
type Config struct {
	Width  int // canvas width in pixels
	Height int // canvas height in pixels

	WrapWidth float64 // max label line width before wrapping
	HSpacing  float64 // fixed horizontal spacing between sibling centers
	VSpacing  float64 // vertical gap between a node and its children row
	PadX      float64 // horizontal box padding per side
	PadY      float64 // vertical box padding per side
	Radius    float64 // box corner radius
	FontSize  float64 // label point size

	MaxDepth    int     // deepest level laid out; deeper subtrees are truncated
	RootAnchorY float64 // vertical center of the root box

	// Palette holds node fill colors indexed by depth modulo its length.
	Palette []color.Color
}

// DefaultPalette is the depth-indexed node fill palette.
var DefaultPalette = []color.Color{
	color.RGBA{R: 0xad, G: 0xd8, B: 0xe6, A: 0xff}, // light blue
	color.RGBA{R: 0x90, G: 0xee, B: 0x90, A: 0xff}, // light green
	color.RGBA{R: 0xff, G: 0xb6, B: 0xc1, A: 0xff}, // light pink
	color.RGBA{R: 0xff, G: 0xff, B: 0xe0, A: 0xff}, // light yellow
	color.RGBA{R: 0xe6, G: 0xe6, B: 0xfa, A: 0xff}, // lavender
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		WrapWidth:   DefaultWrapWidth,
		HSpacing:    DefaultHSpacing,
		VSpacing:    DefaultVSpacing,
		PadX:        DefaultPadX,
		PadY:        DefaultPadY,
		Radius:      DefaultRadius,
		FontSize:    DefaultFontSize,
		MaxDepth:    DefaultMaxDepth,
		RootAnchorY: DefaultRootAnchorY,
		Palette:     DefaultPalette,
	}
}

// FillColor returns the palette color for a node at the given depth.
// The palette cycles: color = palette[depth mod len(palette)].
func (c Config) FillColor(depth int) color.Color {
	if len(c.Palette) == 0 {
		return color.White
	}
	return c.Palette[depth%len(c.Palette)]
}

// Normalized returns a copy with zero values replaced by defaults, so a
// partially filled Config behaves sensibly.
func (c Config) Normalized() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.WrapWidth <= 0 {
		c.WrapWidth = d.WrapWidth
	}
	if c.HSpacing <= 0 {
		c.HSpacing = d.HSpacing
	}
	if c.VSpacing <= 0 {
		c.VSpacing = d.VSpacing
	}
	if c.PadX <= 0 {
		c.PadX = d.PadX
	}
	if c.PadY <= 0 {
		c.PadY = d.PadY
	}
	if c.Radius <= 0 {
		c.Radius = d.Radius
	}
	if c.FontSize <= 0 {
		c.FontSize = d.FontSize
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.RootAnchorY <= 0 {
		c.RootAnchorY = d.RootAnchorY
	}
	if len(c.Palette) == 0 {
		c.Palette = d.Palette
	}
	return c
}
