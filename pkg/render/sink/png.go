// Package sink serializes render results into output formats.
//
// PNG is the primary format (raster bytes of the painted canvas). SVG mirrors
// the raster output as a vector document, and DOT exports the tree structure
// for Graphviz interop.
package sink

import (
	"bytes"
	"image"
	"image/png"
)

// PNG encodes an image as PNG bytes.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
