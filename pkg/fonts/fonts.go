// Package fonts resolves the font face used for measuring and painting node
// labels.
//
// A proportional system font is located with go-findfont and parsed with
// freetype. When no system font can be found (minimal containers, stripped CI
// images), the embedded Go Regular font is used instead. The two faces have
// different metrics, so word wrapping and box sizes differ between machines
// with and without system fonts; this is an accepted, documented variance.
package fonts

import (
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/promptmap/promptmap/pkg/errors"
)

// DefaultSize is the point size used for node labels.
const DefaultSize = 16.0

// candidates are tried in order against the system font index.
var candidates = []string{
	"DejaVuSans.ttf",
	"Arial.ttf",
	"Helvetica.ttf",
	"LiberationSans-Regular.ttf",
}

var (
	loadOnce   sync.Once
	parsedFont *truetype.Font
	usedSystem bool
	loadErr    error
)

// load parses the label font exactly once. System lookup failures are not
// errors; they select the embedded fallback.
func load() {
	for _, name := range candidates {
		path, err := findfont.Find(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		parsedFont = f
		usedSystem = true
		return
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// The embedded font is compiled into the binary; a parse failure
		// means a corrupted build.
		loadErr = errors.Wrap(errors.ErrCodeFont, err, "parse embedded fallback font")
		return
	}
	parsedFont = f
}

// Face returns a font face at the given point size. Non-positive sizes fall
// back to DefaultSize.
func Face(points float64) (font.Face, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	if points <= 0 {
		points = DefaultSize
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size: points,
		DPI:  72,
	}), nil
}

// UsingSystemFont reports whether a system font was found, as opposed to the
// embedded fallback. Useful for logging the layout variance.
func UsingSystemFont() bool {
	loadOnce.Do(load)
	return usedSystem
}
