// Package images inspects image data standard decoders do not handle.
package images

import (
	"bytes"
	"errors"
	"math"

	"github.com/srwiley/oksvg"
)

// maxSVGDim is the maximum dimension reported for SVG. Larger viewBox values
// are treated as unusable.
const maxSVGDim = 8192

// ErrNoSize is returned for SVG images without usable viewBox.
var ErrNoSize = errors.New("svg has no usable size")

// SVGSize returns intrinsic size of SVG image taken from its viewBox,
// fractional values are rounded up.
func SVGSize(data []byte) (int, int, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 || w > maxSVGDim || h > maxSVGDim {
		return 0, 0, ErrNoSize
	}
	return int(math.Ceil(w)), int(math.Ceil(h)), nil
}
