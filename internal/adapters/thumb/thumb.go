// Package thumb resizes raster uploads into fixed-width PNG previews
package thumb

import (
	"bytes"

	"github.com/disintegration/imaging"

	perr "turna/internal/platform/errors"
	"turna/internal/services/files/domain"
)

// Resizer implements the files thumbnailer on disintegration/imaging
type Resizer struct{}

var _ domain.Thumbnailer = Resizer{}

// New returns the imaging-backed resizer
func New() Resizer { return Resizer{} }

// Resize decodes data, scales it to width preserving aspect, and re-encodes
// as PNG. Height 0 lets imaging keep the ratio
func (Resizer) Resize(data []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, perr.InvalidArgf("thumbnail width must be positive")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, perr.InvalidArgf("undecodable image payload")
	}
	out := imaging.Resize(img, width, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "encode thumbnail")
	}
	return buf.Bytes(), nil
}
