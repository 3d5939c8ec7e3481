package textextract

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// thumbnailWidth is the width, in pixels, of a fallback-rendered thumbnail;
// its height follows the page's aspect ratio.
const thumbnailWidth = 400

// encodeJPEG resizes img to thumbnail scale and writes it as JPEG to w.
func encodeJPEG(w io.Writer, img image.Image) error {
	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	return imaging.Encode(w, resized, imaging.JPEG)
}
