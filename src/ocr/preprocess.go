package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// smallCapture is the edge length below which accurate mode upscales.
const smallCapture = 300

// Preprocess prepares a capture for recognition: grayscale and +50%
// contrast, plus a 2x upscale and sharpen of small captures when accurate.
func Preprocess(img image.Image, accuracy Accuracy) *image.NRGBA {
	if accuracy == Accurate {
		b := img.Bounds()
		if b.Dx() < smallCapture || b.Dy() < smallCapture {
			img = imaging.Resize(img, b.Dx()*2, b.Dy()*2, imaging.Lanczos)
		}
	}
	out := imaging.AdjustContrast(imaging.Grayscale(img), 50)
	if accuracy == Accurate {
		out = imaging.Sharpen(out, 1.1)
	}
	return out
}
