package client

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ImageConditioner prepares a scanned page for OCR.
type ImageConditioner struct {
	contrast  float64
	sharpen   float64
	threshold uint8
}

// NewImageConditioner creates a conditioner. contrast is a percentage in
// -100..100, sharpen a gaussian sigma (0 disables), threshold the gray level
// at or above which a pixel becomes white (0 disables binarization).
func NewImageConditioner(contrast, sharpen float64, threshold uint8) *ImageConditioner {
	return &ImageConditioner{contrast: contrast, sharpen: sharpen, threshold: threshold}
}

// Condition returns a grayscale, contrast-stretched, sharpened and
// binarized copy of img. The input is not modified.
func (ic *ImageConditioner) Condition(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	if ic.contrast != 0 {
		out = imaging.AdjustContrast(out, ic.contrast)
	}
	if ic.sharpen > 0 {
		out = imaging.Sharpen(out, ic.sharpen)
	}
	if ic.threshold > 0 {
		out = Binarize(out, ic.threshold)
	}
	return out
}

// Binarize maps every pixel to black or white around threshold.
func Binarize(img image.Image, threshold uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		// img is grayscale already in the pipeline; the luma keeps this
		// correct for color input too.
		y := (299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000
		if y >= uint32(threshold) {
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		}
		return color.NRGBA{A: c.A}
	})
}
