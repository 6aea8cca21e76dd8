package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Upscale enlarges img by factor when it is narrower than minWidth. Small
// scans of printed tables recognize far better once enlarged.
func Upscale(img image.Image, minWidth, factor int) image.Image {
	b := img.Bounds()
	if factor <= 1 || b.Dx() >= minWidth {
		return img
	}
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.Lanczos)
}

// Grayscale drops color information before recognition.
func Grayscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// LargeEnough reports whether img meets the minimum size worth OCR.
func LargeEnough(img image.Image, minWidth, minHeight int) bool {
	b := img.Bounds()
	return b.Dx() >= minWidth && b.Dy() >= minHeight
}
