//go:build !tesseract

package ocr

import (
	"context"
	"fmt"
	"image"
)

// Tesseract is unavailable in builds without the "tesseract" tag.
type Tesseract struct{}

// NewTesseract always fails; rebuild with -tags tesseract to enable OCR.
func NewTesseract(lang string) (*Tesseract, error) {
	return nil, fmt.Errorf("%w: built without tesseract support (lang %s)", ErrUnavailable, lang)
}

func (*Tesseract) Name() string    { return "tesseract" }
func (*Tesseract) Available() bool { return false }

func (*Tesseract) Recognize(context.Context, image.Image, PageSegMode) (string, error) {
	return "", ErrUnavailable
}
