//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract drives libtesseract through gosseract. A client is created per
// call because gosseract clients are not safe for concurrent use.
type Tesseract struct {
	lang string
}

// NewTesseract verifies that libtesseract and the language data load.
func NewTesseract(lang string) (*Tesseract, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	probe := image.NewGray(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := client.Text(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Tesseract{lang: lang}, nil
}

func (t *Tesseract) Name() string    { return "tesseract " + gosseract.Version() }
func (t *Tesseract) Available() bool { return true }

// Recognize returns the text Tesseract reads in img.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, psm PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.lang); err != nil {
		return "", fmt.Errorf("set language %s: %w", t.lang, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
