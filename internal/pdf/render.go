package pdf

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Renderer rasterizes whole pages with MuPDF so that pages without a text
// layer can be sent to OCR.
type Renderer struct {
	mu   sync.Mutex
	path string
	doc  *fitz.Document
}

// NewRenderer returns a renderer that opens documents lazily.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPage rasterizes a 1-based page at the given resolution.
func (r *Renderer) RenderPage(ctx context.Context, path string, page int, dpi float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil || r.path != path {
		if r.doc != nil {
			_ = r.doc.Close()
			r.doc = nil
		}
		doc, err := fitz.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s for rendering: %w", path, err)
		}
		r.doc, r.path = doc, path
	}

	if page < 1 || page > r.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", page, r.doc.NumPage())
	}
	img, err := r.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("page %d: render failed: %w", page, err)
	}
	return img, nil
}

// Close releases the open document, if any.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return nil
	}
	err := r.doc.Close()
	r.doc = nil
	return err
}
