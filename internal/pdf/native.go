package pdf

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Document exposes the positioned content of a PDF's pages.
type Document interface {
	NumPages() int
	Layout(page int) (Layout, error)
	Close() error
}

// NativeDocument reads embedded text with ledongthuc/pdf.
type NativeDocument struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenNative opens path for native text reading.
func OpenNative(path string) (*NativeDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &NativeDocument{file: f, reader: r}, nil
}

// NumPages returns the page count.
func (d *NativeDocument) NumPages() int {
	return d.reader.NumPage()
}

// Layout returns the glyphs and rectangles of a 1-based page. Malformed
// content streams make the underlying reader panic; that is reported as an
// error so the caller can fall back to OCR.
func (d *NativeDocument) Layout(page int) (layout Layout, err error) {
	layout.Page = page
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: malformed content: %v", page, r)
		}
	}()

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return layout, nil
	}

	content := p.Content()
	layout.Glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		layout.Glyphs = append(layout.Glyphs, Glyph{
			X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S,
		})
	}
	for _, r := range content.Rect {
		layout.Rects = append(layout.Rects, Rect{
			X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y,
		})
	}

	if len(layout.Glyphs) == 0 {
		// Some producers only decode through the font-aware path.
		if text, terr := p.GetPlainText(nil); terr == nil && text != "" {
			layout.Glyphs = append(layout.Glyphs, plainGlyphs(text)...)
		}
	}
	return layout, nil
}

// Close releases the underlying file.
func (d *NativeDocument) Close() error {
	return d.file.Close()
}

// plainGlyphs lays out already-decoded text as one glyph per line.
func plainGlyphs(text string) []Glyph {
	var glyphs []Glyph
	y := 10000.0
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if i > start {
				glyphs = append(glyphs, Glyph{X: 0, Y: y, W: float64(i - start), Size: 10, S: text[start:i]})
			}
			y -= 12
			start = i + 1
		}
	}
	return glyphs
}
