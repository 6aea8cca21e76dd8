// Package acquire turns a PDF into per-page text, using the embedded text
// layer where it is usable and OCR otherwise.
package acquire

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/logging"
	"github.com/a3tai/process-extractor/internal/model"
	"github.com/a3tai/process-extractor/internal/ocr"
	"github.com/a3tai/process-extractor/internal/pdf"
)

var footerOnly = regexp.MustCompile(`(?i)^\s*Este\s+documento\s+[ée]\s+pe[çc]a\s+do\s+processo\s+\d[\d./-]+\s*P[áa]g\.?\s+\d+\s+de\s+\d+\s*$`)

// Opener opens a document for native text reading.
type Opener func(path string) (pdf.Document, error)

// Renderer rasterizes a 1-based page.
type Renderer interface {
	RenderPage(ctx context.Context, path string, page int, dpi float64) (image.Image, error)
}

// ImageSource lists the raster images embedded in a 1-based page.
type ImageSource interface {
	PageImages(path string, page int) ([]pdf.EmbeddedImage, error)
}

// Stats counts how pages were acquired. OCR counts every page whose native
// text was unusable, whether or not an engine could read it.
type Stats struct {
	Total        int
	WithText     int
	OCR          int
	OCRAvailable bool
}

// OCR steps a PageError can come from.
const (
	OpRender    = "render"
	OpRecognize = "recognize"
)

// PageError records a page whose OCR could not run.
type PageError struct {
	Page int
	Op   string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Op, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Acquisition is the text of every page of one document.
type Acquisition struct {
	Path     string
	Pages    []model.Page
	Layouts  map[int]pdf.Layout
	Stats    Stats
	Failures []*PageError
}

// Acquirer reads page text from PDFs.
type Acquirer struct {
	open     Opener
	renderer Renderer
	images   ImageSource
	engine   ocr.Engine
	cal      config.Calibration
	log      *zap.Logger
}

// Option customizes an Acquirer.
type Option func(*Acquirer)

// WithOpener replaces the native document opener.
func WithOpener(o Opener) Option { return func(a *Acquirer) { a.open = o } }

// WithRenderer replaces the page rasterizer.
func WithRenderer(r Renderer) Option { return func(a *Acquirer) { a.renderer = r } }

// WithImageSource replaces the embedded image extractor.
func WithImageSource(s ImageSource) Option { return func(a *Acquirer) { a.images = s } }

// WithEngine sets the OCR engine.
func WithEngine(e ocr.Engine) Option { return func(a *Acquirer) { a.engine = e } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(a *Acquirer) { a.log = logging.OrNop(l) } }

// New returns an Acquirer backed by ledongthuc/pdf, MuPDF and pdfcpu, with
// OCR disabled unless an engine is supplied.
func New(cal config.Calibration, opts ...Option) *Acquirer {
	a := &Acquirer{
		open:     func(path string) (pdf.Document, error) { return pdf.OpenNative(path) },
		renderer: pdf.NewRenderer(),
		images:   pdf.NewImageExtractor(),
		engine:   ocr.Noop{},
		cal:      cal,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OCRAvailable reports whether the configured engine can run.
func (a *Acquirer) OCRAvailable() bool {
	return a.engine.Available()
}

// Engine returns the configured OCR engine.
func (a *Acquirer) Engine() ocr.Engine {
	return a.engine
}

// Acquire reads every page of path in order. It fails only when the
// document cannot be opened; per-page problems yield empty pages.
func (a *Acquirer) Acquire(ctx context.Context, path string) (*Acquisition, error) {
	doc, err := a.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	acq := &Acquisition{
		Path:    path,
		Layouts: make(map[int]pdf.Layout),
		Stats:   Stats{OCRAvailable: a.engine.Available()},
	}

	n := doc.NumPages()
	for num := 1; num <= n; num++ {
		if err := ctx.Err(); err != nil {
			return acq, err
		}
		page, layout, failure := a.acquirePage(ctx, doc, path, num)
		acq.Pages = append(acq.Pages, page)
		if layout != nil {
			acq.Layouts[num] = *layout
		}
		if failure != nil {
			acq.Failures = append(acq.Failures, failure)
		}
		acq.Stats.count(page)
	}
	acq.Stats.Total = len(acq.Pages)

	a.log.Debug("pages acquired",
		zap.String("file", path),
		zap.Int("pages", acq.Stats.Total),
		zap.Int("with_text", acq.Stats.WithText),
		zap.Int("ocr", acq.Stats.OCR))
	return acq, nil
}

// CountPages computes the statistics of pages acquired elsewhere.
func CountPages(pages []model.Page) Stats {
	s := Stats{Total: len(pages)}
	for _, p := range pages {
		s.count(p)
	}
	return s
}

func (s *Stats) count(p model.Page) {
	if p.Source == model.SourceOCR || !p.HasText {
		s.OCR++
	}
	if p.HasText {
		s.WithText++
	}
}

func (a *Acquirer) acquirePage(ctx context.Context, doc pdf.Document, path string, num int) (page model.Page, layout *pdf.Layout, failure *PageError) {
	page = model.Page{Number: num, Source: model.SourceNative}
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("page acquisition failed", zap.Int("page", num), zap.Any("panic", r))
		}
	}()

	l, err := doc.Layout(num)
	if err != nil {
		a.log.Warn("native text unavailable", zap.Int("page", num), zap.Error(err))
	} else {
		layout = &l
		page.Text = brtext.Clean(l.Text())
	}

	if HasUsableText(page.Text, a.cal.MinTextChars) {
		page.HasText = true
		return page, layout, nil
	}

	// Short or footer-only native text is not content.
	page.Text = ""
	if !a.engine.Available() {
		return page, layout, nil
	}

	page.Source = model.SourceOCR
	text, failure := a.ocrPage(ctx, path, num)
	if failure != nil {
		a.log.Warn("page OCR failed", zap.Int("page", num), zap.Error(failure))
		return page, layout, failure
	}
	text = brtext.Clean(text)
	if HasUsableText(text, a.cal.MinTextChars) {
		page.Text = strings.TrimSpace(text)
		page.HasText = true
	}
	return page, layout, nil
}

func (a *Acquirer) ocrPage(ctx context.Context, path string, num int) (string, *PageError) {
	img, err := a.renderer.RenderPage(ctx, path, num, a.cal.OCRDPI)
	if err != nil {
		return "", &PageError{Page: num, Op: OpRender, Err: err}
	}
	text, err := a.engine.Recognize(ctx, ocr.Grayscale(img), ocr.PSMAuto)
	if err != nil {
		return "", &PageError{Page: num, Op: OpRecognize, Err: err}
	}
	return text, nil
}

// EmbeddedTexts runs OCR over the images embedded in a page that are large
// enough to hold text, returning the non-trivial results. Without an OCR
// engine it returns nil.
func (a *Acquirer) EmbeddedTexts(ctx context.Context, path string, num int) []string {
	if !a.engine.Available() {
		return nil
	}
	imgs, err := a.images.PageImages(path, num)
	if err != nil {
		a.log.Debug("embedded images unavailable", zap.Int("page", num), zap.Error(err))
		return nil
	}

	var texts []string
	for _, im := range imgs {
		if ctx.Err() != nil {
			break
		}
		if !ocr.LargeEnough(im.Image, a.cal.MinImageWidth, a.cal.MinImageHeight) {
			continue
		}
		prepared := ocr.Upscale(im.Image, a.cal.UpscaleBelowWidth, a.cal.UpscaleFactor)
		text, err := ocr.RecognizeBest(ctx, a.engine, prepared)
		if err != nil {
			a.log.Debug("embedded image OCR failed", zap.Int("page", num), zap.String("image", im.Name), zap.Error(err))
			continue
		}
		if len([]rune(text)) > a.cal.MinImageTextChars {
			texts = append(texts, brtext.Clean(text))
		}
	}
	return texts
}

// IsFooterOnly reports whether text is nothing but the process footer line.
func IsFooterOnly(text string) bool {
	return footerOnly.MatchString(strings.TrimSpace(text))
}

// HasUsableText reports whether text has more than minChars characters
// and is more than the process footer.
func HasUsableText(text string, minChars int) bool {
	t := strings.TrimSpace(text)
	return len([]rune(t)) > minChars && !IsFooterOnly(t)
}
