package acquire

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/model"
	"github.com/a3tai/process-extractor/internal/ocr"
	"github.com/a3tai/process-extractor/internal/pdf"
)

type fakeDoc struct {
	pages map[int]string
	n     int
	bad   map[int]bool
}

func (d *fakeDoc) NumPages() int { return d.n }
func (d *fakeDoc) Close() error  { return nil }

func (d *fakeDoc) Layout(page int) (pdf.Layout, error) {
	if d.bad[page] {
		return pdf.Layout{Page: page}, errors.New("broken stream")
	}
	text, ok := d.pages[page]
	if !ok {
		return pdf.Layout{Page: page}, nil
	}
	return pdf.Layout{Page: page, Glyphs: []pdf.Glyph{{X: 0, Y: 100, W: 100, Size: 10, S: text}}}, nil
}

type fakeEngine struct {
	text  string
	err   error
	calls int
	last  image.Image
}

func (e *fakeEngine) Name() string    { return "fake" }
func (e *fakeEngine) Available() bool { return true }

func (e *fakeEngine) Recognize(_ context.Context, img image.Image, _ ocr.PageSegMode) (string, error) {
	e.calls++
	e.last = img
	return e.text, e.err
}

type fakeRenderer struct {
	rendered []int
	fail     map[int]bool
}

func (r *fakeRenderer) RenderPage(_ context.Context, _ string, page int, _ float64) (image.Image, error) {
	r.rendered = append(r.rendered, page)
	if r.fail[page] {
		return nil, errors.New("mupdf: cannot render")
	}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 200, G: 40, B: 40, A: 255}}, image.Point{}, draw.Src)
	return img, nil
}

type fakeImages struct{ imgs []pdf.EmbeddedImage }

func (f fakeImages) PageImages(string, int) ([]pdf.EmbeddedImage, error) { return f.imgs, nil }

const longText = "REQUISIÇÃO Nr 12 - Fisc Adm / 9º B Sup ao Sr Ordenador de Despesas"

func newDoc() *fakeDoc {
	return &fakeDoc{
		n: 4,
		pages: map[int]string{
			1: longText,
			2: "Este documento é peça do processo 64123.000123/2025-11 Pág 2 de 4",
			4: "curto",
		},
		bad: map[int]bool{},
	}
}

func opener(d pdf.Document) Option {
	return WithOpener(func(string) (pdf.Document, error) { return d, nil })
}

func TestAcquireWithoutOCR(t *testing.T) {
	a := New(config.DefaultCalibration(), opener(newDoc()))

	acq, err := a.Acquire(context.Background(), "x.pdf")
	require.NoError(t, err)
	require.Len(t, acq.Pages, 4)

	assert.Equal(t, model.SourceNative, acq.Pages[0].Source)
	assert.True(t, acq.Pages[0].HasText)
	assert.Equal(t, longText, acq.Pages[0].Text)

	// Footer-only, empty and short pages carry no content.
	for _, p := range acq.Pages[1:] {
		assert.Equal(t, model.SourceNative, p.Source)
		assert.False(t, p.HasText)
		assert.Empty(t, p.Text)
	}

	// Pages that needed OCR are counted even though no engine could read them.
	assert.Equal(t, Stats{Total: 4, WithText: 1, OCR: 3, OCRAvailable: false}, acq.Stats)
	assert.Empty(t, acq.Failures)
}

func TestAcquireRecordsOCRFailures(t *testing.T) {
	r := &fakeRenderer{fail: map[int]bool{2: true}}
	eng := &fakeEngine{err: errors.New("tesseract: bad image")}
	a := New(config.DefaultCalibration(), opener(newDoc()), WithEngine(eng), WithRenderer(r))

	acq, err := a.Acquire(context.Background(), "x.pdf")
	require.NoError(t, err)

	require.Len(t, acq.Failures, 3)
	assert.Equal(t, 2, acq.Failures[0].Page)
	assert.Equal(t, OpRender, acq.Failures[0].Op)
	assert.Equal(t, "page 2: render: mupdf: cannot render", acq.Failures[0].Error())
	assert.Equal(t, OpRecognize, acq.Failures[1].Op)
	assert.Equal(t, 3, acq.Failures[1].Page)
	assert.Equal(t, 4, acq.Failures[2].Page)

	assert.Empty(t, acq.Pages[3].Text)
	assert.Equal(t, 3, acq.Stats.OCR)
	assert.Equal(t, 1, acq.Stats.WithText)
}

func TestAcquireFallsBackToOCR(t *testing.T) {
	doc := newDoc()
	doc.bad[3] = true
	eng := &fakeEngine{text: "NOTA DE CRÉDITO 2025NC000123 UG EMITENTE 160142"}
	r := &fakeRenderer{}
	a := New(config.DefaultCalibration(), opener(doc), WithEngine(eng), WithRenderer(r))

	acq, err := a.Acquire(context.Background(), "x.pdf")
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3, 4}, r.rendered)
	for _, p := range acq.Pages[1:] {
		assert.Equal(t, model.SourceOCR, p.Source)
		assert.Equal(t, "NOTA DE CRÉDITO 2025NC000123 UG EMITENTE 160142", p.Text)
	}
	assert.Equal(t, 3, acq.Stats.OCR)
	assert.Equal(t, 4, acq.Stats.WithText)
	assert.True(t, acq.Stats.OCRAvailable)

	// Rendered pages reach the engine without color.
	r8, g8, b8, _ := eng.last.At(5, 5).RGBA()
	assert.Equal(t, r8, g8)
	assert.Equal(t, g8, b8)
}

func TestAcquireDiscardsShortOCR(t *testing.T) {
	eng := &fakeEngine{text: "  ~ .. "}
	a := New(config.DefaultCalibration(), opener(newDoc()), WithEngine(eng), WithRenderer(&fakeRenderer{}))

	acq, err := a.Acquire(context.Background(), "x.pdf")
	require.NoError(t, err)
	p := acq.Pages[3]
	assert.Equal(t, model.SourceOCR, p.Source)
	assert.Empty(t, p.Text)
	assert.False(t, p.HasText)
	assert.Equal(t, 3, acq.Stats.OCR)
	assert.Equal(t, 1, acq.Stats.WithText)
}

func TestAcquireOpenFailure(t *testing.T) {
	a := New(config.DefaultCalibration(), WithOpener(func(string) (pdf.Document, error) {
		return nil, errors.New("not a pdf")
	}))
	_, err := a.Acquire(context.Background(), "x.pdf")
	assert.Error(t, err)
}

func TestEmbeddedTexts(t *testing.T) {
	imgs := fakeImages{imgs: []pdf.EmbeddedImage{
		{Name: "tiny", Image: image.NewGray(image.Rect(0, 0, 50, 50))},
		{Name: "table", Image: image.NewGray(image.Rect(0, 0, 400, 200))},
	}}

	eng := &fakeEngine{text: "Nome da empresa: ALFA COMERCIO LTDA"}
	a := New(config.DefaultCalibration(), WithEngine(eng), WithImageSource(imgs))
	texts := a.EmbeddedTexts(context.Background(), "x.pdf", 1)
	assert.Equal(t, []string{"Nome da empresa: ALFA COMERCIO LTDA"}, texts)
	// Two segmentation modes for the one image large enough.
	assert.Equal(t, 2, eng.calls)

	short := New(config.DefaultCalibration(), WithEngine(&fakeEngine{text: "ruido"}), WithImageSource(imgs))
	assert.Empty(t, short.EmbeddedTexts(context.Background(), "x.pdf", 1))

	noOCR := New(config.DefaultCalibration(), WithImageSource(imgs))
	assert.Nil(t, noOCR.EmbeddedTexts(context.Background(), "x.pdf", 1))
}

func TestHasUsableText(t *testing.T) {
	assert.False(t, HasUsableText("  ", 30))
	assert.False(t, HasUsableText("abc", 30))
	assert.False(t, HasUsableText("Ofício nº 12 - Seção de Compra", 30), "exactly the minimum")
	assert.True(t, HasUsableText("Ofício nº 123 - Seção de Compra", 30))
	assert.True(t, HasUsableText(longText, 30))
	assert.True(t, IsFooterOnly("Este documento é peça do processo 64123.000123/2025-11 Pág 2 de 4"))
	assert.False(t, IsFooterOnly(longText))
}
