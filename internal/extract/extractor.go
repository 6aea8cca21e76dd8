// Package extract runs the whole pipeline over one process file: page text
// acquisition, classification, section parsing and reconciliation.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/process-extractor/internal/acquire"
	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/classify"
	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/items"
	"github.com/a3tai/process-extractor/internal/logging"
	"github.com/a3tai/process-extractor/internal/model"
	"github.com/a3tai/process-extractor/internal/ocr"
	"github.com/a3tai/process-extractor/internal/reconcile"
	"github.com/a3tai/process-extractor/internal/sections"
)

// PageReader acquires page text. *acquire.Acquirer implements it.
type PageReader interface {
	Acquire(ctx context.Context, path string) (*acquire.Acquisition, error)
	EmbeddedTexts(ctx context.Context, path string, page int) []string
	OCRAvailable() bool
}

// FileValidator rejects files that should not be opened.
type FileValidator interface {
	Validate(path string) error
}

// Extractor turns process files into results. It holds no per-document
// state and may be shared by concurrent callers as long as its PageReader
// can.
type Extractor struct {
	reader     PageReader
	validator  FileValidator
	classifier *classify.Classifier
	cal        config.Calibration
	now        func() time.Time
	log        *zap.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithReader sets the page reader.
func WithReader(r PageReader) Option { return func(e *Extractor) { e.reader = r } }

// WithValidator checks every file before it is opened.
func WithValidator(v FileValidator) Option { return func(e *Extractor) { e.validator = v } }

// WithClassifier replaces the default page classifier.
func WithClassifier(c *classify.Classifier) Option { return func(e *Extractor) { e.classifier = c } }

// WithClock sets the time source used for deadlines and validity checks.
func WithClock(now func() time.Time) Option { return func(e *Extractor) { e.now = now } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(e *Extractor) { e.log = logging.OrNop(l) } }

// New returns an Extractor. Without WithReader, pages are read natively
// and OCR is off.
func New(cal config.Calibration, opts ...Option) *Extractor {
	e := &Extractor{
		cal: cal,
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reader == nil {
		e.reader = acquire.New(cal, acquire.WithLogger(e.log))
	}
	if e.classifier == nil {
		e.classifier = classify.New(classify.WithLogger(e.log))
	}
	return e
}

// run holds the state of one extraction.
type run struct {
	*Extractor
	ctx      context.Context
	path     string
	acq      *acquire.Acquisition
	res      *model.Result
	cls      classify.Classification
	now      time.Time
	today    time.Time
	embedded map[int][]string
	log      *zap.Logger
}

// Extract processes the file at path. It never fails: a file that cannot
// be opened yields an empty result whose metadata carries the error.
func (e *Extractor) Extract(ctx context.Context, path string) *model.Result {
	start := e.now()
	res := model.NewResult()
	res.Metadata.AnalysisID = uuid.NewString()
	res.Metadata.SourceFile = filepath.Base(path)
	res.Metadata.ProcessedAt = start
	res.Metadata.OCRAvailable = e.reader.OCRAvailable()
	log := e.log.With(zap.String("file", res.Metadata.SourceFile), zap.String("analysis_id", res.Metadata.AnalysisID))

	if e.validator != nil {
		if err := e.validator.Validate(path); err != nil {
			return e.failed(res, log, &ExtractionError{Kind: KindOpen, Op: "validate", Err: err}, start)
		}
	}

	acq, err := e.reader.Acquire(ctx, path)
	if acq == nil {
		if err == nil {
			err = errors.New("no pages returned")
		}
		return e.failed(res, log, &ExtractionError{Kind: KindOpen, Op: "open", Err: err}, start)
	}
	if err != nil {
		// Cancellation mid-document: keep what was read.
		diag := &ExtractionError{Kind: KindCanceled, Op: "acquire", Err: err}
		res.Metadata.Diagnostics = append(res.Metadata.Diagnostics, diag.Error())
		log.Warn("acquisition interrupted", zap.Int("pages", len(acq.Pages)), zap.Error(err))
	}

	e.process(ctx, acq, res, log)
	res.Metadata.DurationMS = e.now().Sub(start).Milliseconds()
	return res
}

// ExtractPages runs the pipeline over pages already in memory. Embedded
// images are not available, so the OCR fallbacks for items and supplier
// are skipped.
func (e *Extractor) ExtractPages(ctx context.Context, name string, pages []model.Page) *model.Result {
	start := e.now()
	res := model.NewResult()
	res.Metadata.AnalysisID = uuid.NewString()
	res.Metadata.SourceFile = name
	res.Metadata.ProcessedAt = start
	res.Metadata.OCRAvailable = e.reader.OCRAvailable()

	acq := &acquire.Acquisition{Pages: pages, Stats: acquire.CountPages(pages)}
	e.process(ctx, acq, res, e.log.With(zap.String("file", name), zap.String("analysis_id", res.Metadata.AnalysisID)))
	res.Metadata.DurationMS = e.now().Sub(start).Milliseconds()
	return res
}

// Classify reads the pages of path and buckets them without parsing any
// section. An interrupted read still classifies the pages it returned.
func (e *Extractor) Classify(ctx context.Context, path string) (classify.Classification, acquire.Stats, error) {
	if e.validator != nil {
		if err := e.validator.Validate(path); err != nil {
			return nil, acquire.Stats{}, &ExtractionError{Kind: KindOpen, Op: "validate", Err: err}
		}
	}
	acq, err := e.reader.Acquire(ctx, path)
	if acq == nil {
		if err == nil {
			err = errors.New("no pages returned")
		}
		return nil, acquire.Stats{}, &ExtractionError{Kind: KindOpen, Op: "open", Err: err}
	}
	if err != nil {
		e.log.Warn("acquisition interrupted", zap.String("file", path), zap.Error(err))
	}
	return e.classifier.Classify(acq.Pages), acq.Stats, nil
}

// OCRAvailable reports whether scanned pages can be read.
func (e *Extractor) OCRAvailable() bool {
	return e.reader.OCRAvailable()
}

// Calibration returns the thresholds the extractor runs with.
func (e *Extractor) Calibration() config.Calibration {
	return e.cal
}

func (e *Extractor) failed(res *model.Result, log *zap.Logger, err *ExtractionError, start time.Time) *model.Result {
	log.Error("document could not be read", zap.Error(err))
	res.Metadata.Error = model.Str(err.Error())
	res.Metadata.Diagnostics = append(res.Metadata.Diagnostics, err.Error())
	res.Metadata.DurationMS = e.now().Sub(start).Milliseconds()
	return res
}

func (e *Extractor) process(ctx context.Context, acq *acquire.Acquisition, res *model.Result, log *zap.Logger) {
	now := e.now()
	r := &run{
		Extractor: e,
		ctx:       ctx,
		path:      acq.Path,
		acq:       acq,
		res:       res,
		now:       now,
		today:     brtext.Today(now),
		embedded:  make(map[int][]string),
		log:       log,
	}

	res.Metadata.TotalPages = acq.Stats.Total
	res.Metadata.PagesWithText = acq.Stats.WithText
	res.Metadata.PagesOCR = acq.Stats.OCR
	if !res.Metadata.OCRAvailable {
		diag := &ExtractionError{Kind: KindOCRUnavailable, Op: "probe", Err: ocr.ErrUnavailable}
		res.Metadata.Diagnostics = append(res.Metadata.Diagnostics, diag.Error())
	}
	for _, f := range acq.Failures {
		kind := KindOCR
		if f.Op == acquire.OpRender {
			kind = KindRender
		}
		diag := &ExtractionError{Kind: kind, Page: f.Page, Op: f.Op, Err: f.Err}
		res.Metadata.Diagnostics = append(res.Metadata.Diagnostics, diag.Error())
	}

	r.cls = e.classifier.Classify(acq.Pages)
	res.Metadata.Categories = r.cls.Numbers()

	r.stage("cover", r.cover)
	r.stage("requisition", r.requisition)
	r.stage("credit_notes", r.creditNotes)
	r.stage("certificates", r.certificates)
	r.stage("contract", r.contract)
	r.stage("dispatches", r.dispatches)

	if model.Empty(res.Identification.Type) {
		res.Identification.Type = reconcile.InferProcessType(res.Identification, r.cls)
	}

	log.Info("extraction finished",
		zap.Int("pages", res.Metadata.TotalPages),
		zap.Int("items", len(res.Items)),
		zap.Int("credit_notes", len(res.CreditNotes)),
		zap.Int("dispatches", len(res.Dispatches)),
		zap.String("type", model.Val(res.Identification.Type)))
}

// stage runs one pipeline step. A panic is logged and recorded as a
// diagnostic; the remaining steps still run.
func (r *run) stage(name string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			err := &ExtractionError{Kind: KindSection, Op: name, Err: fmt.Errorf("panic: %v", p)}
			r.log.Error("extraction step failed", zap.String("step", name), zap.Any("panic", p))
			r.res.Metadata.Diagnostics = append(r.res.Metadata.Diagnostics, err.Error())
		}
	}()
	fn()
}

func (r *run) diagnose(msgs ...string) {
	r.res.Metadata.Diagnostics = append(r.res.Metadata.Diagnostics, msgs...)
}

func (r *run) cover() {
	if text := r.cls.Text(model.CategoryCover); text != "" {
		r.res.Identification.Cover = sections.ParseCover(text)
	}
}

func (r *run) requisition() {
	pages := r.cls.Pages(model.CategoryRequisition)
	text := classify.JoinText(pages)
	if text == "" {
		return
	}
	id := &r.res.Identification
	req := sections.ParseRequisition(text)
	reconcile.MergeIdentification(id, req)
	if !model.Empty(req.Supplier) || !model.Empty(req.CNPJ) {
		r.log.Debug("supplier found", zap.String("stage", string(reconcile.StageRequisitionText)))
	}

	r.res.Items = append(r.res.Items, r.nativeItems(pages)...)
	if len(r.res.Items) == 0 && r.reader.OCRAvailable() {
		for _, p := range pages {
			for _, t := range r.embeddedTexts(p.Number) {
				r.res.Items = append(r.res.Items, items.ParseOCRItems(t)...)
			}
		}
		if n := len(r.res.Items); n > 0 {
			r.log.Info("items read from embedded images", zap.Int("items", n))
		}
	}

	if !reconcile.SupplierComplete(*id) && r.reader.OCRAvailable() {
		var texts []string
		for _, p := range pages {
			texts = append(texts, r.embeddedTexts(p.Number)...)
		}
		supplier, cnpj := sections.ParseSupplierFromTexts(texts)
		if reconcile.FillSupplier(id, supplier, cnpj) {
			r.log.Info("supplier found", zap.String("stage", string(reconcile.StageRequisitionImage)))
		}
	}
}

// nativeItems reads the item table from the cell grid of each requisition
// page that kept its native layout.
func (r *run) nativeItems(pages []model.Page) []model.Item {
	var out []model.Item
	for _, p := range pages {
		layout, ok := r.acq.Layouts[p.Number]
		if !ok {
			continue
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					err := &ExtractionError{Kind: KindTable, Page: p.Number, Op: "grid", Err: fmt.Errorf("panic: %v", rec)}
					r.log.Warn("table detection failed", zap.Int("page", p.Number), zap.Any("panic", rec))
					r.diagnose(err.Error())
				}
			}()
			out = append(out, items.ParseNativeTable(layout.Grid())...)
		}()
	}
	return out
}

// embeddedTexts caches the OCR of a page's embedded images, which the
// item and supplier fallbacks both read.
func (r *run) embeddedTexts(page int) []string {
	if r.path == "" {
		return nil
	}
	if texts, ok := r.embedded[page]; ok {
		return texts
	}
	texts := r.reader.EmbeddedTexts(r.ctx, r.path, page)
	r.embedded[page] = texts
	return texts
}

func (r *run) creditNotes() {
	if text := r.cls.Text(model.CategoryCreditNote); text != "" {
		notes, diags := sections.ParseCreditNotes(text, sections.Options{
			Today:        r.today,
			WindowBefore: r.cal.NoteWindowBefore,
			WindowAfter:  r.cal.NoteWindowAfter,
		})
		r.res.CreditNotes = append(r.res.CreditNotes, notes...)
		r.diagnose(diags...)
	} else {
		r.log.Debug("no credit-note pages")
	}

	reconcile.ComplementCreditNotes(r.res.CreditNotes, r.res.Identification, r.today)

	if len(r.res.CreditNotes) == 0 {
		return
	}
	var candidates []model.Page
	candidates = append(candidates, r.cls.Pages(model.CategoryUnclassified)...)
	candidates = append(candidates, r.cls.Pages(model.CategoryCreditNote)...)
	mirror := sections.ParseCreditNoteMirror(sections.MirrorText(candidates))
	if n := reconcile.ApplyCreditNoteMirror(r.res.CreditNotes, mirror, r.today); n > 0 {
		r.log.Info("credit notes completed from mirror page", zap.Int("fields", n))
	}
}

func (r *run) certificates() {
	certs := &r.res.Certificates
	if text := r.cls.Text(model.CategorySICAF); text != "" {
		certs.SICAF = sections.ParseSICAF(text)
	}
	if text := r.cls.Text(model.CategoryCADIN); text != "" {
		certs.CADIN = sections.ParseCADIN(text)
	}
	if text := r.cls.Text(model.CategoryConsolidated); text != "" {
		certs.Consolidated = sections.ParseConsolidated(text)
	}
	if reconcile.FillSupplierFromSICAF(&r.res.Identification, certs.SICAF) {
		r.log.Info("supplier found", zap.String("stage", string(reconcile.StageSICAF)))
	}
}

func (r *run) contract() {
	text := r.cls.Text(model.CategoryContract)
	if text == "" {
		return
	}
	c := sections.ParseContract(text)
	if c == nil {
		r.log.Debug("contract pages discarded by quality gate")
		return
	}
	r.res.Contract = c
	r.res.ContractChecks = reconcile.ValidateContract(r.res.Identification, c, r.res.Certificates.SICAF, r.now)
}

func (r *run) dispatches() {
	pages := r.cls.Pages(model.CategoryDispatch)
	if len(pages) == 0 {
		return
	}
	r.res.Dispatches = sections.ParseDispatches(pages)

	counts := map[model.DispatchType]int{}
	for _, d := range r.res.Dispatches {
		counts[d.Type]++
	}
	fields := make([]zap.Field, 0, len(counts))
	for t, n := range counts {
		fields = append(fields, zap.Int(string(t), n))
	}
	r.log.Debug("dispatches by type", fields...)
}
