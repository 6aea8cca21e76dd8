// Package ocr wraps the optional Tesseract engine. Builds without the
// "tesseract" tag get an engine that reports itself unavailable, and every
// caller degrades to native text only.
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"

	"go.uber.org/zap"
)

// PageSegMode mirrors Tesseract's page segmentation modes.
type PageSegMode int

const (
	PSMAuto         PageSegMode = 3
	PSMSingleColumn PageSegMode = 4
	PSMSingleBlock  PageSegMode = 6
)

// ErrUnavailable is returned by engines that cannot run on this host.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes text in an image.
type Engine interface {
	Name() string
	Available() bool
	Recognize(ctx context.Context, img image.Image, psm PageSegMode) (string, error)
}

// Noop is the engine used when Tesseract is missing.
type Noop struct {
	Reason string
}

func (Noop) Name() string    { return "none" }
func (Noop) Available() bool { return false }

func (Noop) Recognize(context.Context, image.Image, PageSegMode) (string, error) {
	return "", ErrUnavailable
}

// Probe returns a working Tesseract engine for lang, or a Noop when the
// engine cannot be initialized. The outcome is logged once.
func Probe(lang string, log *zap.Logger) Engine {
	if log == nil {
		log = zap.NewNop()
	}
	eng, err := NewTesseract(lang)
	if err != nil {
		log.Warn("OCR disabled, continuing with native text only", zap.Error(err))
		return Noop{Reason: err.Error()}
	}
	log.Info("OCR engine ready", zap.String("engine", eng.Name()), zap.String("lang", lang))
	return eng
}

// RecognizeBest runs the single-column and uniform-block modes and keeps
// the single-column output unless it is less than half as long as the
// uniform-block one.
func RecognizeBest(ctx context.Context, e Engine, img image.Image) (string, error) {
	col, errCol := e.Recognize(ctx, img, PSMSingleColumn)
	block, errBlock := e.Recognize(ctx, img, PSMSingleBlock)
	if errCol != nil && errBlock != nil {
		return "", errors.Join(errCol, errBlock)
	}
	col, block = strings.TrimSpace(col), strings.TrimSpace(block)
	if float64(len(col)) > float64(len(block))*0.5 {
		return col, nil
	}
	return block, nil
}
