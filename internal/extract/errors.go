package extract

import (
	"errors"
	"fmt"
)

// Kind classifies what went wrong while extracting a document.
type Kind string

const (
	KindOpen           Kind = "open"
	KindOCRUnavailable Kind = "ocr_unavailable"
	KindRender         Kind = "render"
	KindOCR            Kind = "ocr"
	KindTable          Kind = "table"
	KindSection        Kind = "section"
	KindCanceled       Kind = "canceled"
)

// ExtractionError describes a failure during one step of an extraction.
// Page is 0 when the failure is not tied to a page.
type ExtractionError struct {
	Kind Kind
	Page int
	Op   string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s: %s (page %d): %v", e.Kind, e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an ExtractionError of kind k.
func IsKind(err error, k Kind) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == k
}
