package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

var pdfMagic = []byte("%PDF-")

// ErrNotPDF is returned when a file does not carry the PDF header.
var ErrNotPDF = errors.New("not a PDF file")

// Validator checks that an input file can be handed to the extractor.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator rejecting files above maxFileSize bytes.
// A non-positive limit disables the size check.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// Validate runs the cheap checks first and only then tries to parse the
// cross-reference table.
func (v *Validator) Validate(path string) error {
	info, err := v.stat(path)
	if err != nil {
		return err
	}
	if err := v.checkInfo(path, info); err != nil {
		return err
	}
	if err := sniffHeader(path); err != nil {
		return err
	}

	doc, err := OpenNative(path)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	return doc.Close()
}

func (v *Validator) stat(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	return info, nil
}

func (v *Validator) checkInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !isPDFFile(path) {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), v.maxFileSize)
	}
	return nil
}

func sniffHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	// The header may be preceded by junk within the first kilobyte.
	buf := make([]byte, 1024)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("cannot read file: %w", err)
	}
	if !bytes.Contains(buf[:n], pdfMagic) {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	return nil
}
