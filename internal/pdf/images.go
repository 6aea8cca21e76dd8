package pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff" // scanned pages are often stored as TIFF
)

// EmbeddedImage is a decoded raster image found on a page.
type EmbeddedImage struct {
	Page   int
	Name   string
	Format string
	Width  int
	Height int
	Image  image.Image
}

// ImageExtractor pulls embedded raster images out of a PDF with pdfcpu.
type ImageExtractor struct {
	conf *model.Configuration
}

// NewImageExtractor returns an extractor using relaxed validation, since
// scanned process files are frequently not spec-conformant.
func NewImageExtractor() *ImageExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &ImageExtractor{conf: conf}
}

// PageImages decodes the images placed on a 1-based page. Images in
// formats the decoders do not understand are skipped.
func (e *ImageExtractor) PageImages(path string, page int) (images []EmbeddedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: image extraction failed: %v", page, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, []string{strconv.Itoa(page)}, e.conf)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}

	for _, byObj := range pages {
		for _, raw := range byObj {
			data, rerr := io.ReadAll(raw)
			if rerr != nil || len(data) == 0 {
				continue
			}
			img, derr := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
			if derr != nil {
				continue
			}
			b := img.Bounds()
			images = append(images, EmbeddedImage{
				Page:   page,
				Name:   raw.Name,
				Format: raw.FileType,
				Width:  b.Dx(),
				Height: b.Dy(),
				Image:  img,
			})
		}
	}
	return images, nil
}
