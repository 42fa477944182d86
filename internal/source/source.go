package source

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrPageRange is returned for a page index outside [0, PageCount).
var ErrPageRange = errors.New("page out of range")

// DefaultDPI is used when a PDF page is rendered with dpi <= 0.
const DefaultDPI = 150

// Source yields the pages a detection run inspects: the frames of a PDF or
// the images of a file or directory.
type Source interface {
	PageCount() int
	// PageName is a file-name-safe stem used for output files and reports.
	PageName(index int) string
	// GetPageDimensions is the pixel size RenderPage produces at dpi,
	// known without rendering the page.
	GetPageDimensions(index int, dpi int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a PDF source for .pdf paths and an image source otherwise.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

func checkPage(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d of %d", ErrPageRange, index, count)
	}
	return nil
}

// FitzPDFSource rasterizes PDF pages with MuPDF.
type FitzPDFSource struct {
	doc   *fitz.Document
	path  string
	pages int
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path, pages: doc.NumPage()}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.pages
}

func (f *FitzPDFSource) PageName(index int) string {
	stem := strings.TrimSuffix(filepath.Base(f.path), filepath.Ext(f.path))
	return fmt.Sprintf("%s_p%03d", stem, index+1)
}

// GetPageDimensions scales the page bounds, given in points, to dpi.
func (f *FitzPDFSource) GetPageDimensions(index int, dpi int) (float64, float64, error) {
	if err := checkPage(index, f.pages); err != nil {
		return 0, 0, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, fmt.Errorf("page %d bounds: %w", index+1, err)
	}
	scale := float64(dpi) / 72
	return float64(rect.Dx()) * scale, float64(rect.Dy()) * scale, nil
}

// RenderPage opens its own document handle: a fitz.Document is not safe
// for concurrent use and pages are rendered from several goroutines.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := checkPage(index, f.pages); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	doc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	img, err := doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", index+1, err)
	}
	return img, nil
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
