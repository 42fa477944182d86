package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExtensions lists the raster formats ImageSource decodes.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImage reports whether name has a supported raster extension.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

type ImageSource struct {
	paths []string
}

// NewImageSource wraps a single image file or every image in a directory,
// sorted by name. Each image is one page.
func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsImage(entry.Name()) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) PageName(index int) string {
	base := filepath.Base(s.paths[index])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GetPageDimensions reads the image header only; dpi is ignored.
func (s *ImageSource) GetPageDimensions(index int, dpi int) (float64, float64, error) {
	if err := checkPage(index, len(s.paths)); err != nil {
		return 0, 0, err
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	img, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", s.paths[index], err)
	}
	return float64(img.Width), float64(img.Height), nil
}

// RenderPage decodes the image; dpi is ignored for raster inputs.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := checkPage(index, len(s.paths)); err != nil {
		return nil, err
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
