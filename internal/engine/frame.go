package engine

import (
	"image"
	"image/png"
	"io"
	"os"

	"github.com/ivlev/clonedetect/internal/analyzer"
	"github.com/ivlev/clonedetect/internal/config"
	"github.com/ivlev/clonedetect/internal/renderer"
)

// Frame draws the annotated view of res into dst. summary goes into the QR
// stamp when the config asks for one.
func Frame(dst *image.RGBA, src image.Image, res *analyzer.Result, cfg *config.Config, summary string) error {
	opts := renderer.Options{
		BlockSize: res.Params.BlockSize(),
		Palette:   cfg.Palette,
	}
	if cfg.Label {
		opts.Label = renderer.ParamsLabel(res.Params)
	}
	if cfg.QRStamp {
		opts.QRText = summary
	}
	return renderer.Annotate(dst, src, res.Clusters, opts)
}

// Displayed picks the buffer the user is looking at: the quantized preview
// when requested and available, the annotated frame otherwise.
func Displayed(annotated *image.RGBA, res *analyzer.Result, showQuantized bool) *image.RGBA {
	if showQuantized && res.Preview != nil {
		return res.Preview
	}
	return annotated
}

// EncodePNG writes img as PNG with speed favoured over size.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
