package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

const (
	PaletteFixed   = "fixed"
	PaletteCluster = "cluster"
)

var (
	SourceColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	DestColor   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	LinkColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Options controls what Annotate draws on top of the image.
type Options struct {
	BlockSize int
	Palette   string
	Label     string // drawn top-left when non-empty
	QRText    string // stamped bottom-right when non-empty
}

// Annotate copies src into dst and outlines every clone pair: the source
// block in the source colour, the destination block in the destination
// colour, and a line between their centres.
func Annotate(dst *image.RGBA, src image.Image, clusters []analyzer.Cluster, opts Options) error {
	if opts.BlockSize < 1 {
		return fmt.Errorf("block size must be >= 1, got %d", opts.BlockSize)
	}
	draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)

	var boxes []box
	var links []link
	half := image.Pt(opts.BlockSize/2, opts.BlockSize/2)
	for i, c := range clusters {
		srcCol, dstCol := clusterColors(opts.Palette, i, len(clusters))
		for _, p := range c.Pairs {
			boxes = append(boxes,
				box{blockRect(p.Source, opts.BlockSize), srcCol},
				box{blockRect(p.Dest, opts.BlockSize), dstCol})
			links = append(links, link{p.Source.Add(half), p.Dest.Add(half)})
		}
	}
	if err := drawOverlay(dst, boxes, links); err != nil {
		return err
	}

	if opts.Label != "" {
		DrawLabel(dst, opts.Label)
	}
	if opts.QRText != "" {
		if err := StampQR(dst, opts.QRText); err != nil {
			return err
		}
	}
	return nil
}

// ParamsLabel formats the parameter summary drawn on annotated output.
func ParamsLabel(p analyzer.Params) string {
	return fmt.Sprintf("BlockSize: %d | Detail Threshold: %.1f | Cluster: %d | Quantization Level: %d",
		p.BlockSize(), p.DetailThreshold, p.MinClusterSize, p.QuantStep)
}

// clusterColors returns the source and destination colours of cluster i.
func clusterColors(palette string, i, n int) (color.RGBA, color.RGBA) {
	if palette != PaletteCluster || n == 0 {
		return SourceColor, DestColor
	}
	// Golden-angle hue steps keep neighbouring clusters apart.
	hue := math.Mod(float64(i)*137.508, 360)
	return toRGBA(colorful.Hsv(hue, 0.85, 1.0)), toRGBA(colorful.Hsv(hue, 0.85, 0.6))
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// box is a block outline, drawn BoxThickness pixels wide inside r.
type box struct {
	r image.Rectangle
	c color.RGBA
}

// link joins the centres of a source and destination block in LinkColor.
type link struct {
	a, b image.Point
}

// BoxThickness is the outline width of annotated blocks.
const BoxThickness = 2

func blockRect(origin image.Point, size int) image.Rectangle {
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))}
}
