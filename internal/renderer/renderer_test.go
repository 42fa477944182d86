package renderer

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

func grayCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func TestAnnotateDrawsPairs(t *testing.T) {
	src := grayCanvas(64, 64)
	clusters := []analyzer.Cluster{{Pairs: []analyzer.ClonePair{
		{Source: image.Pt(0, 0), Dest: image.Pt(40, 40)},
	}}}

	dst := image.NewRGBA(src.Bounds())
	if err := Annotate(dst, src, clusters, Options{BlockSize: 16, Palette: PaletteFixed}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	if got := dst.RGBAAt(0, 5); got != SourceColor {
		t.Errorf("Expected source outline at (0,5), got %v", got)
	}
	if got := dst.RGBAAt(41, 50); got != DestColor {
		t.Errorf("Expected destination outline at (41,50), got %v", got)
	}
	if got := dst.RGBAAt(30, 30); got != LinkColor {
		t.Errorf("Expected link line through (30,30), got %v", got)
	}
	if got := dst.RGBAAt(60, 5); got != src.RGBAAt(60, 5) {
		t.Errorf("Expected untouched pixel, got %v", got)
	}
}

func TestAnnotateClusterPalette(t *testing.T) {
	src := grayCanvas(64, 64)
	clusters := []analyzer.Cluster{
		{Pairs: []analyzer.ClonePair{{Source: image.Pt(0, 0), Dest: image.Pt(40, 0)}}},
		{Pairs: []analyzer.ClonePair{{Source: image.Pt(0, 40), Dest: image.Pt(40, 40)}}},
	}
	dst := image.NewRGBA(src.Bounds())
	if err := Annotate(dst, src, clusters, Options{BlockSize: 8, Palette: PaletteCluster}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if dst.RGBAAt(0, 0) == dst.RGBAAt(0, 40) {
		t.Error("Expected distinct colours per cluster")
	}
}

func TestAnnotateRejectsZeroBlock(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := Annotate(dst, dst, nil, Options{}); err == nil {
		t.Error("Expected error for zero block size")
	}
}

func TestLabelAndQR(t *testing.T) {
	dst := grayCanvas(320, 320)
	before := dst.RGBAAt(315, 315)

	label := ParamsLabel(analyzer.DefaultParams())
	if !strings.Contains(label, "BlockSize: 4") || !strings.Contains(label, "Detail Threshold: 9.7") {
		t.Errorf("Unexpected label %q", label)
	}
	DrawLabel(dst, label)
	if err := StampQR(dst, "clusters=2"); err != nil {
		t.Fatalf("StampQR failed: %v", err)
	}
	if dst.RGBAAt(315, 315) == before {
		t.Error("Expected the QR quiet zone to repaint the corner")
	}

	small := grayCanvas(100, 100)
	if err := StampQR(small, "clusters=2"); err != nil {
		t.Fatalf("StampQR failed: %v", err)
	}
	if small.RGBAAt(99, 99) != (color.RGBA{R: 128, G: 128, B: 128, A: 128}) {
		t.Error("Expected small images to be left alone")
	}
}
