package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestDownsampleAveragesCells(t *testing.T) {
	// 8x8 block made of 2x2 quads with distinct levels.
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8((y/2)*64 + (x/2)*16)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	buf := mustBuffer(img)

	cells := Downsample(buf.Block(image.Pt(0, 0), 8))
	if cells.Bounds() != image.Rect(0, 0, GridSize, GridSize) {
		t.Fatalf("Expected 4x4 cells, got %v", cells.Bounds())
	}
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			want := y*64 + x*16
			got := int(cells.GrayAt(x, y).Y)
			if got < want-1 || got > want+1 {
				t.Errorf("Cell (%d,%d): expected ~%d, got %d", x, y, want, got)
			}
		}
	}
}

func TestDownsampleMixesQuad(t *testing.T) {
	// Each cell of a 8x8 block averages two dark and two bright pixels.
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(0)
			if x%2 == 1 {
				v = 200
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	cells := Downsample(mustBuffer(img).Block(image.Pt(0, 0), 8))
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if got := cells.GrayAt(x, y).Y; got < 99 || got > 101 {
				t.Errorf("Cell (%d,%d): expected ~100, got %d", x, y, got)
			}
		}
	}
}

func TestGridExtractorQuantizes(t *testing.T) {
	cells := image.NewGray(image.Rect(0, 0, GridSize, GridSize))
	levels := []uint8{0, 15, 16, 31, 32, 100, 200, 255, 0, 15, 16, 31, 32, 100, 200, 255}
	copy(cells.Pix, levels)

	fp, err := GridExtractor{QuantStep: 16}.Extract(nil, cells)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := Fingerprint{0, 0, 1, 1, 2, 6, 12, 15, 0, 0, 1, 1, 2, 6, 12, 15}
	if fp != want {
		t.Errorf("Expected %v, got %v", want, fp)
	}
}

func TestGridExtractorRejectsWrongGrid(t *testing.T) {
	cells := image.NewGray(image.Rect(0, 0, 3, 3))
	if _, err := (GridExtractor{QuantStep: 16}).Extract(nil, cells); !errors.Is(err, ErrInput) {
		t.Errorf("Expected ErrInput, got %v", err)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	img := flatImage(16, 16, 0)
	fillNoise(img, image.Pt(0, 0), 16, 3)
	buf := mustBuffer(img)

	for _, variant := range []string{FingerprintGrid, FingerprintAHash, FingerprintDHash} {
		t.Run(variant, func(t *testing.T) {
			ex, err := NewExtractor(variant, 16)
			if err != nil {
				t.Fatalf("NewExtractor failed: %v", err)
			}
			a := buf.Block(image.Pt(0, 0), 16)
			fp1, err := ex.Extract(a, Downsample(a))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			fp2, _ := ex.Extract(a, Downsample(a))
			if fp1 != fp2 {
				t.Error("Expected identical fingerprints for the same block")
			}
			t.Logf("%s: %v", variant, fp1)
		})
	}
}

func TestGridFingerprintAbsorbsNoise(t *testing.T) {
	img := flatImage(32, 16, 100)
	img.SetRGBA(20, 5, color.RGBA{R: 101, G: 101, B: 101, A: 255})
	buf := mustBuffer(img)

	ex := GridExtractor{QuantStep: 16}
	a := buf.Block(image.Pt(0, 0), 16)
	b := buf.Block(image.Pt(16, 0), 16)
	fa, _ := ex.Extract(a, Downsample(a))
	fb, _ := ex.Extract(b, Downsample(b))
	if fa != fb {
		t.Errorf("Expected a one-level change to keep the fingerprint: %v vs %v", fa, fb)
	}
}

func TestExtractorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		quant   int
		wantErr bool
	}{
		{"grid", 16, false},
		{"", 16, false},
		{"grid", 0, true},
		{"ahash", 0, false},
		{"dhash", 16, false},
		{"sift", 16, true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			ex, err := NewExtractor(tt.variant, tt.quant)
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("Expected ErrConfig, got %v", err)
				}
				return
			}
			if err != nil || ex == nil {
				t.Errorf("Unexpected result: %v, %v", ex, err)
			}
		})
	}
}
