package analyzer

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	xdraw "golang.org/x/image/draw"
)

// Fingerprint is the coarse key of a block. Equal blocks always produce
// equal fingerprints; visually close blocks usually do too.
type Fingerprint [GridSize * GridSize]uint8

const (
	FingerprintGrid  = "grid"
	FingerprintAHash = "ahash"
	FingerprintDHash = "dhash"
)

// FingerprintExtractor reduces a block to its Fingerprint. cells is the
// block's GridSize x GridSize area-averaged downsample.
type FingerprintExtractor interface {
	Extract(block, cells *image.Gray) (Fingerprint, error)
}

// NewExtractor creates an extractor based on the specified variant.
func NewExtractor(variant string, quantStep int) (FingerprintExtractor, error) {
	switch variant {
	case FingerprintGrid, "":
		if quantStep < 1 || quantStep > 255 {
			return nil, fmt.Errorf("%w: quantization step %d not in [1, 255]", ErrConfig, quantStep)
		}
		return GridExtractor{QuantStep: uint8(quantStep)}, nil
	case FingerprintAHash, FingerprintDHash:
		return HashExtractor{Variant: variant}, nil
	default:
		return nil, fmt.Errorf("%w: unknown fingerprint variant: %s", ErrConfig, variant)
	}
}

// boxKernel averages every source pixel whose centre falls inside the
// destination cell, which is area interpolation for integer ratios.
var boxKernel = &xdraw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		if t < 0 {
			t = -t
		}
		if t < 0.5 {
			return 1
		}
		return 0
	},
}

// Downsample shrinks a block to GridSize x GridSize cells by area averaging.
func Downsample(block *image.Gray) *image.Gray {
	cells := image.NewGray(image.Rect(0, 0, GridSize, GridSize))
	boxKernel.Scale(cells, cells.Rect, block, block.Bounds(), xdraw.Src, nil)
	return cells
}

// GridExtractor quantizes each cell into buckets of QuantStep levels and
// concatenates the buckets in raster order.
type GridExtractor struct {
	QuantStep uint8
}

func (e GridExtractor) Extract(_, cells *image.Gray) (Fingerprint, error) {
	var fp Fingerprint
	b := cells.Bounds()
	if b.Dx() != GridSize || b.Dy() != GridSize {
		return fp, fmt.Errorf("%w: cell grid is %dx%d", ErrInput, b.Dx(), b.Dy())
	}
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			fp[y*GridSize+x] = cells.GrayAt(b.Min.X+x, b.Min.Y+y).Y / e.QuantStep
		}
	}
	return fp, nil
}

// HashExtractor keys blocks by a 64-bit perceptual hash of the full block.
type HashExtractor struct {
	Variant string
}

func (e HashExtractor) Extract(block, _ *image.Gray) (Fingerprint, error) {
	var (
		h   *goimagehash.ImageHash
		err error
		fp  Fingerprint
	)
	switch e.Variant {
	case FingerprintDHash:
		h, err = goimagehash.DifferenceHash(block)
	default:
		h, err = goimagehash.AverageHash(block)
	}
	if err != nil {
		return fp, err
	}
	binary.BigEndian.PutUint64(fp[:8], h.GetHash())
	return fp, nil
}
