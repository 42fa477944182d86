package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrInput is returned when the pixel buffer is missing, empty or unreadable.
	ErrInput = errors.New("invalid input")

	// ErrConfig is returned when a parameter set fails validation.
	ErrConfig = errors.New("invalid parameters")
)

const (
	// MaxBlockSizeExp bounds the block side to 2^10 pixels.
	MaxBlockSizeExp = 10

	// GridSize is the side of the downsampled cell grid a fingerprint is built from.
	GridSize = 4

	// Defaults calibrated against LaplacianScorer and color.GrayModel luminance.
	// They need recalibration if either definition changes.
	DefaultBlockSizeExp       = 2
	DefaultStep               = 4
	DefaultDetailThreshold    = 9.7
	DefaultMinDistance        = 20.0
	DefaultMinClusterSize     = 3
	DefaultDirectionTolerance = 5.0
	DefaultQuantStep          = 16
)

// Params is the immutable parameter set of one detection pass.
type Params struct {
	BlockSizeExp       int     `yaml:"block_size_exp" json:"block_size_exp"`
	Step               int     `yaml:"step" json:"step"`
	DetailThreshold    float64 `yaml:"detail_threshold" json:"detail_threshold"`
	MinDistance        float64 `yaml:"min_distance" json:"min_distance"`
	MinClusterSize     int     `yaml:"min_cluster_size" json:"min_cluster_size"`
	DirectionTolerance float64 `yaml:"direction_tolerance" json:"direction_tolerance"`
	QuantStep          int     `yaml:"quant_step" json:"quant_step"`
	Fingerprint        string  `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		BlockSizeExp:       DefaultBlockSizeExp,
		Step:               DefaultStep,
		DetailThreshold:    DefaultDetailThreshold,
		MinDistance:        DefaultMinDistance,
		MinClusterSize:     DefaultMinClusterSize,
		DirectionTolerance: DefaultDirectionTolerance,
		QuantStep:          DefaultQuantStep,
		Fingerprint:        FingerprintGrid,
	}
}

// BlockSize returns the block side in pixels.
func (p Params) BlockSize() int {
	return 1 << p.BlockSizeExp
}

// Validate rejects parameter sets the pass cannot run with. Nothing is clamped.
// Thresholds are written as !(x >= 0) so NaN is rejected too.
func (p Params) Validate() error {
	if p.BlockSizeExp < 0 || p.BlockSizeExp > MaxBlockSizeExp {
		return fmt.Errorf("%w: block size exponent %d not in [0, %d]", ErrConfig, p.BlockSizeExp, MaxBlockSizeExp)
	}
	if p.Step < 1 {
		return fmt.Errorf("%w: step must be >= 1, got %d", ErrConfig, p.Step)
	}
	if !(p.DetailThreshold >= 0) {
		return fmt.Errorf("%w: detail threshold must be >= 0, got %g", ErrConfig, p.DetailThreshold)
	}
	if !(p.MinDistance >= 0) {
		return fmt.Errorf("%w: min distance must be >= 0, got %g", ErrConfig, p.MinDistance)
	}
	if p.MinClusterSize < 1 {
		return fmt.Errorf("%w: min cluster size must be >= 1, got %d", ErrConfig, p.MinClusterSize)
	}
	if !(p.DirectionTolerance >= 0) {
		return fmt.Errorf("%w: direction tolerance must be >= 0, got %g", ErrConfig, p.DirectionTolerance)
	}
	if p.QuantStep < 1 || p.QuantStep > 255 {
		return fmt.Errorf("%w: quantization step %d not in [1, 255]", ErrConfig, p.QuantStep)
	}
	return nil
}
