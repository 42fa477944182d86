//go:build !gocv
// +build !gocv

package analyzer

import "fmt"

// newOpenCVScorer fails when the binary is built without the gocv tag.
func newOpenCVScorer() (DetailScorer, error) {
	return nil, fmt.Errorf("%w: opencv scorer requires building with -tags gocv", ErrConfig)
}
