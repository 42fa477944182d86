package analyzer

import (
	"fmt"
	"image"
	"image/draw"
	"slices"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Stats counts what happened to the blocks of one pass.
type Stats struct {
	Blocks       int `yaml:"blocks" json:"blocks"`             // origins scanned
	Detailed     int `yaml:"detailed" json:"detailed"`         // passed the detail gate
	Matches      int `yaml:"matches" json:"matches"`           // fingerprint collisions
	Rejected     int `yaml:"rejected" json:"rejected"`         // collisions closer than MinDistance
	Fingerprints int `yaml:"fingerprints" json:"fingerprints"` // distinct keys indexed
}

// Result is everything one pass produces.
type Result struct {
	Params   Params
	Pairs    []ClonePair
	Clusters []Cluster
	// Preview is the input with every processed block replaced by its
	// upscaled cell grid. Nil unless the detector has Preview set.
	Preview *image.RGBA
	Stats   Stats
}

// Detector runs detection passes. A Detector carries no state between
// passes and may be reused.
type Detector struct {
	Scorer DetailScorer
	// Workers > 1 computes scores and fingerprints of several scan rows
	// in parallel. Indexing stays sequential in scan order, so the result
	// is identical to a single-worker pass.
	Workers int
	Preview bool
}

// NewDetector returns a sequential detector with preview enabled.
func NewDetector() *Detector {
	return &Detector{Scorer: LaplacianScorer{}, Workers: 1, Preview: true}
}

// Detect runs one pass with the default detector.
func Detect(buf *PixelBuffer, params Params) (*Result, error) {
	return NewDetector().Detect(buf, params)
}

type blockEval struct {
	origin   image.Point
	detailed bool
	fp       Fingerprint
	cells    *image.Gray
}

// Detect scans buf block by block and returns the clone clusters found.
func (d *Detector) Detect(buf *PixelBuffer, params Params) (*Result, error) {
	if buf == nil || buf.lum == nil || buf.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty pixel buffer", ErrInput)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(params.Fingerprint, params.QuantStep)
	if err != nil {
		return nil, err
	}
	scorer := d.Scorer
	if scorer == nil {
		scorer = LaplacianScorer{}
	}

	size := params.BlockSize()
	scan := NewScanner(buf.Width(), buf.Height(), size, params.Step)
	res := &Result{Params: params}
	if d.Preview {
		res.Preview = image.NewRGBA(buf.Bounds())
		draw.Draw(res.Preview, res.Preview.Rect, buf.src, image.Point{}, draw.Src)
	}

	index := NewMatchIndex()
	filter := PairFilter{MinDistance: params.MinDistance}

	evaluate := func(origin image.Point) (blockEval, error) {
		ev := blockEval{origin: origin}
		block := buf.Block(origin, size)
		if scorer.Score(block) < params.DetailThreshold {
			return ev, nil
		}
		ev.detailed = true
		ev.cells = Downsample(block)
		fp, err := extractor.Extract(block, ev.cells)
		ev.fp = fp
		return ev, err
	}

	consume := func(ev blockEval) {
		res.Stats.Blocks++
		if !ev.detailed {
			return
		}
		res.Stats.Detailed++

		if source, found := index.LookupOrInsert(ev.fp, ev.origin); found {
			res.Stats.Matches++
			pair, ok := filter.Pair(source, ev.origin)
			if !ok {
				res.Stats.Rejected++
				return
			}
			res.Pairs = append(res.Pairs, pair)
		}

		if res.Preview != nil {
			paintCells(res.Preview, ev.origin, size, ev.cells)
		}
	}

	if d.Workers <= 1 {
		for origin := range scan.All() {
			ev, err := evaluate(origin)
			if err != nil {
				return nil, fmt.Errorf("block %v: %w", origin, err)
			}
			consume(ev)
		}
	} else if err := d.scanBands(scan, evaluate, consume); err != nil {
		return nil, err
	}

	res.Stats.Fingerprints = index.Len()
	res.Clusters = ClusterPairs(res.Pairs, params.MinClusterSize, params.DirectionTolerance)
	return res, nil
}

// scanBands evaluates bands of scan rows concurrently, then hands every
// evaluation of the band to consume in row-major order.
func (d *Detector) scanBands(scan Scanner, evaluate func(image.Point) (blockEval, error), consume func(blockEval)) error {
	rows := slices.Collect(scan.Rows())
	cols := slices.Collect(scan.Cols())
	band := d.Workers * 4

	for start := 0; start < len(rows); start += band {
		end := min(start+band, len(rows))
		evals := make([]blockEval, (end-start)*len(cols))

		g := new(errgroup.Group)
		g.SetLimit(d.Workers)
		for r := start; r < end; r++ {
			g.Go(func() error {
				for c, x := range cols {
					origin := image.Pt(x, rows[r])
					ev, err := evaluate(origin)
					if err != nil {
						return fmt.Errorf("block %v: %w", origin, err)
					}
					evals[(r-start)*len(cols)+c] = ev
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, ev := range evals {
			consume(ev)
		}
	}
	return nil
}

// paintCells draws the cell grid over the block at origin, nearest-neighbour
// upscaled. The target is clipped to dst.
func paintCells(dst *image.RGBA, origin image.Point, size int, cells *image.Gray) {
	r := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))}
	if !r.In(dst.Rect) {
		return
	}
	xdraw.NearestNeighbor.Scale(dst, r, cells, cells.Bounds(), xdraw.Src, nil)
}
