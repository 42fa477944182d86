package report

import (
	"fmt"
	"image"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

// Version of the report layout.
const Version = "1.0"

// Report describes one run over every page of a source.
type Report struct {
	Version string          `yaml:"version" json:"version"`
	Input   string          `yaml:"input" json:"input"`
	Params  analyzer.Params `yaml:"params" json:"params"`
	Pages   []Page          `yaml:"pages" json:"pages"`
}

// Page is the outcome of one detection pass.
type Page struct {
	Index    int            `yaml:"index" json:"index"`
	Name     string         `yaml:"name" json:"name"`
	Width    int            `yaml:"width" json:"width"`
	Height   int            `yaml:"height" json:"height"`
	Stats    analyzer.Stats `yaml:"stats" json:"stats"`
	Clusters []Cluster      `yaml:"clusters" json:"clusters"`
	Outputs  []string       `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Skipped  bool           `yaml:"skipped,omitempty" json:"skipped,omitempty"` // smaller than one block
	Error    string         `yaml:"error,omitempty" json:"error,omitempty"`
}

// Cluster is a group of pairs sharing one displacement.
type Cluster struct {
	Displacement Point  `yaml:"displacement" json:"displacement"`
	Pairs        []Pair `yaml:"pairs" json:"pairs"`
}

type Pair struct {
	Source Point `yaml:"source" json:"source"`
	Dest   Point `yaml:"dest" json:"dest"`
}

type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

func toPoint(p image.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

// Clusters converts detector clusters to their report form, keeping order.
func Clusters(clusters []analyzer.Cluster) []Cluster {
	out := make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		rc := Cluster{Displacement: toPoint(c.Seed())}
		for _, p := range c.Pairs {
			rc.Pairs = append(rc.Pairs, Pair{Source: toPoint(p.Source), Dest: toPoint(p.Dest)})
		}
		out = append(out, rc)
	}
	return out
}

// NewPage summarizes a detection result.
func NewPage(index int, name string, bounds image.Rectangle, res *analyzer.Result) Page {
	return Page{
		Index:    index,
		Name:     name,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Stats:    res.Stats,
		Clusters: Clusters(res.Clusters),
	}
}

// Pairs counts the clustered pairs of a page.
func (p Page) Pairs() int {
	n := 0
	for _, c := range p.Clusters {
		n += len(c.Pairs)
	}
	return n
}

// Summary is the one-line description used in logs and QR stamps.
func (p Page) Summary() string {
	return fmt.Sprintf("%s: %d clusters, %d pairs (%d/%d blocks detailed, %d rejected)",
		p.Name, len(p.Clusters), p.Pairs(), p.Stats.Detailed, p.Stats.Blocks, p.Stats.Rejected)
}
