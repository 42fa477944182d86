package report

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

func sampleReport() *Report {
	res := &analyzer.Result{
		Stats: analyzer.Stats{Blocks: 100, Detailed: 40, Matches: 5, Rejected: 1, Fingerprints: 35},
		Clusters: []analyzer.Cluster{{Pairs: []analyzer.ClonePair{
			{Source: image.Pt(0, 0), Dest: image.Pt(40, 40)},
			{Source: image.Pt(4, 0), Dest: image.Pt(44, 41)},
		}}},
	}
	return &Report{
		Version: Version,
		Input:   "scan.png",
		Params:  analyzer.DefaultParams(),
		Pages:   []Page{NewPage(0, "scan", image.Rect(0, 0, 64, 48), res)},
	}
}

func TestReportWriteRead(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	if err := Write(&buf, rep, FormatYAML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Params != rep.Params {
		t.Errorf("Params mismatch: expected %+v, got %+v", rep.Params, got.Params)
	}
	if len(got.Pages) != 1 || len(got.Pages[0].Clusters) != 1 {
		t.Fatalf("Unexpected pages %+v", got.Pages)
	}
	c := got.Pages[0].Clusters[0]
	if c.Displacement != (Point{X: 40, Y: 40}) || len(c.Pairs) != 2 {
		t.Errorf("Unexpected cluster %+v", c)
	}
}

func TestReportText(t *testing.T) {
	rep := sampleReport()
	rep.Pages = append(rep.Pages,
		Page{Name: "broken", Error: "decode failed"},
		Page{Name: "thumb", Width: 6, Height: 40, Skipped: true},
	)

	var buf bytes.Buffer
	if err := Write(&buf, rep, FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"scan: 1 clusters, 2 pairs", "displacement (40,40)", "[!] broken: decode failed", "[!] thumb: 6x40 is smaller than one block"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
	t.Log(out)
}

func TestReportUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleReport(), "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
