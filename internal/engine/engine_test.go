package engine

import (
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/clonedetect/internal/analyzer"
	"github.com/ivlev/clonedetect/internal/config"
	"github.com/ivlev/clonedetect/internal/report"
	"github.com/ivlev/clonedetect/internal/source"
)

// forgedImage is seeded gray noise with the 32x32 patch at (8,8) copied to
// (72,72).
func forgedImage(seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	r := rand.New(rand.NewSource(seed))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint8(r.Intn(256))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(72+x, 72+y, img.RGBAAt(8+x, 8+y))
		}
	}
	return img
}

func testConfig(input, output string) *config.Config {
	params := analyzer.DefaultParams()
	params.BlockSizeExp = 3
	params.Step = 8
	params.DetailThreshold = 1
	params.MinClusterSize = 2
	return &config.Config{
		InputPath:     input,
		OutputDir:     output,
		Params:        params,
		Workers:       2,
		ShowQuantized: true,
		Palette:       "fixed",
		Label:         true,
		ZoomFactor:    2,
		ZoomSize:      64,
	}
}

func writeForged(t *testing.T, path string, seed int64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := EncodePNG(f, forgedImage(seed)); err != nil {
		t.Fatal(err)
	}
}

func runProject(t *testing.T, cfg *config.Config) (*report.Report, error) {
	t.Helper()
	src, err := source.Open(cfg.InputPath)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	defer src.Close()
	p, err := NewProject(cfg, src)
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	return p.Run()
}

func TestProjectRunSingleImage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "forged.png")
	writeForged(t, input, 7)

	cfg := testConfig(input, filepath.Join(dir, "out"))
	cfg.ZoomAt = &image.Point{X: 80, Y: 80}
	rep, err := runProject(t, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rep.Pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(rep.Pages))
	}
	page := rep.Pages[0]
	if page.Error != "" {
		t.Fatalf("Unexpected page error: %s", page.Error)
	}
	if len(page.Clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d: %+v", len(page.Clusters), page.Clusters)
	}
	if d := page.Clusters[0].Displacement; d.X != 64 || d.Y != 64 {
		t.Errorf("Expected displacement (64,64), got %+v", d)
	}
	if n := len(page.Clusters[0].Pairs); n != 16 {
		t.Errorf("Expected 16 pairs, got %d", n)
	}

	for _, kind := range []string{"annotated", "quantized", "zoom"} {
		path := filepath.Join(cfg.OutputDir, "forged_"+kind+".png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected output %s: %v", path, err)
		}
	}
	if len(page.Outputs) != 3 {
		t.Errorf("Expected 3 outputs listed, got %v", page.Outputs)
	}
	t.Log(page.Summary())
}

func TestProjectRunDirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	os.MkdirAll(in, 0755)
	writeForged(t, filepath.Join(in, "a.png"), 1)
	writeForged(t, filepath.Join(in, "b.png"), 2)
	os.WriteFile(filepath.Join(in, "c.png"), []byte("not a png"), 0644)

	cfg := testConfig(in, filepath.Join(dir, "out"))
	cfg.ShowQuantized = false
	rep, err := runProject(t, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rep.Pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(rep.Pages))
	}

	for i, name := range []string{"a", "b"} {
		if rep.Pages[i].Name != name || len(rep.Pages[i].Clusters) != 1 {
			t.Errorf("Page %d: expected %s with 1 cluster, got %s with %d",
				i, name, rep.Pages[i].Name, len(rep.Pages[i].Clusters))
		}
	}
	if rep.Pages[2].Error == "" {
		t.Error("Expected an error for the corrupt page")
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "a_quantized.png")); !os.IsNotExist(err) {
		t.Error("Quantized output written without ShowQuantized")
	}
}

func TestProjectRunSkipsTinyPages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	os.MkdirAll(in, 0755)
	writeForged(t, filepath.Join(in, "big.png"), 4)

	tiny, err := os.Create(filepath.Join(in, "tiny.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodePNG(tiny, image.NewRGBA(image.Rect(0, 0, 6, 40))); err != nil {
		t.Fatal(err)
	}
	tiny.Close()

	cfg := testConfig(in, filepath.Join(dir, "out"))
	rep, err := runProject(t, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	page := rep.Pages[1]
	if page.Name != "tiny" || !page.Skipped || page.Error != "" {
		t.Fatalf("Expected tiny to be skipped without error, got %+v", page)
	}
	if page.Width != 6 || page.Height != 40 || len(page.Outputs) != 0 {
		t.Errorf("Expected 6x40 and no outputs, got %dx%d %v", page.Width, page.Height, page.Outputs)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "tiny_annotated.png")); !os.IsNotExist(err) {
		t.Error("Annotated output written for a skipped page")
	}
	if rep.Pages[0].Skipped || len(rep.Pages[0].Clusters) != 1 {
		t.Errorf("Expected big to be analyzed, got %+v", rep.Pages[0])
	}
}

func TestProjectRunRejectsBadParams(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "forged.png")
	writeForged(t, input, 3)

	cfg := testConfig(input, filepath.Join(dir, "out"))
	cfg.Params.Step = 0
	if _, err := runProject(t, cfg); err == nil {
		t.Fatal("Expected a config error")
	}
}

func TestProjectRunAllPagesFail(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.png")
	os.WriteFile(input, []byte("garbage"), 0644)

	rep, err := runProject(t, testConfig(input, filepath.Join(dir, "out")))
	if err == nil {
		t.Fatal("Expected an error when no page decodes")
	}
	if rep == nil || rep.Pages[0].Error == "" {
		t.Errorf("Expected the page error in the report, got %+v", rep)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ReportPath: filepath.Join(dir, "report.yaml"), ReportFormat: report.FormatYAML}
	p := &Project{Config: cfg}

	rep := &report.Report{Version: report.Version, Input: "x.png", Params: analyzer.DefaultParams()}
	if err := p.WriteReport(rep); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	f, err := os.Open(cfg.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	back, err := report.Read(f)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if back.Input != "x.png" || back.Params != rep.Params {
		t.Errorf("Report mismatch: %+v", back)
	}
}

func TestDisplayed(t *testing.T) {
	annotated := image.NewRGBA(image.Rect(0, 0, 2, 2))
	preview := image.NewRGBA(image.Rect(0, 0, 2, 2))
	res := &analyzer.Result{Preview: preview}

	if Displayed(annotated, res, true) != preview {
		t.Error("Expected the preview when quantized view is on")
	}
	if Displayed(annotated, res, false) != annotated {
		t.Error("Expected the annotated frame")
	}
	if Displayed(annotated, &analyzer.Result{}, true) != annotated {
		t.Error("Expected the annotated frame without a preview")
	}
}

func TestAppendBenchmark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "benchmark.log")
	for _, entry := range []string{"first\n", "second\n"} {
		if err := appendBenchmark(path, entry); err != nil {
			t.Fatalf("appendBenchmark: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("Expected both entries appended, got %q", data)
	}

	// A directory cannot be opened for writing.
	if err := appendBenchmark(dir, "x\n"); err == nil {
		t.Error("Expected an error when the log path is a directory")
	}
}
