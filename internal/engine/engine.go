package engine

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/clonedetect/internal/analyzer"
	"github.com/ivlev/clonedetect/internal/config"
	"github.com/ivlev/clonedetect/internal/magnifier"
	"github.com/ivlev/clonedetect/internal/report"
	"github.com/ivlev/clonedetect/internal/source"
	"github.com/ivlev/clonedetect/internal/system"
)

// Project runs detection over every page of a source and writes the
// annotated results.
type Project struct {
	Config   *config.Config
	Source   source.Source
	Detector *analyzer.Detector

	mu      sync.Mutex
	timings timings
}

// output is one PNG written per page, named <page>_<kind>.png.
type output struct {
	kind string
	img  image.Image
}

type timings struct {
	render, detect, write time.Duration
}

// NewProject builds the detector the config describes. Several pages are
// processed concurrently, so row parallelism inside a pass is only used
// for single-page sources.
func NewProject(cfg *config.Config, src source.Source) (*Project, error) {
	scorer, err := analyzer.NewDetailScorer(cfg.DetailBackend)
	if err != nil {
		return nil, err
	}
	det := &analyzer.Detector{
		Scorer:  scorer,
		Workers: 1,
		Preview: cfg.ShowQuantized,
	}
	if src.PageCount() == 1 {
		det.Workers = cfg.Workers
	}
	return &Project{Config: cfg, Source: src, Detector: det}, nil
}

func (p *Project) Run() (*report.Report, error) {
	startTime := time.Now()

	if err := p.Config.Params.Validate(); err != nil {
		return nil, err
	}
	pageCount := p.Source.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: source has no pages", analyzer.ErrInput)
	}
	if err := os.MkdirAll(p.Config.OutputDir, 0755); err != nil {
		return nil, err
	}

	p.Config.Params.Fingerprint = orDefault(p.Config.Params.Fingerprint, analyzer.FingerprintGrid)
	rep := &report.Report{
		Version: report.Version,
		Input:   p.Config.InputPath,
		Params:  p.Config.Params,
		Pages:   make([]report.Page, pageCount),
	}

	fmt.Println("--- [PROJECT: CLONE DETECTION] ---")
	fmt.Printf("[*] Source: %s | Pages: %d\n", p.Config.InputPath, pageCount)
	fmt.Printf("[*] Block: %dpx | Step: %d | Detail: %.1f | Quant: %d | Fingerprint: %s\n",
		p.Config.Params.BlockSize(), p.Config.Params.Step, p.Config.Params.DetailThreshold,
		p.Config.Params.QuantStep, p.Config.Params.Fingerprint)
	fmt.Println("----------------------------------")

	var g errgroup.Group
	g.SetLimit(max(1, min(p.Config.Workers, pageCount)))
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			page, err := p.processPage(i)
			if err != nil {
				if errors.Is(err, analyzer.ErrConfig) {
					return err
				}
				log.Printf("[!] Page %d: %v", i+1, err)
				page.Error = err.Error()
			} else if !page.Skipped {
				fmt.Printf("[>] Ready: %d/%d %s\n", i+1, pageCount, page.Summary())
			}
			rep.Pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, pg := range rep.Pages {
		if pg.Error != "" {
			failed++
		}
	}
	if failed == pageCount {
		return rep, fmt.Errorf("%w: no page could be analyzed", analyzer.ErrInput)
	}

	if p.Config.ShowStats {
		p.printStats(time.Since(startTime), pageCount)
	}
	return rep, nil
}

func (p *Project) processPage(i int) (report.Page, error) {
	name := p.Source.PageName(i)
	page := report.Page{Index: i, Name: name}

	t0 := time.Now()
	w, h, err := p.Source.GetPageDimensions(i, p.Config.DPI)
	if err != nil {
		return page, fmt.Errorf("%w: %v", analyzer.ErrInput, err)
	}
	if bs := p.Config.Params.BlockSize(); int(w) < bs || int(h) < bs {
		log.Printf("[!] Page %d (%s) is %.0fx%.0f, smaller than a %dpx block: skipped", i+1, name, w, h, bs)
		page.Width, page.Height = int(w), int(h)
		page.Skipped = true
		return page, nil
	}

	img, err := p.Source.RenderPage(i, p.Config.DPI)
	if err != nil {
		return page, fmt.Errorf("%w: %v", analyzer.ErrInput, err)
	}
	buf, err := analyzer.NewPixelBuffer(img)
	if err != nil {
		return page, err
	}
	t1 := time.Now()

	res, err := p.Detector.Detect(buf, p.Config.Params)
	if err != nil {
		return page, err
	}
	t2 := time.Now()

	page = report.NewPage(i, name, buf.Bounds(), res)

	annotated := system.GetImage(buf.Bounds())
	defer system.PutImage(annotated)
	if err := Frame(annotated, buf.Image(), res, p.Config, page.Summary()); err != nil {
		return page, err
	}

	outputs := []output{{"annotated", annotated}}
	if p.Config.ShowQuantized && res.Preview != nil {
		outputs = append(outputs, output{"quantized", res.Preview})
	}
	if p.Config.ZoomAt != nil {
		view := Displayed(annotated, res, p.Config.ShowQuantized)
		zoom := magnifier.Zoom(view, *p.Config.ZoomAt, p.Config.ZoomFactor, p.Config.ZoomSize)
		outputs = append(outputs, output{"zoom", zoom})
	}
	for _, out := range outputs {
		path := filepath.Join(p.Config.OutputDir, fmt.Sprintf("%s_%s.png", name, out.kind))
		if err := writePNG(path, out.img); err != nil {
			return page, err
		}
		page.Outputs = append(page.Outputs, path)
	}

	p.mu.Lock()
	p.timings.render += t1.Sub(t0)
	p.timings.detect += t2.Sub(t1)
	p.timings.write += time.Since(t2)
	p.mu.Unlock()
	return page, nil
}

func (p *Project) printStats(total time.Duration, pageCount int) {
	perf := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Detection: %.2fs\n"+
			"Output: %.2fs\n"+
			"Pages/s: %.2f\n",
		p.Config.BuildVersion, total.Seconds(), p.timings.render.Seconds(),
		p.timings.detect.Seconds(), p.timings.write.Seconds(), float64(pageCount)/total.Seconds(),
	)
	if mem, err := system.ReadMemoryStats(); err == nil {
		perf += "Memory: " + mem.String() + "\n"
	}
	fmt.Print(perf + "----------------------------\n")

	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Pages: %d | Total: %.2fs | Detect: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.InputPath),
		pageCount,
		total.Seconds(),
		p.timings.detect.Seconds(),
	)
	if err := appendBenchmark("benchmark.log", logEntry); err != nil {
		fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
	}
}

func appendBenchmark(path, entry string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteReport encodes rep to the configured path; "-" means stdout.
func (p *Project) WriteReport(rep *report.Report) error {
	if p.Config.ReportPath == "" {
		return nil
	}
	if p.Config.ReportPath == "-" {
		return report.Write(os.Stdout, rep, p.Config.ReportFormat)
	}
	f, err := os.Create(p.Config.ReportPath)
	if err != nil {
		return err
	}
	if err := report.Write(f, rep, p.Config.ReportFormat); err != nil {
		f.Close()
		return err
	}
	fmt.Printf("[*] Report saved: %s\n", p.Config.ReportPath)
	return f.Close()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
