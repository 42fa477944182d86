package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/ivlev/clonedetect/internal/analyzer"
	"github.com/ivlev/clonedetect/internal/config"
	"github.com/ivlev/clonedetect/internal/engine"
	"github.com/ivlev/clonedetect/internal/magnifier"
	"github.com/ivlev/clonedetect/internal/renderer"
	"github.com/ivlev/clonedetect/internal/report"
	"github.com/ivlev/clonedetect/internal/server"
	"github.com/ivlev/clonedetect/internal/source"
	"github.com/ivlev/clonedetect/internal/system"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("[-] Error reading .env: %v", err)
	}
	defaults := config.ParamsFromEnv(analyzer.DefaultParams())

	inputPtr := flag.String("input", config.GetEnv("INPUT", ""), "Image, directory of images or PDF (default: newest file in input/)")
	outputPtr := flag.String("output", config.GetEnv("OUTPUT", "output"), "Directory for annotated PNGs")
	paramsPtr := flag.String("params", config.GetEnv("PARAMS", ""), "YAML parameter file")
	saveParamsPtr := flag.String("save-params", "", "Write the effective parameters to this YAML file")
	blockExpPtr := flag.Int("block-exp", defaults.BlockSizeExp, "Block size exponent: blocks are 2^n pixels square")
	stepPtr := flag.Int("step", defaults.Step, "Scan step in pixels")
	detailPtr := flag.Float64("detail", defaults.DetailThreshold, "Minimum Laplacian std dev for a block to be fingerprinted")
	minDistPtr := flag.Float64("min-distance", defaults.MinDistance, "Minimum distance between a block and its copy")
	minClusterPtr := flag.Int("min-cluster", defaults.MinClusterSize, "Minimum pairs per reported cluster")
	tolerancePtr := flag.Float64("tolerance", defaults.DirectionTolerance, "Per-axis displacement tolerance within a cluster")
	quantPtr := flag.Int("quant", defaults.QuantStep, "Quantization bucket width for cell averages (1-255)")
	fingerprintPtr := flag.String("fingerprint", defaults.Fingerprint, "Fingerprint: grid, ahash, dhash")
	backendPtr := flag.String("detail-backend", config.GetEnv("DETAIL_BACKEND", analyzer.ScorerLaplacian), "Detail scorer: laplacian, opencv (needs -tags gocv)")
	showQuantPtr := flag.Bool("show-quantized", config.GetEnvBool("SHOW_QUANTIZED", false), "Also write the quantized preview")
	workersPtr := flag.Int("workers", config.GetEnvInt("WORKERS", runtime.NumCPU()), "Worker goroutines")
	reportPtr := flag.String("report", "", "Write a report to this path, - for stdout")
	reportFormatPtr := flag.String("report-format", report.FormatYAML, "Report format: yaml, text")
	qrPtr := flag.Bool("qr", false, "Stamp a QR code with the page summary")
	labelPtr := flag.Bool("label", true, "Draw the parameter label")
	palettePtr := flag.String("palette", renderer.PaletteFixed, "Rectangle colours: fixed, cluster")
	zoomPtr := flag.String("zoom", "", "Write a magnifier view centred at x,y")
	zoomFactorPtr := flag.Int("zoom-factor", magnifier.DefaultFactor, "Magnifier zoom factor (1-10)")
	zoomSizePtr := flag.Int("zoom-size", magnifier.DefaultSize, "Magnifier view size in pixels")
	servePtr := flag.String("serve", "", "Serve the first page for interactive tuning on this address, e.g. :8080")
	dpiPtr := flag.Int("dpi", 150, "DPI for PDF pages")
	statsPtr := flag.Bool("stats", false, "Print a performance report")

	flag.Parse()

	params := defaults
	if *paramsPtr != "" {
		var err error
		params, err = config.ReadParams(*paramsPtr, params)
		if err != nil {
			log.Fatalf("[-] Error reading parameters: %v", err)
		}
		fmt.Printf("[*] Parameters: %s\n", *paramsPtr)
	}
	// Flags given explicitly win over the parameter file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "block-exp":
			params.BlockSizeExp = *blockExpPtr
		case "step":
			params.Step = *stepPtr
		case "detail":
			params.DetailThreshold = *detailPtr
		case "min-distance":
			params.MinDistance = *minDistPtr
		case "min-cluster":
			params.MinClusterSize = *minClusterPtr
		case "tolerance":
			params.DirectionTolerance = *tolerancePtr
		case "quant":
			params.QuantStep = *quantPtr
		case "fingerprint":
			params.Fingerprint = *fingerprintPtr
		}
	})
	if err := params.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}
	if *saveParamsPtr != "" {
		if err := config.WriteParams(params, *saveParamsPtr); err != nil {
			log.Fatalf("[-] Error writing parameters: %v", err)
		}
		fmt.Printf("[*] Parameters saved: %s\n", *saveParamsPtr)
	}

	var zoomAt *image.Point
	if *zoomPtr != "" {
		pt, err := parsePoint(*zoomPtr)
		if err != nil {
			log.Fatalf("[-] Invalid -zoom: %v", err)
		}
		zoomAt = &pt
	}
	if *zoomFactorPtr < 1 || *zoomFactorPtr > magnifier.MaxFactor {
		log.Fatalf("[-] -zoom-factor must be in [1, %d]", magnifier.MaxFactor)
	}

	inputPath := *inputPtr
	if inputPath == "" {
		os.MkdirAll("input", 0755)
		latest, err := system.FindLatestInput("input", func(name string) bool {
			return source.IsImage(name) || system.IsPDF(name)
		})
		if err != nil {
			log.Fatalf("[-] Error: %v. Put an image or PDF into input/", err)
		}
		inputPath = latest
		fmt.Printf("[*] Selected file: %s\n", inputPath)
	}

	src, err := source.Open(inputPath)
	if err != nil {
		log.Fatalf("[-] Error opening source: %v", err)
	}
	defer src.Close()

	if src.PageCount() == 0 {
		log.Fatalf("[-] Error: the source has no pages or images")
	}

	cfg := &config.Config{
		InputPath:     inputPath,
		OutputDir:     *outputPtr,
		Params:        params,
		ParamsFile:    *paramsPtr,
		Workers:       *workersPtr,
		DetailBackend: *backendPtr,
		ShowQuantized: *showQuantPtr,
		ReportPath:    *reportPtr,
		ReportFormat:  *reportFormatPtr,
		Palette:       *palettePtr,
		Label:         *labelPtr,
		QRStamp:       *qrPtr,
		ZoomAt:        zoomAt,
		ZoomFactor:    *zoomFactorPtr,
		ZoomSize:      *zoomSizePtr,
		ServeAddr:     *servePtr,
		DPI:           *dpiPtr,
		ShowStats:     *statsPtr,
		BuildVersion:  version,
	}

	if cfg.ServeAddr != "" {
		if err := serve(cfg, src); err != nil {
			log.Fatalf("[-] Server error: %v", err)
		}
		return
	}

	project, err := engine.NewProject(cfg, src)
	if err != nil {
		log.Fatalf("[-] Error: %v", err)
	}
	rep, err := project.Run()
	if rep != nil {
		if werr := project.WriteReport(rep); werr != nil {
			log.Printf("[!] Error writing report: %v", werr)
		}
	}
	if err != nil {
		log.Fatalf("[-] Project error: %v", err)
	}

	fmt.Printf("[+++] Done! Results: %s\n", cfg.OutputDir)
}

func serve(cfg *config.Config, src source.Source) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	img, err := src.RenderPage(0, cfg.DPI)
	if err != nil {
		return fmt.Errorf("%w: %v", analyzer.ErrInput, err)
	}
	buf, err := analyzer.NewPixelBuffer(img)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, src.PageName(0), buf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.ServeAddr)
}

func parsePoint(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("expected x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}
