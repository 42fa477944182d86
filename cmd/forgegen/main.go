package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/ivlev/clonedetect/internal/analyzer"
	"github.com/ivlev/clonedetect/internal/config"
	"github.com/ivlev/clonedetect/internal/engine"
	"github.com/ivlev/clonedetect/internal/report"
)

func main() {
	outPtr := flag.String("output", "output/forgegen", "Directory for the generated image and results")
	widthPtr := flag.Int("width", 640, "Image width")
	heightPtr := flag.Int("height", 480, "Image height")
	patchPtr := flag.Int("patch", 64, "Side of the copied patch")
	seedPtr := flag.Int64("seed", 1, "Noise seed")
	blockExpPtr := flag.Int("block-exp", 3, "Block size exponent for the check")
	flag.Parse()

	os.MkdirAll(*outPtr, 0755)
	fmt.Println("=== Copy-Move Forgery Generation Test ===")

	// Step 1: Create synthetic forged image
	fmt.Println("[1/3] Creating synthetic forged image...")
	from := image.Pt(*patchPtr/2, *patchPtr/2)
	to := image.Pt(*widthPtr-*patchPtr*3/2, *heightPtr-*patchPtr*3/2)
	img, err := createForgedImage(*widthPtr, *heightPtr, *patchPtr, from, to, *seedPtr)
	if err != nil {
		log.Fatalf("Failed to create image: %v", err)
	}

	imagePath := filepath.Join(*outPtr, "forged.png")
	f, err := os.Create(imagePath)
	if err != nil {
		log.Fatalf("Failed to create image file: %v", err)
	}
	if err := engine.EncodePNG(f, img); err != nil {
		log.Fatalf("Failed to encode image: %v", err)
	}
	f.Close()
	fmt.Printf("✓ Created %s (%dx%d), patch %d px copied %v -> %v\n\n",
		imagePath, *widthPtr, *heightPtr, *patchPtr, from, to)

	// Step 2: Detect
	fmt.Println("[2/3] Detecting copied regions...")
	params := analyzer.DefaultParams()
	params.BlockSizeExp = *blockExpPtr
	params.Step = params.BlockSize()
	params.DetailThreshold = 1

	buf, err := analyzer.NewPixelBuffer(img)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}
	res, err := analyzer.Detect(buf, params)
	if err != nil {
		log.Fatalf("Failed to detect: %v", err)
	}
	page := report.NewPage(0, "forged", buf.Bounds(), res)
	fmt.Printf("✓ %s\n\n", page.Summary())

	// Step 3: Annotate and check
	fmt.Println("[3/3] Writing annotated result...")
	cfg := &config.Config{Palette: "cluster", Label: true}
	frame := image.NewRGBA(buf.Bounds())
	if err := engine.Frame(frame, buf.Image(), res, cfg, page.Summary()); err != nil {
		log.Fatalf("Failed to annotate: %v", err)
	}
	annotatedPath := filepath.Join(*outPtr, "forged_annotated.png")
	af, err := os.Create(annotatedPath)
	if err != nil {
		log.Fatalf("Failed to create annotated file: %v", err)
	}
	if err := engine.EncodePNG(af, frame); err != nil {
		log.Fatalf("Failed to encode annotated image: %v", err)
	}
	af.Close()
	fmt.Printf("✓ Saved %s\n\n", annotatedPath)

	want := to.Sub(from)
	for _, c := range res.Clusters {
		if c.Seed() == want {
			fmt.Printf("✅ Found the copy: displacement %v, %d pairs\n", want, c.Len())
			return
		}
	}
	log.Fatalf("❌ No cluster with displacement %v", want)
}

// createForgedImage fills a w x h image with seeded gray noise and copies
// the patch x patch square at from onto to.
func createForgedImage(w, h, patch int, from, to image.Point, seed int64) (*image.RGBA, error) {
	bounds := image.Rect(0, 0, w, h)
	src := image.Rectangle{Min: from, Max: from.Add(image.Pt(patch, patch))}
	dst := image.Rectangle{Min: to, Max: to.Add(image.Pt(patch, patch))}
	if !src.In(bounds) || !dst.In(bounds) {
		return nil, fmt.Errorf("patch %d does not fit a %dx%d image", patch, w, h)
	}
	if src.Overlaps(dst) {
		return nil, fmt.Errorf("source %v and destination %v overlap", src, dst)
	}

	img := image.NewRGBA(bounds)
	r := rand.New(rand.NewSource(seed))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(r.Intn(256))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	for y := 0; y < patch; y++ {
		for x := 0; x < patch; x++ {
			img.SetRGBA(to.X+x, to.Y+y, img.RGBAAt(from.X+x, from.Y+y))
		}
	}
	return img, nil
}
