package config

import (
	"image"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

type Config struct {
	InputPath     string
	OutputDir     string
	Params        analyzer.Params
	ParamsFile    string
	Workers       int
	DetailBackend string
	ShowQuantized bool
	ReportPath    string // "-" for stdout
	ReportFormat  string // yaml, text
	Palette       string // fixed, cluster
	Label         bool
	QRStamp       bool
	ZoomAt        *image.Point
	ZoomFactor    int
	ZoomSize      int
	ServeAddr     string
	DPI           int
	ShowStats     bool
	BuildVersion  string
}
