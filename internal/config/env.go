package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

// EnvPrefix prefixes every environment variable the tools read.
const EnvPrefix = "CLONEDETECT_"

// LoadDotEnv loads .env files into the environment. Missing files are
// ignored; variables already set win over file values.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ParamsFromEnv overlays CLONEDETECT_* variables on base.
func ParamsFromEnv(base analyzer.Params) analyzer.Params {
	p := base
	p.BlockSizeExp = GetEnvInt("BLOCK_EXP", p.BlockSizeExp)
	p.Step = GetEnvInt("STEP", p.Step)
	p.DetailThreshold = getEnvFloat("DETAIL", p.DetailThreshold)
	p.MinDistance = getEnvFloat("MIN_DISTANCE", p.MinDistance)
	p.MinClusterSize = GetEnvInt("MIN_CLUSTER", p.MinClusterSize)
	p.DirectionTolerance = getEnvFloat("TOLERANCE", p.DirectionTolerance)
	p.QuantStep = GetEnvInt("QUANT", p.QuantStep)
	p.Fingerprint = GetEnv("FINGERPRINT", p.Fingerprint)
	return p
}

// GetEnv reads CLONEDETECT_<key>, falling back to def.
func GetEnv(key, def string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return def
}

// GetEnvBool reads a boolean CLONEDETECT_<key>, falling back to def.
func GetEnvBool(key string, def bool) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetEnvInt reads an integer CLONEDETECT_<key>, falling back to def.
func GetEnvInt(key string, def int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
