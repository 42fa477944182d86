package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindLatestInput returns the most recently modified file in dir accepted
// by match.
func FindLatestInput(dir string, match func(name string) bool) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !match(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no input files found in %s", dir)
	}

	return latestFile, nil
}

// IsPDF reports whether name has a .pdf extension.
func IsPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
