package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/clonedetect/internal/analyzer"
)

// ReadParams overlays the YAML parameter file at path on base. Keys the
// file leaves out keep their base value.
func ReadParams(path string, base analyzer.Params) (analyzer.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}

	p := base
	if err := yaml.Unmarshal(data, &p); err != nil {
		return base, fmt.Errorf("%w: %s: %v", analyzer.ErrConfig, path, err)
	}
	return p, nil
}

// WriteParams writes a parameter set as YAML.
func WriteParams(p analyzer.Params, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
