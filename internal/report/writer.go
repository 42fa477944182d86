package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatText = "text"
)

// Write encodes the report in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return writeText(w, r)
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

// Read decodes a YAML report.
func Read(r io.Reader) (*Report, error) {
	var rep Report
	if err := yaml.NewDecoder(r).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func writeText(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "--- [CLONE REPORT] ---\n")
	fmt.Fprintf(w, "Input: %s\n", r.Input)
	fmt.Fprintf(w, "Block: %d | Step: %d | Detail: %.1f | Min distance: %.1f | Min cluster: %d | Tolerance: %.1f | Quant: %d\n",
		r.Params.BlockSize(), r.Params.Step, r.Params.DetailThreshold, r.Params.MinDistance,
		r.Params.MinClusterSize, r.Params.DirectionTolerance, r.Params.QuantStep)

	for _, p := range r.Pages {
		if p.Error != "" {
			fmt.Fprintf(w, "[!] %s: %s\n", p.Name, p.Error)
			continue
		}
		if p.Skipped {
			fmt.Fprintf(w, "[!] %s: %dx%d is smaller than one block, skipped\n", p.Name, p.Width, p.Height)
			continue
		}
		fmt.Fprintf(w, "[*] %s\n", p.Summary())
		for i, c := range p.Clusters {
			fmt.Fprintf(w, "    cluster %d: displacement (%d,%d), %d pairs\n",
				i+1, c.Displacement.X, c.Displacement.Y, len(c.Pairs))
		}
	}
	_, err := fmt.Fprintf(w, "----------------------\n")
	return err
}
