// Package export renders stored results to interchange formats: XYZ
// coordinate files for visualization tools and per-run JSON artifact
// directories.
package export

import (
	"fmt"
	"io"
	"strings"
)

// Symbols expands a two-species ordering into per-atom element symbols.
func Symbols(metal1, metal2 string, ordering []uint8) []string {
	symbols := make([]string, len(ordering))
	for i, s := range ordering {
		if s == 0 {
			symbols[i] = metal1
		} else {
			symbols[i] = metal2
		}
	}
	return symbols
}

// WriteXYZ writes a standard XYZ file: atom count, one comment line, then
// one "Symbol x y z" line per atom. Positions are in Angstroms.
func WriteXYZ(w io.Writer, symbols []string, positions [][3]float64, comment string) error {
	if len(symbols) != len(positions) {
		return fmt.Errorf("symbol count %d does not match position count %d", len(symbols), len(positions))
	}
	if strings.ContainsAny(comment, "\r\n") {
		return fmt.Errorf("comment must be a single line")
	}

	if _, err := fmt.Fprintf(w, "%d\n%s\n", len(symbols), comment); err != nil {
		return err
	}
	for i, symbol := range symbols {
		p := positions[i]
		if _, err := fmt.Fprintf(w, "%s %.6f %.6f %.6f\n", symbol, p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}

// XYZFilename names the export file after the composition, e.g. "Ag13Cu42.xyz".
func XYZFilename(metal1 string, n1 int, metal2 string, n2 int) string {
	return fmt.Sprintf("%s%d%s%d.xyz", metal1, n1, metal2, n2)
}
