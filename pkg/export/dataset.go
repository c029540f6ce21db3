package export

import "fmt"

// Dataset is an ordered table. Every row must have one cell per header.
type Dataset struct {
	Headers []string
	Rows    [][]string
	// Widths are relative column weights used by the PDF layout. Empty means equal columns.
	Widths []float64
}

// Validate checks the table shape.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	if len(d.Widths) != 0 && len(d.Widths) != len(d.Headers) {
		return fmt.Errorf("dataset has %d widths for %d headers", len(d.Widths), len(d.Headers))
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}
