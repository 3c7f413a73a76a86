// Package parse reads tabular files into an in-memory Dataset and
// writes converted results back out as CSV. Supported input formats are
// registered by extension; the registry doubles as the upload
// allow-list.
package parse

import "strings"

// Dataset is a parsed tabular file: one header row plus data rows.
// Rows may be ragged; Column pads short rows with empty strings.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Column returns the values of column i across all rows, in row order.
// Rows shorter than i+1 contribute an empty string.
func (d *Dataset) Column(i int) []string {
	out := make([]string, len(d.Rows))
	for r, row := range d.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// CleanCell normalizes a raw cell: trims whitespace, unwraps the Excel
// formula-string form (="value"), and strips symmetric surrounding
// quotes left behind by sloppy exporters.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}

// IsEmptyRow reports whether every cell is blank after cleaning.
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}
