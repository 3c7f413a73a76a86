package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExportCSV renders headers and typed rows as CSV bytes. Escaping is
// minimal: a cell is quoted only when it contains a comma or a double
// quote, with internal quotes doubled. Rows are joined with '\n'.
func ExportCSV(headers []string, rows [][]any) []byte {
	var b strings.Builder

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCell(cell))
		}
		b.WriteByte('\n')
	}

	writeRow(headers)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatValue(v)
		}
		writeRow(cells)
	}

	return []byte(b.String())
}

func escapeCell(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatValue renders a converted cell for CSV output. Dates print as
// 2006-01-02 when they carry no clock component, RFC 3339 otherwise;
// floats print without trailing zeros.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
