package session

import (
	"fmt"
	"strings"

	"github.com/colwise/colwise/internal/infer"
	"github.com/colwise/colwise/internal/parse"
)

// ConvertColumn converts one column of a ready session to the target
// type. The raw dataset is never modified; conversions accumulate in a
// separate typed dataset, and the column's info is refreshed to
// reflect the outcome.
func (s *Service) ConvertColumn(id string, index int, target infer.Type) (infer.ColumnResult, error) {
	if !target.Valid() {
		return infer.ColumnResult{}, fmt.Errorf("unknown type: %s", target)
	}

	sess, err := s.get(id)
	if err != nil {
		return infer.ColumnResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.raw == nil || sess.columns == nil {
		return infer.ColumnResult{}, ErrNotReady
	}
	if index < 0 || index >= len(sess.raw.Headers) {
		return infer.ColumnResult{}, fmt.Errorf("column index %d out of range", index)
	}

	values := sess.raw.Column(index)
	result := infer.ConvertColumn(values, target, s.cfg.Options)

	if sess.converted == nil {
		sess.converted = rawAsTyped(sess.raw)
	}
	for r := range sess.converted {
		sess.converted[r][index] = result.Converted[r]
	}

	sess.columns[index] = refreshColumnInfo(sess.columns[index], values, target, result, s.cfg.Options)
	return result, nil
}

// ConvertAllColumns converts every column to its detected type.
// Per-value failures are absorbed into each column's info; the batch
// itself never fails.
func (s *Service) ConvertAllColumns(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.RLock()
	ready := sess.raw != nil && sess.columns != nil
	count := len(sess.columns)
	sess.mu.RUnlock()
	if !ready {
		return ErrNotReady
	}

	for i := 0; i < count; i++ {
		sess.mu.RLock()
		target := sess.columns[i].DetectedType
		sess.mu.RUnlock()
		if _, err := s.ConvertColumn(id, i, target); err != nil {
			return err
		}
	}
	return nil
}

// ExportCSV renders the session's current dataset as CSV, using
// converted values where a conversion has run and raw values
// elsewhere.
func (s *Service) ExportCSV(id string) ([]byte, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	if sess.raw == nil {
		return nil, ErrNotReady
	}

	rows := sess.converted
	if rows == nil {
		rows = rawAsTyped(sess.raw)
	}
	return parse.ExportCSV(sess.raw.Headers, rows), nil
}

// rawAsTyped widens the raw string dataset into the typed shape, with
// every row padded to the header width.
func rawAsTyped(ds *parse.Dataset) [][]any {
	width := len(ds.Headers)
	out := make([][]any, len(ds.Rows))
	for r, row := range ds.Rows {
		typed := make([]any, width)
		for c := 0; c < width; c++ {
			if c < len(row) {
				typed[c] = row[c]
			} else {
				typed[c] = ""
			}
		}
		out[r] = typed
	}
	return out
}

// refreshColumnInfo rebuilds a column's info after a manual conversion:
// the detected type becomes the chosen target, confidence reflects the
// conversion success rate, and samples are re-converted.
func refreshColumnInfo(prev infer.ColumnInfo, values []string, target infer.Type, result infer.ColumnResult, opts infer.Options) infer.ColumnInfo {
	info := prev
	info.DetectedType = target
	info.Errors = nil
	info.Suggestions = nil

	for _, e := range result.Errors {
		info.Errors = append(info.Errors, e.Message)
	}
	if info.NonEmptyValues > 0 {
		info.Confidence = float64(info.NonEmptyValues-len(result.Errors)) / float64(info.NonEmptyValues)
	} else {
		info.Confidence = 0
	}

	// Blank detection follows the same trim option as the analyzer.
	trim := opts.TrimWhitespace == nil || *opts.TrimWhitespace

	info.Samples = nil
	info.ConvertedSamples = nil
	for i, v := range values {
		if len(info.Samples) >= infer.MaxSamples {
			break
		}
		s := v
		if trim {
			s = strings.TrimSpace(s)
		}
		if s == "" {
			continue
		}
		info.Samples = append(info.Samples, v)
		info.ConvertedSamples = append(info.ConvertedSamples, result.Converted[i])
	}
	return info
}
