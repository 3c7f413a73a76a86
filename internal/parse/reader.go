package parse

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ReaderFunc parses an input stream into a Dataset.
type ReaderFunc func(r io.Reader) (*Dataset, error)

var (
	formats   = make(map[string]ReaderFunc)
	formatsMu sync.RWMutex
)

// RegisterFormat adds a reader for a file extension (with leading dot,
// lowercase). Panics if the extension is already registered.
func RegisterFormat(ext string, fn ReaderFunc) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if _, exists := formats[ext]; exists {
		panic(fmt.Sprintf("format already registered: %s", ext))
	}
	formats[ext] = fn
}

// Supported reports whether the file name has a registered extension.
func Supported(name string) bool {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	_, ok := formats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the registered extensions, sorted for consistent
// ordering in error messages.
func Extensions() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	out := make([]string, 0, len(formats))
	for ext := range formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Read parses the stream using the reader registered for the file
// name's extension.
func Read(name string, r io.Reader) (*Dataset, error) {
	formatsMu.RLock()
	fn, ok := formats[strings.ToLower(filepath.Ext(name))]
	formatsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
	}
	return fn(r)
}

func init() {
	RegisterFormat(".csv", func(r io.Reader) (*Dataset, error) { return readDelimited(r, ',') })
	RegisterFormat(".tsv", func(r io.Reader) (*Dataset, error) { return readDelimited(r, '\t') })
	RegisterFormat(".txt", func(r io.Reader) (*Dataset, error) { return readDelimited(r, ',') })
}

// readDelimited parses a delimiter-separated stream. The first
// non-empty record becomes the header row; fully blank rows are
// dropped. Ragged records are tolerated.
func readDelimited(r io.Reader, delim rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse error: file contains no rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = CleanCell(h)
	}

	ds := &Dataset{Headers: headers}
	for _, row := range records[1:] {
		if IsEmptyRow(row) {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
