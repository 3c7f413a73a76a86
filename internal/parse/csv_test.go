package parse

import (
	"strings"
	"testing"
	"time"
)

// ---- Reader Tests ----

func TestReadCSV(t *testing.T) {
	input := "name,amount,active\nalice,100,true\nbob,200,false\n"
	ds, err := Read("data.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(ds.Headers) != 3 || ds.Headers[0] != "name" {
		t.Errorf("Headers = %v", ds.Headers)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(ds.Rows))
	}
	if ds.Rows[1][1] != "200" {
		t.Errorf("Rows[1][1] = %q, want 200", ds.Rows[1][1])
	}
}

func TestReadTSV(t *testing.T) {
	input := "a\tb\n1\t2\n"
	ds, err := Read("data.tsv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(ds.Headers) != 2 || ds.Rows[0][1] != "2" {
		t.Errorf("parsed = %v / %v", ds.Headers, ds.Rows)
	}
}

func TestReadSkipsEmptyRows(t *testing.T) {
	input := "a,b\n1,2\n,\n   ,  \n3,4\n"
	ds, err := Read("data.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(ds.Rows) != 2 {
		t.Errorf("Rows = %d, want 2 (blank rows dropped)", len(ds.Rows))
	}
}

func TestReadRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6\n"
	ds, err := Read("data.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	col := ds.Column(2)
	if col[0] != "" || col[1] != "5" {
		t.Errorf("Column(2) = %v, want short row padded", col)
	}
}

func TestReadUnsupportedExtension(t *testing.T) {
	_, err := Read("data.xlsx", strings.NewReader("a,b\n"))
	if err == nil {
		t.Fatal("expected unsupported file type error")
	}
	if !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("error = %v", err)
	}
}

func TestReadEmptyFile(t *testing.T) {
	_, err := Read("data.csv", strings.NewReader(""))
	if err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"x.csv", "x.CSV", "x.tsv", "x.txt"} {
		if !Supported(name) {
			t.Errorf("Supported(%q) = false", name)
		}
	}
	for _, name := range []string{"x.xlsx", "x.json", "x"} {
		if Supported(name) {
			t.Errorf("Supported(%q) = true", name)
		}
	}
}

// ---- Streaming Tests ----

func TestReaderSkipsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFname,amount\nalice,1\n"
	r := NewReader(strings.NewReader(input), int64(len(input)))
	ds, err := Read("data.csv", r)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ds.Headers[0] != "name" {
		t.Errorf("Headers[0] = %q, BOM not stripped", ds.Headers[0])
	}
	if r.BytesRead() != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", r.BytesRead(), len(input))
	}
	if r.Progress() != 100 {
		t.Errorf("Progress = %d, want 100", r.Progress())
	}
}

func TestReaderSanitizesInvalidUTF8(t *testing.T) {
	input := "a,b\nval\xFFue,2\n"
	r := NewReader(strings.NewReader(input), 0)
	ds, err := Read("data.csv", r)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ds.Rows[0][0] != "val?ue" {
		t.Errorf("Rows[0][0] = %q, want val?ue", ds.Rows[0][0])
	}
	if r.Progress() != 0 {
		t.Errorf("Progress = %d, want 0 when total unknown", r.Progress())
	}
}

// ---- Cell Cleaning Tests ----

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"trims whitespace", "  hello  ", "hello"},
		{"excel formula string", `="12345"`, "12345"},
		{"surrounding quotes", `"quoted"`, "quoted"},
		{"quote inside kept", `a"b`, `a"b`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---- Export Tests ----

func TestExportCSVEscaping(t *testing.T) {
	headers := []string{"name", "note"}
	rows := [][]any{
		{"alice", "plain"},
		{"bob", "has,comma"},
		{"carol", `has "quote"`},
	}
	got := string(ExportCSV(headers, rows))
	want := "name,note\n" +
		"alice,plain\n" +
		"bob,\"has,comma\"\n" +
		"carol,\"has \"\"quote\"\"\"\n"
	if got != want {
		t.Errorf("ExportCSV =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatValue(t *testing.T) {
	midnight := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	stamp := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"bool", true, "true"},
		{"int64", int64(42), "42"},
		{"float no trailing zeros", 1234.50, "1234.5"},
		{"float whole", 100.0, "100"},
		{"date", midnight, "2024-03-15"},
		{"datetime", stamp, "2024-03-15T10:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
