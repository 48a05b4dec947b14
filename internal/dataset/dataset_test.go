package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/xuri/excelize/v2"
)

var samplePairs = []Pair{
	{Befr: "too apples fell", En: "two apples fell"},
	{Befr: "like cats", En: "I like cats"},
	{Befr: `she said "hi", then left`, En: `she said "hi", then left`},
}

func TestOutputName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		percent float64
		name    string
		format  Format
		want    string
	}{
		{0.3, "librispeech", FormatCSV, "NOISED-0.3_librispeech.csv"},
		{0.15, "run", FormatTSV, "NOISED-0.15_run.tsv"},
		{1, "all", FormatJSON, "NOISED-1_all.json"},
		{0.5, "book", FormatXLSX, "NOISED-0.5_book.xlsx"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.percent, tt.name, tt.format); got != tt.want {
			t.Errorf("OutputName(%v, %q, %q) = %q, want %q", tt.percent, tt.name, tt.format, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"csv", "TSV", " json ", "xlsx", "postgres"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
		}
	}
	if _, err := ParseFormat("parquet"); err == nil {
		t.Error("ParseFormat(parquet): expected error")
	}
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).Write(context.Background(), samplePairs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != len(samplePairs)+1 {
		t.Fatalf("rows = %d, want %d", len(records), len(samplePairs)+1)
	}
	if !slices.Equal(records[0], Header) {
		t.Errorf("header = %v, want %v", records[0], Header)
	}
	for i, p := range samplePairs {
		if got := records[i+1]; got[0] != p.Befr || got[1] != p.En {
			t.Errorf("row %d = %q, want %q", i+1, got, p)
		}
	}
}

func TestTSVWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := NewTSVWriter(&buf).Write(context.Background(), samplePairs[:1]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "befr\ten\ntoo apples fell\ttwo apples fell\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCSVWriter_HeaderOnlyWhenEmpty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).Write(context.Background(), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "befr,en\n" {
		t.Errorf("output = %q, want header only", buf.String())
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := NewJSONWriter(&buf).Write(context.Background(), samplePairs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var doc Translation
	if err := sonic.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !slices.Equal(doc.Translation, samplePairs) {
		t.Errorf("decoded = %v, want %v", doc.Translation, samplePairs)
	}
	if !strings.Contains(buf.String(), `"befr":"too apples fell"`) {
		t.Errorf("output %s missing befr key", buf.String())
	}
}

func TestJSONWriter_EmptyIsArray(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := NewJSONWriter(&buf).Write(context.Background(), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != `{"translation":[]}` {
		t.Errorf("output = %s, want empty array", got)
	}
}

func TestXLSXWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := NewXLSXWriter(&buf).Write(context.Background(), samplePairs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != len(samplePairs)+1 {
		t.Fatalf("rows = %d, want %d", len(rows), len(samplePairs)+1)
	}
	if !slices.Equal(rows[0], Header) {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][0] != "like cats" || rows[2][1] != "I like cats" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestWriter_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, w := range map[string]Writer{
		"csv":  NewCSVWriter(&bytes.Buffer{}),
		"json": NewJSONWriter(&bytes.Buffer{}),
		"xlsx": NewXLSXWriter(&bytes.Buffer{}),
	} {
		if err := w.Write(ctx, samplePairs); err == nil {
			t.Errorf("%s: expected error for canceled context", name)
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path := filepath.Join(dir, OutputName(0.3, "test", FormatCSV))
	if err := WriteFile(context.Background(), path, FormatCSV, samplePairs); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "befr,en\n") {
		t.Errorf("file starts with %q", string(data)[:min(len(data), 20)])
	}
}

func TestWriteFile_RejectsPostgres(t *testing.T) {
	t.Parallel()
	err := WriteFile(context.Background(), filepath.Join(t.TempDir(), "x"), FormatPostgres, samplePairs)
	if err == nil {
		t.Fatal("expected error")
	}
}
