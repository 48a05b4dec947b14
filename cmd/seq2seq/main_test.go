package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcoulter13/phonoise/internal/dataset"
)

func writeCSV(t *testing.T, dir string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("befr,en\n")
	for i := range rows {
		fmt.Fprintf(&b, "noised %d,clean %d\n", i, i)
	}
	path := filepath.Join(dir, "pairs.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func readSplit(t *testing.T, path string) []dataset.Pair {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc dataset.Seq2SeqFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return doc.Data.Translation
}

func TestConvert_Splits(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeCSV(t, dir, 20)
	out := filepath.Join(dir, "out")

	written, err := convert(context.Background(), options{
		name:      "demo",
		files:     []string{in},
		outDir:    out,
		valSplit:  0.2,
		testSplit: 0.25,
		cols:      dataset.DefaultColumns,
		seed:      7,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	want := map[string]int{
		dataset.SplitValidation: 4,
		dataset.SplitTest:       4,
		dataset.SplitTrain:      12,
	}
	if len(written) != len(want) {
		t.Fatalf("wrote %d files, want %d", len(written), len(want))
	}
	total := 0
	for _, w := range written {
		if w.pairs != want[w.split] {
			t.Errorf("%s: %d pairs, want %d", w.split, w.pairs, want[w.split])
		}
		if w.path != dataset.Seq2SeqPath(out, "demo", w.split) {
			t.Errorf("%s written to %s", w.split, w.path)
		}
		got := readSplit(t, w.path)
		if len(got) != w.pairs {
			t.Errorf("%s file holds %d pairs, want %d", w.split, len(got), w.pairs)
		}
		total += len(got)
	}
	if total != 20 {
		t.Errorf("splits hold %d pairs in total, want 20", total)
	}
}

func TestConvert_NoTestFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeCSV(t, dir, 5)

	written, err := convert(context.Background(), options{
		name: "demo", files: []string{in}, outDir: dir, valSplit: 0.1, cols: dataset.DefaultColumns, seed: 1,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("wrote %d files, want validation and train", len(written))
	}
	if _, err := os.Stat(dataset.Seq2SeqPath(dir, "demo", dataset.SplitTest)); !os.IsNotExist(err) {
		t.Errorf("test split file exists, err = %v", err)
	}
	if got := readSplit(t, written[1].path); len(got) != 5 {
		t.Errorf("train holds %d pairs, want 5", len(got))
	}
}

func TestConvert_MissingInput(t *testing.T) {
	t.Parallel()
	_, err := convert(context.Background(), options{
		name: "demo", files: []string{filepath.Join(t.TempDir(), "nope.csv")}, outDir: t.TempDir(), cols: dataset.DefaultColumns,
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestParseColumns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    dataset.Columns
		wantErr bool
	}{
		{in: "0,1", want: dataset.Columns{Source: 0, Target: 1}},
		{in: " 5 , 6 ", want: dataset.Columns{Source: 5, Target: 6}},
		{in: "5", wantErr: true},
		{in: "a,b", wantErr: true},
		{in: "1,2,3", wantErr: true},
		{in: "-1,2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseColumns(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()
	if err := (options{name: "x", files: []string{"a.csv"}, valSplit: 0.1}).validate(); err != nil {
		t.Errorf("valid options: %v", err)
	}
	err := (options{valSplit: 2, testSplit: -1}).validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"-name", "-files", "-val-split", "-test-split"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	got := splitList(" a.csv, ,b.csv,")
	if len(got) != 2 || got[0] != "a.csv" || got[1] != "b.csv" {
		t.Errorf("splitList = %q", got)
	}
}
