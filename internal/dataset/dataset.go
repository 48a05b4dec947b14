// Package dataset writes noised sentence pairs in the layouts GEC training
// pipelines consume.
//
// Every layout carries the same two columns, in this order:
//
//	befr  the noised sentence (model input)
//	en    the clean sentence (model target)
//
// File formats are produced by [WriteFile]; [PostgresWriter] streams pairs
// into a table instead. [ReadCSV], [Split], and [WriteSeq2Seq] turn an
// existing pairs CSV into train/validation/test JSON files.
package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Header is the column header written before any pair.
var Header = []string{"befr", "en"}

// Pair is one training example.
type Pair struct {
	// Befr is the noised sentence.
	Befr string `json:"befr"`

	// En is the clean sentence.
	En string `json:"en"`
}

// Format selects an output encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
	FormatPostgres Format = "postgres"
)

// IsFile reports whether f is written to a file.
func (f Format) IsFile() bool {
	switch f {
	case FormatCSV, FormatTSV, FormatJSON, FormatXLSX:
		return true
	}
	return false
}

// ParseFormat maps a case-insensitive name to a [Format].
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == FormatPostgres || f.IsFile() {
		return f, nil
	}
	return "", fmt.Errorf("dataset: unknown format %q", s)
}

// Writer persists a batch of pairs.
type Writer interface {
	Write(ctx context.Context, pairs []Pair) error
}

// OutputName returns the conventional file name for a run:
// NOISED-<percent>_<name>.<ext>.
func OutputName(percent float64, name string, f Format) string {
	return fmt.Sprintf("NOISED-%s_%s.%s", strconv.FormatFloat(percent, 'f', -1, 64), name, f)
}

// WriteFile writes pairs to path in format f, creating parent directories
// as needed.
func WriteFile(ctx context.Context, path string, f Format, pairs []Pair) (err error) {
	if !f.IsFile() {
		return fmt.Errorf("dataset: format %q is not a file format", f)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dataset: create directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %q: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("dataset: close %q: %w", path, cerr)
		}
	}()

	var w Writer
	switch f {
	case FormatCSV:
		w = NewCSVWriter(out)
	case FormatTSV:
		w = NewTSVWriter(out)
	case FormatJSON:
		w = NewJSONWriter(out)
	case FormatXLSX:
		w = NewXLSXWriter(out)
	}
	if err := w.Write(ctx, pairs); err != nil {
		return fmt.Errorf("dataset: write %q: %w", path, err)
	}
	return nil
}
