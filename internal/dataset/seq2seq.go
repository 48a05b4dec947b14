package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Seq2Seq split names.
const (
	SplitTrain      = "train"
	SplitValidation = "validation"
	SplitTest       = "test"
)

// Seq2SeqFile is the layout of one split file:
//
//	{"data": {"translation": [{"befr": "...", "en": "..."}]}}
type Seq2SeqFile struct {
	Data Translation `json:"data"`
}

// Columns selects the source (noised) and target (clean) columns of a CSV.
type Columns struct {
	Source int
	Target int
}

// DefaultColumns matches the files written by [CSVWriter].
var DefaultColumns = Columns{Source: 0, Target: 1}

// ReadCSV reads pairs from a CSV with a header row. Rows missing either
// column, or with either cell empty, are skipped.
func ReadCSV(r io.Reader, cols Columns) ([]Pair, error) {
	if cols.Source < 0 || cols.Target < 0 {
		return nil, errors.New("dataset: column indices must not be negative")
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		pairs  []Pair
		header = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return pairs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		if cols.Source >= len(rec) || cols.Target >= len(rec) {
			continue
		}
		src, tgt := rec[cols.Source], rec[cols.Target]
		if src == "" || tgt == "" {
			continue
		}
		pairs = append(pairs, Pair{Befr: src, En: tgt})
	}
}

// ReadCSVFiles reads several CSV files concurrently and concatenates their
// pairs in argument order.
func ReadCSVFiles(ctx context.Context, paths []string, cols Columns) ([]Pair, error) {
	results := make([][]Pair, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("dataset: open %q: %w", path, err)
			}
			defer f.Close()
			pairs, err := ReadCSV(f, cols)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []Pair
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// Seq2SeqPath returns <dir>/<name>_seq2seq_<split>.json.
func Seq2SeqPath(dir, name, split string) string {
	return filepath.Join(dir, name+"_seq2seq_"+split+".json")
}

// WriteSeq2Seq writes one split file and returns its path.
func WriteSeq2Seq(dir, name, split string, pairs []Pair) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("dataset: create directory: %w", err)
	}
	path = Seq2SeqPath(dir, name, split)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("dataset: create %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("dataset: close %q: %w", path, cerr)
		}
	}()
	doc := Seq2SeqFile{Data: Translation{Translation: nonNil(pairs)}}
	if err := encodeJSON(f, doc); err != nil {
		return "", fmt.Errorf("dataset: write %q: %w", path, err)
	}
	return path, nil
}
