// Command seq2seq converts noised pair CSVs into the train/validation/test
// JSON files used to fine-tune a sequence-to-sequence correction model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rcoulter13/phonoise/internal/dataset"
	"github.com/rcoulter13/phonoise/internal/noise"
)

func main() {
	os.Exit(run())
}

func run() int {
	name := flag.String("name", "", "name prefix of the generated JSON files (required)")
	files := flag.String("files", "", "comma-separated CSV files to convert (required)")
	outDir := flag.String("output-dir", ".", "directory the JSON files are written to")
	valSplit := flag.Float64("val-split", 0.1, "fraction of pairs held out for validation")
	testSplit := flag.Float64("test-split", 0, "fraction of the remaining pairs held out for testing; 0 writes no test file")
	columns := flag.String("columns", "0,1", "source and target column indices, e.g. 5,6")
	seed := flag.Uint64("seed", 0, "random seed for the splits; 0 seeds from the clock")
	flag.Parse()

	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	opts := options{
		name:      *name,
		files:     splitList(*files),
		outDir:    *outDir,
		valSplit:  *valSplit,
		testSplit: *testSplit,
		seed:      *seed,
	}
	cols, err := parseColumns(*columns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seq2seq: %v\n", err)
		return 2
	}
	opts.cols = cols
	if err := opts.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "seq2seq: %v\n", err)
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	written, err := convert(ctx, opts)
	if err != nil {
		slog.Error("conversion failed", "err", err)
		return 1
	}
	for _, w := range written {
		slog.Info("split written", "split", w.split, "pairs", w.pairs, "path", w.path)
	}
	return 0
}

type options struct {
	name      string
	files     []string
	outDir    string
	valSplit  float64
	testSplit float64
	cols      dataset.Columns
	seed      uint64
}

func (o options) validate() error {
	var errs []error
	if o.name == "" {
		errs = append(errs, errors.New("-name is required"))
	}
	if len(o.files) == 0 {
		errs = append(errs, errors.New("-files is required"))
	}
	if o.valSplit < 0 || o.valSplit > 1 {
		errs = append(errs, fmt.Errorf("-val-split %.3f is out of range [0, 1]", o.valSplit))
	}
	if o.testSplit < 0 || o.testSplit > 1 {
		errs = append(errs, fmt.Errorf("-test-split %.3f is out of range [0, 1]", o.testSplit))
	}
	return errors.Join(errs...)
}

type split struct {
	name  string
	pairs []dataset.Pair
}

type splitFile struct {
	split string
	path  string
	pairs int
}

// convert reads every input file, carves off the validation split and then
// the optional test split, and writes one JSON file per split.
func convert(ctx context.Context, o options) ([]splitFile, error) {
	pairs, err := dataset.ReadCSVFiles(ctx, o.files, o.cols)
	if err != nil {
		return nil, err
	}
	rng := noise.NewRand(o.seed)

	train, val := dataset.Split(pairs, o.valSplit, rng)
	splits := []split{{dataset.SplitValidation, val}}
	if o.testSplit > 0 {
		var test []dataset.Pair
		train, test = dataset.Split(train, o.testSplit, rng)
		splits = append(splits, split{dataset.SplitTest, test})
	}
	splits = append(splits, split{dataset.SplitTrain, train})

	written := make([]splitFile, 0, len(splits))
	for _, s := range splits {
		path, err := dataset.WriteSeq2Seq(o.outDir, o.name, s.name, s.pairs)
		if err != nil {
			return written, err
		}
		written = append(written, splitFile{split: s.name, path: path, pairs: len(s.pairs)})
	}
	return written, nil
}

func parseColumns(s string) (dataset.Columns, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return dataset.Columns{}, fmt.Errorf("-columns %q: want two comma-separated indices, source then target", s)
	}
	var idx [2]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return dataset.Columns{}, fmt.Errorf("-columns %q: %q is not a column index", s, p)
		}
		idx[i] = n
	}
	return dataset.Columns{Source: idx[0], Target: idx[1]}, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
