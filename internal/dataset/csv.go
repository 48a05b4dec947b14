package dataset

import (
	"context"
	"encoding/csv"
	"io"
)

var _ Writer = (*CSVWriter)(nil)

// CSVWriter writes pairs as delimited text with a header row.
type CSVWriter struct {
	w     io.Writer
	comma rune
}

// NewCSVWriter returns a comma-separated [CSVWriter].
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w, comma: ','}
}

// NewTSVWriter returns a tab-separated [CSVWriter].
func NewTSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w, comma: '\t'}
}

// Write implements [Writer].
func (c *CSVWriter) Write(ctx context.Context, pairs []Pair) error {
	cw := csv.NewWriter(c.w)
	cw.Comma = c.comma
	if err := cw.Write(Header); err != nil {
		return err
	}
	for i, p := range pairs {
		if i%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if err := cw.Write([]string{p.Befr, p.En}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
