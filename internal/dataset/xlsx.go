package dataset

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet pairs are written to.
const SheetName = "Sheet1"

var _ Writer = (*XLSXWriter)(nil)

// XLSXWriter writes pairs to a single-sheet Excel workbook.
type XLSXWriter struct {
	w io.Writer
}

// NewXLSXWriter returns an [XLSXWriter] writing to w.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w}
}

// Write implements [Writer]. Rows are streamed so large batches do not
// build a full cell map in memory.
func (x *XLSXWriter) Write(ctx context.Context, pairs []Pair) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []any{Header[0], Header[1]}); err != nil {
		return err
	}
	for i, p := range pairs {
		if i%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{p.Befr, p.En}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(x.w)
}
