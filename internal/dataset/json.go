package dataset

import (
	"context"
	"io"

	"github.com/bytedance/sonic"
)

var _ Writer = (*JSONWriter)(nil)

// Translation is the seq2seq translation-task layout:
//
//	{"translation": [{"befr": "...", "en": "..."}]}
type Translation struct {
	Translation []Pair `json:"translation"`
}

// JSONWriter writes pairs as a single [Translation] document.
type JSONWriter struct {
	w io.Writer
}

// NewJSONWriter returns a [JSONWriter] writing to w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Write implements [Writer].
func (j *JSONWriter) Write(ctx context.Context, pairs []Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return encodeJSON(j.w, Translation{Translation: nonNil(pairs)})
}

func encodeJSON(w io.Writer, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// nonNil makes empty batches encode as [] rather than null.
func nonNil(pairs []Pair) []Pair {
	if pairs == nil {
		return []Pair{}
	}
	return pairs
}
