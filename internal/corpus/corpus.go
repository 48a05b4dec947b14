// Package corpus reads transcript files: UTF-8 text with one sentence per
// line.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxLineBytes is the longest line the reader accepts.
const MaxLineBytes = 4 << 20

// ReadLines returns every line of the file at path with line endings
// stripped. Blank lines are kept; the noiser skips them. A missing file
// yields an error matching [os.ErrNotExist].
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %q: %w", path, err)
	}
	defer f.Close()

	lines, err := Scan(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: read %q: %w", path, err)
	}
	return lines, nil
}

// Scan reads lines from r. A trailing carriage return is dropped so files
// written on Windows read the same.
func Scan(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
