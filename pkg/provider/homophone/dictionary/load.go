package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxParallelLoads bounds how many files [LoadFiles] reads at once.
const maxParallelLoads = 4

// GroupFile is the YAML layout for explicit homophone groups.
//
// Example:
//
//	groups:
//	  - [sent, scent, cent]
//	  - [two, too, to]
//	words: [knight, night, nite]
type GroupFile struct {
	// Groups lists sets of mutually homophonous words.
	Groups [][]string `yaml:"groups"`

	// Words lists additional words indexed for phonetic derivation only.
	Words []string `yaml:"words"`
}

// ParseGroupsYAML decodes a [GroupFile] from r.
func ParseGroupsYAML(r io.Reader) (*GroupFile, error) {
	var gf GroupFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&gf); err != nil {
		if err == io.EOF {
			return &gf, nil
		}
		return nil, fmt.Errorf("dictionary: decode groups yaml: %w", err)
	}
	return &gf, nil
}

// ParseGroupsText reads one group per line, words separated by whitespace.
// Blank lines and lines starting with '#' are skipped.
func ParseGroupsText(r io.Reader) (*GroupFile, error) {
	gf := &GroupFile{}
	err := scanLines(r, func(fields []string) {
		if len(fields) > 1 {
			gf.Groups = append(gf.Groups, fields)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary: read groups: %w", err)
	}
	return gf, nil
}

// ParseWordList reads one word per line. Only the first field of each line
// is used, so frequency lists ("word 1234") load unchanged.
func ParseWordList(r io.Reader) ([]string, error) {
	var words []string
	err := scanLines(r, func(fields []string) {
		words = append(words, fields[0])
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary: read word list: %w", err)
	}
	return words, nil
}

// Import adds every group and word of gf to d.
func (d *Dictionary) Import(gf *GroupFile) {
	for _, g := range gf.Groups {
		d.AddGroup(g...)
	}
	d.AddWords(gf.Words...)
	// Group members take part in phonetic derivation too.
	for _, g := range gf.Groups {
		d.AddWords(g...)
	}
}

// LoadFiles reads group files and word lists concurrently into d. Group
// files ending in .yaml or .yml are parsed as [GroupFile]; any other
// extension is read as whitespace-separated groups. The first error cancels
// the remaining loads.
func LoadFiles(ctx context.Context, d *Dictionary, groupFiles, wordLists []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for _, path := range groupFiles {
		g.Go(func() error {
			gf, err := readFile(ctx, path, parseGroupsFor(path))
			if err != nil {
				return err
			}
			d.Import(gf)
			return nil
		})
	}
	for _, path := range wordLists {
		g.Go(func() error {
			words, err := readFile(ctx, path, ParseWordList)
			if err != nil {
				return err
			}
			d.AddWords(words...)
			return nil
		})
	}
	return g.Wait()
}

func parseGroupsFor(path string) func(io.Reader) (*GroupFile, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseGroupsYAML
	default:
		return ParseGroupsText
	}
}

func readFile[T any](ctx context.Context, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("dictionary: load %q: %w", path, err)
	}
	return v, nil
}

func scanLines(r io.Reader, fn func(fields []string)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(strings.Fields(line))
	}
	return sc.Err()
}
